package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ETSY_API_KEY", "test-keystring")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Etsy.PollIntervalMinutes != 5 {
		t.Errorf("PollIntervalMinutes = %d", cfg.Etsy.PollIntervalMinutes)
	}
	if cfg.Etsy.Scopes != "transactions_r shops_r email_r" {
		t.Errorf("Scopes = %q", cfg.Etsy.Scopes)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ETSY_API_KEY", "test-keystring")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/spells")
	t.Setenv("ETSY_POLL_INTERVAL_MINUTES", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.DatabaseURL != "postgres://localhost/spells" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Etsy.PollIntervalMinutes != 15 {
		t.Errorf("PollIntervalMinutes = %d", cfg.Etsy.PollIntervalMinutes)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("ETSY_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("缺少 ETSY_API_KEY 应报错")
	}
}
