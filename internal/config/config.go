package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config 应用配置，进程启动时从环境变量读取一次，运行期不再变化
type Config struct {
	ListenAddr  string
	DatabaseURL string
	Etsy        EtsyConfig
}

// EtsyConfig Etsy 集成配置
type EtsyConfig struct {
	APIKey              string // Etsy App keystring，同时作为 OAuth client_id
	SharedSecret        string
	RedirectURI         string
	Scopes              string
	PollIntervalMinutes int
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("LISTEN_ADDR", ":8000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ETSY_REDIRECT_URI", "http://localhost:8000/api/v1/etsy/auth/callback")
	v.SetDefault("ETSY_SCOPES", "transactions_r shops_r email_r")
	v.SetDefault("ETSY_POLL_INTERVAL_MINUTES", 5)
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr:  v.GetString("LISTEN_ADDR"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		Etsy: EtsyConfig{
			APIKey:              v.GetString("ETSY_API_KEY"),
			SharedSecret:        v.GetString("ETSY_API_SECRET"),
			RedirectURI:         v.GetString("ETSY_REDIRECT_URI"),
			Scopes:              v.GetString("ETSY_SCOPES"),
			PollIntervalMinutes: v.GetInt("ETSY_POLL_INTERVAL_MINUTES"),
		},
	}

	if cfg.Etsy.APIKey == "" {
		return nil, fmt.Errorf("缺少 ETSY_API_KEY 配置")
	}
	return cfg, nil
}
