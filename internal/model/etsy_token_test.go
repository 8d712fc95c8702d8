package model

import (
	"testing"
	"time"
)

func TestEtsyToken_IsExpired(t *testing.T) {
	token := &EtsyToken{ExpiresAt: time.Now().Add(time.Hour)}
	if token.IsExpired() {
		t.Error("1 小时后过期的凭证不应判为过期")
	}

	token.ExpiresAt = time.Now().Add(-time.Second)
	if !token.IsExpired() {
		t.Error("已过期的凭证应判为过期")
	}
}

func TestEtsyToken_ExpiresWithin(t *testing.T) {
	token := &EtsyToken{ExpiresAt: time.Now().Add(2 * time.Minute)}

	if !token.ExpiresWithin(5 * time.Minute) {
		t.Error("2 分钟后过期应落在 5 分钟窗口内")
	}
	if token.ExpiresWithin(time.Minute) {
		t.Error("2 分钟后过期不应落在 1 分钟窗口内")
	}

	// 已过期也算在窗口内
	token.ExpiresAt = time.Now().Add(-time.Hour)
	if !token.ExpiresWithin(5 * time.Minute) {
		t.Error("已过期的凭证应视为需要刷新")
	}
}
