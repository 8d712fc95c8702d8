package model

import (
	"time"
)

// ==================== EtsyToken OAuth 凭证 ====================

// EtsyToken Etsy OAuth 2.0 凭证
// 单账号系统：全表最多保留一条当前记录，重新授权时旧记录被整体替换
type EtsyToken struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text;not null"`
	TokenType    string    `gorm:"size:50;default:Bearer"`
	ExpiresAt    time.Time `gorm:"not null"`
	Scope        string    `gorm:"type:text"`

	// 首次同步时从 /users/me 获取并回写
	ShopID int64
	UserID int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*EtsyToken) TableName() string {
	return "etsy_tokens"
}

// IsExpired Token 是否已过期
func (t *EtsyToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// ExpiresWithin 是否将在 d 时间内过期（含已过期）
func (t *EtsyToken) ExpiresWithin(d time.Duration) bool {
	return time.Until(t.ExpiresAt) < d
}
