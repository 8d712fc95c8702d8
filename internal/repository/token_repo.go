package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"spell_fulfillment_v1_202601/internal/model"
)

// TokenRepository Etsy 凭证仓储
type TokenRepository interface {
	// GetCurrent 获取当前凭证，无记录时返回 (nil, nil)
	GetCurrent(ctx context.Context) (*model.EtsyToken, error)
	// ReplaceCurrent 原子替换：删除全部旧凭证后写入新凭证
	ReplaceCurrent(ctx context.Context, token *model.EtsyToken) error
	// Update 就地更新（刷新轮换、回写 shop_id）
	Update(ctx context.Context, token *model.EtsyToken) error
	// DeleteAll 删除全部凭证，返回删除条数
	DeleteAll(ctx context.Context) (int64, error)
}

type tokenRepo struct {
	db *gorm.DB
}

// NewTokenRepository 创建凭证仓储
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) GetCurrent(ctx context.Context) (*model.EtsyToken, error) {
	var token model.EtsyToken
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepo) ReplaceCurrent(ctx context.Context, token *model.EtsyToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.EtsyToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *tokenRepo) Update(ctx context.Context, token *model.EtsyToken) error {
	return r.db.WithContext(ctx).Save(token).Error
}

func (r *tokenRepo) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.EtsyToken{})
	return result.RowsAffected, result.Error
}
