package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 订单状态常量 ====================

// OrderStatus 订单在法术生成流水线中的状态
// 同步引擎只负责创建 pending 状态，其余状态由后续处理流程推进
const (
	OrderStatusPending    = "pending"    // 待处理
	OrderStatusGenerating = "generating" // 法术生成中
	OrderStatusReview     = "review"     // 待审核
	OrderStatusApproved   = "approved"   // 已批准
	OrderStatusDelivered  = "delivered"  // 已交付
	OrderStatusFailed     = "failed"     // 失败
)

// ==================== Order 订单主表 ====================

// Order Etsy 订单（含法术定制信息）
// EtsyReceiptID 是幂等键：同一收据重复同步只会更新，不会产生重复记录
type Order struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	// Etsy 标识
	EtsyReceiptID     int64 `gorm:"uniqueIndex;not null"`
	EtsyListingID     int64
	EtsyTransactionID int64

	// 买家信息
	CustomerName  string `gorm:"size:255"`
	CustomerEmail string `gorm:"size:255"`

	// 法术定制内容
	RawSpellType        string            `gorm:"size:255"` // 商品标题原文
	Intention           string            `gorm:"type:text"`
	PersonalizationData datatypes.JSONMap `gorm:"type:jsonb"`

	// 状态
	Status string `gorm:"size:32;index;default:pending"`

	// 订单金额与时间
	EtsyOrderDate   *time.Time
	OrderTotalCents int64
	CurrencyCode    string `gorm:"size:10;default:USD"`

	// 审计字段
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*Order) TableName() string {
	return "orders"
}

// GetTotal 订单金额（元）
func (o *Order) GetTotal() float64 {
	return float64(o.OrderTotalCents) / 100
}

// GetPersonalization 获取个性化字段
func (o *Order) GetPersonalization(key string) string {
	if o.PersonalizationData == nil {
		return ""
	}
	if v, ok := o.PersonalizationData[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
