package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"spell_fulfillment_v1_202601/internal/model"
)

// OrderFilter 订单查询条件
type OrderFilter struct {
	Status   string
	Page     int
	PageSize int
}

// OrderRepository 订单仓储
type OrderRepository interface {
	// GetByEtsyReceiptID 按收据 ID 查询，未找到时返回 (nil, nil)
	GetByEtsyReceiptID(ctx context.Context, receiptID int64) (*model.Order, error)
	// CreateBatch 单事务批量创建
	CreateBatch(ctx context.Context, orders []*model.Order) error
	// Update 更新订单
	Update(ctx context.Context, order *model.Order) error
	// List 分页查询
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
}

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) GetByEtsyReceiptID(ctx context.Context, receiptID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where("etsy_receipt_id = ?", receiptID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) CreateBatch(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(orders).Error
}

func (r *orderRepo) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var orders []model.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
