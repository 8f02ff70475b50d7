package repository

import (
	"context"
	"errors"

	"healthloop/internal/model"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("订单不存在")
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 订单与订单行一起写入
func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetByRequestID 幂等查询，不存在时返回 nil, nil
func (r *OrderRepository) GetByRequestID(ctx context.Context, tx *gorm.DB, requestID string) (*model.Order, error) {
	if tx == nil {
		tx = r.db
	}
	var order model.Order
	err := tx.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("request_id = ?", requestID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("account_id = ?", accountID).Count(&n).Error
	return n, err
}

func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Order{}).Where("account_id = ?", accountID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}
