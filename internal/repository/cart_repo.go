package repository

import (
	"context"
	"errors"

	"healthloop/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByAccount 购物车不存在时返回 nil, nil
func (r *CartRepository) GetByAccount(ctx context.Context, tx *gorm.DB, accountID string) (*model.Cart, error) {
	if tx == nil {
		tx = r.db
	}
	var cart model.Cart
	err := tx.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("account_id = ?", accountID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate 首次访问时创建空购物车
func (r *CartRepository) GetOrCreate(ctx context.Context, tx *gorm.DB, accountID, newID string) (*model.Cart, error) {
	if tx == nil {
		tx = r.db
	}
	cart, err := r.GetByAccount(ctx, tx, accountID)
	if err != nil || cart != nil {
		return cart, err
	}

	err = tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoNothing: true,
		}).
		Omit("Items").
		Create(&model.Cart{ID: newID, AccountID: accountID}).Error
	if err != nil {
		return nil, err
	}
	return r.GetByAccount(ctx, tx, accountID)
}

// AddQuantity 已存在的行累加数量，否则追加新行
func (r *CartRepository) AddQuantity(ctx context.Context, tx *gorm.DB, cartID, productID string, quantity int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&model.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}).Error
}

// ClearItems 清空购物车行，购物车本身保留
func (r *CartRepository) ClearItems(ctx context.Context, tx *gorm.DB, cartID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}
