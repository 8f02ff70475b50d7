package repository

import (
	"context"
	"errors"

	"healthloop/internal/model"

	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("商品不存在")

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*model.Product, error) {
	if tx == nil {
		tx = r.db
	}
	var product model.Product
	err := tx.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// GetByIDs 批量查询，缺失的商品不在返回结果中
func (r *ProductRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) (map[string]*model.Product, error) {
	if tx == nil {
		tx = r.db
	}
	out := make(map[string]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []*model.Product
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// List dietType 为空时返回全部
func (r *ProductRepository) List(ctx context.Context, dietType string) ([]*model.Product, error) {
	var products []*model.Product
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if dietType != "" {
		query = query.Where("diet_type = ?", dietType)
	}
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

// ReplaceAll 清空并写入商品，仅供 seed 命令使用
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []*model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Product{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		return tx.Create(&products).Error
	})
}
