package service

import (
	"context"
	"strings"

	"healthloop/internal/model"
	"healthloop/internal/repository"

	"gorm.io/gorm"
)

type ProductService struct {
	productRepo *repository.ProductRepository
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{productRepo: repository.NewProductRepository(db)}
}

// List dietType 为空时返回全部商品
func (s *ProductService) List(ctx context.Context, dietType string) ([]*model.Product, error) {
	dietType = strings.ToLower(strings.TrimSpace(dietType))
	if dietType != "" && !model.ValidDietType(dietType) {
		return nil, ErrInvalidDietType
	}
	return s.productRepo.List(ctx, dietType)
}

func (s *ProductService) Get(ctx context.Context, productID string) (*model.Product, error) {
	return s.productRepo.GetByID(ctx, nil, productID)
}

// Seed 用给定商品替换整个商品表
func (s *ProductService) Seed(ctx context.Context, products []*model.Product) (int, error) {
	for _, p := range products {
		if !model.ValidDietType(p.DietType) {
			return 0, ErrInvalidDietType
		}
	}
	if err := s.productRepo.ReplaceAll(ctx, products); err != nil {
		return 0, err
	}
	return len(products), nil
}
