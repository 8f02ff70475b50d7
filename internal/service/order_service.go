package service

import (
	"context"

	"healthloop/internal/model"
	"healthloop/internal/repository"

	"gorm.io/gorm"
)

const maxOrderPageSize = 50

type OrderService struct {
	orderRepo   *repository.OrderRepository
	accountRepo *repository.AccountRepository
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		orderRepo:   repository.NewOrderRepository(db),
		accountRepo: repository.NewAccountRepository(db),
	}
}

// List 账户的订单，最新的在前
func (s *OrderService) List(ctx context.Context, accountID string, page, pageSize int) ([]*model.Order, int64, error) {
	if _, err := s.accountRepo.GetByID(ctx, nil, accountID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxOrderPageSize {
		pageSize = maxOrderPageSize
	}
	return s.orderRepo.ListByAccount(ctx, accountID, page, pageSize)
}

// Get 只能查看自己的订单，他人订单按不存在处理
func (s *OrderService) Get(ctx context.Context, accountID, orderNo string) (*model.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order.AccountID != accountID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
