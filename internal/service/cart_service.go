package service

import (
	"context"

	"healthloop/internal/infrastructure/lock"
	"healthloop/internal/model"
	"healthloop/internal/repository"
	"healthloop/pkg/idgen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CartService struct {
	db          *gorm.DB
	locker      lock.Locker
	log         *zap.Logger
	accountRepo *repository.AccountRepository
	productRepo *repository.ProductRepository
	cartRepo    *repository.CartRepository
}

func NewCartService(db *gorm.DB, locker lock.Locker, log *zap.Logger) *CartService {
	return &CartService{
		db:          db,
		locker:      locker,
		log:         log.Named("cart"),
		accountRepo: repository.NewAccountRepository(db),
		productRepo: repository.NewProductRepository(db),
		cartRepo:    repository.NewCartRepository(db),
	}
}

// AddItem 加入购物车，同一商品合并数量
func (s *CartService) AddItem(ctx context.Context, accountID, productID string, quantity int) (*model.CartView, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if _, err := s.accountRepo.GetByID(ctx, nil, accountID); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.GetByID(ctx, nil, productID); err != nil {
		return nil, err
	}

	err := withLocks(ctx, s.locker, []string{lock.CartLockKey(accountID)}, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			cart, err := s.cartRepo.GetOrCreate(ctx, tx, accountID, idgen.NewUUID())
			if err != nil {
				return err
			}
			return s.cartRepo.AddQuantity(ctx, tx, cart.ID, productID, quantity)
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("加入购物车",
		zap.String("account_id", accountID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
	)
	return s.GetCart(ctx, accountID)
}

// GetCart 返回带商品详情的购物车，首次访问时创建空购物车
func (s *CartService) GetCart(ctx context.Context, accountID string) (*model.CartView, error) {
	if _, err := s.accountRepo.GetByID(ctx, nil, accountID); err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.GetOrCreate(ctx, nil, accountID, idgen.NewUUID())
	if err != nil {
		return nil, err
	}
	return s.view(ctx, nil, cart)
}

// Total 购物车总额，空购物车为 0
func (s *CartService) Total(ctx context.Context, accountID string) (decimal.Decimal, error) {
	view, err := s.GetCart(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return view.Total, nil
}

// Clear 清空购物车，重复调用无副作用
func (s *CartService) Clear(ctx context.Context, accountID string) error {
	if _, err := s.accountRepo.GetByID(ctx, nil, accountID); err != nil {
		return err
	}
	return withLocks(ctx, s.locker, []string{lock.CartLockKey(accountID)}, func() error {
		cart, err := s.cartRepo.GetByAccount(ctx, nil, accountID)
		if err != nil || cart == nil {
			return err
		}
		return s.cartRepo.ClearItems(ctx, nil, cart.ID)
	})
}

// view 已下架的商品不计入购物车
func (s *CartService) view(ctx context.Context, tx *gorm.DB, cart *model.Cart) (*model.CartView, error) {
	view := &model.CartView{Items: []model.CartLine{}, Total: decimal.Zero}
	if cart == nil || len(cart.Items) == 0 {
		return view, nil
	}

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			s.log.Warn("购物车中的商品不存在", zap.String("product_id", item.ProductID))
			continue
		}
		subtotal := model.Subtotal(p.Price, item.Quantity)
		view.Items = append(view.Items, model.CartLine{
			Product:  *p,
			Quantity: item.Quantity,
			Subtotal: subtotal,
		})
		total = total.Add(subtotal)
	}
	view.Total = total.Round(2)
	return view, nil
}
