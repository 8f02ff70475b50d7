package service

import (
	"context"
	"fmt"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/lock"
	"healthloop/internal/infrastructure/metrics"
	"healthloop/internal/model"
	"healthloop/internal/repository"
	"healthloop/pkg/idgen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckoutService 结算：购物车生成订单并发放购物积分
type CheckoutService struct {
	db          *gorm.DB
	locker      lock.Locker
	ledger      *LedgerService
	catalog     *model.Catalog
	cfg         *config.Config
	log         *zap.Logger
	accountRepo *repository.AccountRepository
	productRepo *repository.ProductRepository
	cartRepo    *repository.CartRepository
	orderRepo   *repository.OrderRepository
	outboxRepo  *repository.OutboxRepository
}

func NewCheckoutService(db *gorm.DB, locker lock.Locker, ledger *LedgerService, catalog *model.Catalog, cfg *config.Config, log *zap.Logger) *CheckoutService {
	return &CheckoutService{
		db:          db,
		locker:      locker,
		ledger:      ledger,
		catalog:     catalog,
		cfg:         cfg,
		log:         log.Named("checkout"),
		accountRepo: repository.NewAccountRepository(db),
		productRepo: repository.NewProductRepository(db),
		cartRepo:    repository.NewCartRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type CheckoutRequest struct {
	AccountID string
	// RequestID 幂等键，为空时生成新的，即不做幂等
	RequestID string
}

type CheckoutResult struct {
	Order *model.Order `json:"order"`
	// Replayed 为 true 表示同一请求号的订单已存在，本次未做任何变更
	Replayed bool     `json:"replayed"`
	Balance  *Balance `json:"balance"`
}

func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.RequestID == "" {
		req.RequestID = idgen.NewUUID()
	}

	// 幂等校验
	if result, err := s.replay(ctx, nil, req); result != nil || err != nil {
		return result, err
	}

	if _, err := s.accountRepo.GetByID(ctx, nil, req.AccountID); err != nil {
		return nil, err
	}

	var (
		order    *model.Order
		entry    *model.LedgerEntry
		account  *model.Account
		replayed *CheckoutResult
	)
	keys := []string{lock.CartLockKey(req.AccountID), lock.AccountLockKey(req.AccountID)}
	err := withLocks(ctx, s.locker, keys, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 获取锁后再次检查幂等
			r, err := s.replay(ctx, tx, req)
			if r != nil || err != nil {
				replayed = r
				return err
			}
			order, entry, account, err = s.place(ctx, tx, req)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return replayed, nil
	}

	if entry != nil {
		s.ledger.afterCommit(ctx, entry, account)
	}
	metrics.OrdersTotal.Inc()
	metrics.OrderAmount.Observe(order.TotalAmount.InexactFloat64())

	s.log.Info("下单成功",
		zap.String("order_no", order.OrderNo),
		zap.String("account_id", order.AccountID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int64("points_awarded", order.PointsAwarded),
		zap.Int64("first_purchase_bonus", order.FirstPurchaseBonus),
	)

	return &CheckoutResult{Order: order, Balance: BalanceOf(account)}, nil
}

func (s *CheckoutService) replay(ctx context.Context, tx *gorm.DB, req CheckoutRequest) (*CheckoutResult, error) {
	existing, err := s.orderRepo.GetByRequestID(ctx, tx, req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.AccountID != req.AccountID {
		return nil, ErrDuplicateRequest
	}
	account, err := s.accountRepo.GetByID(ctx, tx, req.AccountID)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: existing, Replayed: true, Balance: BalanceOf(account)}, nil
}

// place 在事务内完成订单、积分、首单标记、清空购物车与事件写入
func (s *CheckoutService) place(ctx context.Context, tx *gorm.DB, req CheckoutRequest) (*model.Order, *model.LedgerEntry, *model.Account, error) {
	cart, err := s.cartRepo.GetByAccount(ctx, tx, req.AccountID)
	if err != nil {
		return nil, nil, nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, nil, nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, nil, nil, err
	}

	orderNo := idgen.GenerateOrderNo()
	items := make([]model.OrderItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
		}
		subtotal := model.Subtotal(p.Price, item.Quantity)
		items = append(items, model.OrderItem{
			OrderNo:     orderNo,
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	total = total.Round(2)

	account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, nil, nil, err
	}

	purchasePoints := model.PurchasePoints(total, s.cfg.Business.PointsPerCurrencyUnit)
	var bonus int64
	if s.isFirstPurchase(account) {
		bonus = s.cfg.Business.FirstPurchaseBonus
	}

	order := &model.Order{
		OrderNo:            orderNo,
		RequestID:          req.RequestID,
		AccountID:          account.ID,
		TotalAmount:        total,
		PointsFromPurchase: purchasePoints,
		FirstPurchaseBonus: bonus,
		PointsAwarded:      purchasePoints + bonus,
		Status:             model.OrderStatusCompleted,
		Items:              items,
	}
	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		if isDuplicateKey(err) {
			return nil, nil, nil, ErrDuplicateRequest
		}
		return nil, nil, nil, fmt.Errorf("创建订单失败: %w", err)
	}

	// 积分为 0 的订单不写流水，流水积分必须为正
	var entry *model.LedgerEntry
	if order.PointsAwarded > 0 {
		entry, account, err = s.ledger.post(ctx, tx, PostRequest{
			AccountID:   account.ID,
			ActionCode:  model.ActionOrderPurchase,
			Points:      order.PointsAwarded,
			Description: fmt.Sprintf("订单 %s", orderNo),
			OrderNo:     orderNo,
		})
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if !account.HasFirstPurchase {
		if err := s.accountRepo.MarkFirstPurchase(ctx, tx, account.ID); err != nil {
			return nil, nil, nil, fmt.Errorf("更新首单标记失败: %w", err)
		}
		account.HasFirstPurchase = true
	}

	if err := s.cartRepo.ClearItems(ctx, tx, cart.ID); err != nil {
		return nil, nil, nil, fmt.Errorf("清空购物车失败: %w", err)
	}

	msg, err := model.NewOutboxMessage(s.cfg.Kafka.Topic.OrderPlaced, model.EventOrderPlaced, order.OrderNo, model.OrderPlacedEvent{
		OrderNo:       order.OrderNo,
		AccountID:     order.AccountID,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		PointsAwarded: order.PointsAwarded,
		ItemCount:     len(order.Items),
		OccurredAt:    order.CreatedAt,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("序列化订单事件失败: %w", err)
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return nil, nil, nil, fmt.Errorf("写入消息失败: %w", err)
	}

	return order, entry, account, nil
}

// isFirstPurchase welcome_match 规则下，累计积分恰好等于注册奖励才算首单
func (s *CheckoutService) isFirstPurchase(account *model.Account) bool {
	switch s.cfg.Business.FirstPurchaseRule {
	case config.FirstPurchaseFlag:
		return !account.HasFirstPurchase
	default:
		return account.TotalPointsEarned == s.catalog.WelcomePoints()
	}
}
