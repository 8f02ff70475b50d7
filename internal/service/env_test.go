package service

import (
	"context"
	"testing"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/database/dbtest"
	"healthloop/internal/infrastructure/lock"
	"healthloop/internal/model"
	"healthloop/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	leaderboard *LeaderboardService
	ledger      *LedgerService
	actions     *ActionService
	accounts    *AccountService
	carts       *CartService
	checkout    *CheckoutService
	orders      *OrderService
	products    *ProductService
}

func newTestEnv(t *testing.T, rdb *redis.Client, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Default()
	for _, opt := range opts {
		opt(cfg)
	}

	db := dbtest.New(t)
	log := zap.NewNop()
	locker := lock.NewLocalLocker()
	catalog := model.DefaultCatalog()

	board := NewLeaderboardService(db, rdb, log)
	ledger := NewLedgerService(db, locker, board, cfg, log)
	actions := NewActionService(db, locker, ledger, catalog, log)
	return &testEnv{
		db:          db,
		cfg:         cfg,
		leaderboard: board,
		ledger:      ledger,
		actions:     actions,
		accounts:    NewAccountService(db, actions, ledger, log),
		carts:       NewCartService(db, locker, log),
		checkout:    NewCheckoutService(db, locker, ledger, catalog, cfg, log),
		orders:      NewOrderService(db),
		products:    NewProductService(db),
	}
}

func (e *testEnv) register(t *testing.T, name, role string) *model.Account {
	t.Helper()
	res, err := e.accounts.Register(context.Background(), RegisterRequest{
		Email: name + "@example.com",
		Name:  name,
		Role:  role,
	})
	require.NoError(t, err)
	return res.Account
}

func (e *testEnv) product(t *testing.T, name, price string) *model.Product {
	t.Helper()
	p := &model.Product{
		ID:       idgen.NewUUID(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		DietType: model.DietHealthy,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) entryCount(t *testing.T, accountID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.LedgerEntry{}).Where("account_id = ?", accountID).Count(&n).Error)
	return n
}
