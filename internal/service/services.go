package service

import (
	"time"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/lock"
	"healthloop/internal/model"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 全部业务服务，由 main 组装后交给 handler 与后台任务
type Services struct {
	Leaderboard *LeaderboardService
	Ledger      *LedgerService
	Actions     *ActionService
	Accounts    *AccountService
	Products    *ProductService
	Carts       *CartService
	Checkout    *CheckoutService
	Orders      *OrderService
}

// NewLocker 启用 redis 时使用分布式锁，否则使用进程内锁
func NewLocker(rdb *redis.Client, cfg *config.Config) lock.Locker {
	if rdb == nil {
		return lock.NewLocalLocker()
	}
	return lock.NewRedisLocker(rdb, time.Duration(cfg.Business.LockTTLSeconds)*time.Second)
}

func NewServices(db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *zap.Logger) *Services {
	locker := NewLocker(rdb, cfg)
	catalog := model.DefaultCatalog()

	leaderboard := NewLeaderboardService(db, rdb, log)
	ledger := NewLedgerService(db, locker, leaderboard, cfg, log)
	actions := NewActionService(db, locker, ledger, catalog, log)

	return &Services{
		Leaderboard: leaderboard,
		Ledger:      ledger,
		Actions:     actions,
		Accounts:    NewAccountService(db, actions, ledger, log),
		Products:    NewProductService(db),
		Carts:       NewCartService(db, locker, log),
		Checkout:    NewCheckoutService(db, locker, ledger, catalog, cfg, log),
		Orders:      NewOrderService(db),
	}
}
