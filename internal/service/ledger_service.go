package service

import (
	"context"
	"fmt"
	"strings"

	"healthloop/internal/config"
	"healthloop/internal/infrastructure/lock"
	"healthloop/internal/infrastructure/metrics"
	"healthloop/internal/model"
	"healthloop/internal/repository"
	"healthloop/pkg/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxHistoryLimit = 100

// LedgerService 积分账本：所有积分变动都经由 post 写入流水并更新账户
type LedgerService struct {
	db          *gorm.DB
	locker      lock.Locker
	leaderboard *LeaderboardService
	cfg         *config.Config
	log         *zap.Logger
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	outboxRepo  *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, locker lock.Locker, leaderboard *LeaderboardService, cfg *config.Config, log *zap.Logger) *LedgerService {
	return &LedgerService{
		db:          db,
		locker:      locker,
		leaderboard: leaderboard,
		cfg:         cfg,
		log:         log.Named("ledger"),
		accountRepo: repository.NewAccountRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

// PostRequest 一次积分入账
type PostRequest struct {
	AccountID   string
	ActionCode  string
	ClaimKey    string
	Points      int64
	Description string
	OrderNo     string
	GrantedBy   string
}

// Balance 账户积分与等级
type Balance struct {
	AccountID          string  `json:"account_id"`
	Points             int64   `json:"points"`
	TotalPointsEarned  int64   `json:"total_points_earned"`
	Level              string  `json:"level"`
	ProgressPercentage float64 `json:"progress_percentage"`
	NextLevel          string  `json:"next_level,omitempty"`
	NextThreshold      int64   `json:"next_threshold,omitempty"`
	MaxLevel           bool    `json:"max_level"`
}

// BalanceOf 等级由累计积分推导，不读取任何存储字段
func BalanceOf(account *model.Account) *Balance {
	progress := model.ProgressFor(account.TotalPointsEarned)
	b := &Balance{
		AccountID:          account.ID,
		Points:             account.Points,
		TotalPointsEarned:  account.TotalPointsEarned,
		Level:              progress.Current.Name,
		ProgressPercentage: progress.ProgressPercentage,
		MaxLevel:           progress.MaxLevel(),
	}
	if progress.Next != nil {
		b.NextLevel = progress.Next.Name
		b.NextThreshold = progress.Next.Threshold
	}
	return b
}

// Post 直接入账，不做动作去重；动作奖励请走 ActionService.Award
func (s *LedgerService) Post(ctx context.Context, accountID, actionCode string, points int64, description string) (*model.LedgerEntry, error) {
	if points <= 0 {
		return nil, ErrInvalidAmount
	}
	actionCode = strings.TrimSpace(actionCode)
	if actionCode == "" {
		return nil, fmt.Errorf("%w: action 不能为空", ErrInvalidAction)
	}

	var (
		entry   *model.LedgerEntry
		account *model.Account
	)
	err := withLocks(ctx, s.locker, []string{lock.AccountLockKey(accountID)}, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			entry, account, err = s.post(ctx, tx, PostRequest{
				AccountID:   accountID,
				ActionCode:  actionCode,
				ClaimKey:    actionCode,
				Points:      points,
				Description: description,
			})
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, entry, account)
	return entry, nil
}

// post 在调用方的事务内入账，调用方必须已持有该账户的锁
func (s *LedgerService) post(ctx context.Context, tx *gorm.DB, req PostRequest) (*model.LedgerEntry, *model.Account, error) {
	if req.Points <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.accountRepo.AddPoints(ctx, tx, account.ID, req.Points, account.Version); err != nil {
		return nil, nil, fmt.Errorf("更新账户积分失败: %w", err)
	}

	claimKey := req.ClaimKey
	if claimKey == "" {
		claimKey = req.ActionCode
	}
	entry := &model.LedgerEntry{
		EntryNo:      idgen.GenerateEntryNo(),
		AccountID:    account.ID,
		ActionCode:   req.ActionCode,
		ClaimKey:     claimKey,
		Points:       req.Points,
		PointsBefore: account.Points,
		PointsAfter:  account.Points + req.Points,
		Description:  req.Description,
		OrderNo:      req.OrderNo,
		GrantedBy:    req.GrantedBy,
	}
	if err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, nil, fmt.Errorf("记录积分流水失败: %w", err)
	}

	account.Points += req.Points
	account.TotalPointsEarned += req.Points
	account.Version++

	msg, err := model.NewOutboxMessage(s.cfg.Kafka.Topic.PointsAwarded, model.EventPointsAwarded, account.ID, model.PointsAwardedEvent{
		EntryNo:           entry.EntryNo,
		AccountID:         account.ID,
		Action:            entry.ClaimKey,
		Points:            entry.Points,
		TotalPointsEarned: account.TotalPointsEarned,
		Level:             model.LevelFor(account.TotalPointsEarned).Name,
		OrderNo:           entry.OrderNo,
		OccurredAt:        entry.CreatedAt,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("序列化积分事件失败: %w", err)
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return nil, nil, fmt.Errorf("写入消息失败: %w", err)
	}

	return entry, account, nil
}

// afterCommit 事务提交后的旁路更新，失败只记日志，排行榜由同步任务兜底
func (s *LedgerService) afterCommit(ctx context.Context, entry *model.LedgerEntry, account *model.Account) {
	metrics.PointsAwardedTotal.WithLabelValues(entry.ActionCode).Add(float64(entry.Points))

	s.log.Info("积分入账",
		zap.String("entry_no", entry.EntryNo),
		zap.String("account_id", account.ID),
		zap.String("claim_key", entry.ClaimKey),
		zap.Int64("points", entry.Points),
		zap.Int64("total_points_earned", account.TotalPointsEarned),
	)

	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.Update(context.WithoutCancel(ctx), account.ID, account.TotalPointsEarned); err != nil {
		s.log.Warn("更新排行榜失败", zap.String("account_id", account.ID), zap.Error(err))
	}
}

// History 最近的积分流水，最新的在前
func (s *LedgerService) History(ctx context.Context, accountID string, limit int) ([]*model.LedgerEntry, error) {
	if _, err := s.accountRepo.GetByID(ctx, nil, accountID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.Business.HistoryDefaultLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.ledgerRepo.ListByAccount(ctx, accountID, limit)
}

func (s *LedgerService) Balance(ctx context.Context, accountID string) (*Balance, error) {
	account, err := s.accountRepo.GetByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	return BalanceOf(account), nil
}

// Reconcile 校验流水合计与账户累计积分是否一致
func (s *LedgerService) Reconcile(ctx context.Context, accountID string) (bool, error) {
	account, err := s.accountRepo.GetByID(ctx, nil, accountID)
	if err != nil {
		return false, err
	}
	sum, err := s.ledgerRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	return sum == account.TotalPointsEarned && account.Points <= account.TotalPointsEarned, nil
}
