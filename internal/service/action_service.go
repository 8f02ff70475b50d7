package service

import (
	"context"
	"errors"
	"fmt"

	"healthloop/internal/infrastructure/lock"
	"healthloop/internal/infrastructure/metrics"
	"healthloop/internal/model"
	"healthloop/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActionService 按动作目录发放积分，负责一次性动作的去重
type ActionService struct {
	db          *gorm.DB
	locker      lock.Locker
	ledger      *LedgerService
	catalog     *model.Catalog
	log         *zap.Logger
	accountRepo *repository.AccountRepository
	claimRepo   *repository.ClaimRepository
}

func NewActionService(db *gorm.DB, locker lock.Locker, ledger *LedgerService, catalog *model.Catalog, log *zap.Logger) *ActionService {
	return &ActionService{
		db:          db,
		locker:      locker,
		ledger:      ledger,
		catalog:     catalog,
		log:         log.Named("action"),
		accountRepo: repository.NewAccountRepository(db),
		claimRepo:   repository.NewClaimRepository(db),
	}
}

func (s *ActionService) Catalog() *model.Catalog {
	return s.catalog
}

// Award 领取动作奖励，action 形如 "complete_profile" 或 "complete_video:video-3"
func (s *ActionService) Award(ctx context.Context, accountID, action, description string) (*model.LedgerEntry, error) {
	def, claimKey, err := s.catalog.Resolve(action)
	if err != nil {
		return nil, err
	}
	if def.Variable {
		return nil, fmt.Errorf("%w: %s 不能直接领取", ErrInvalidAction, def.Code)
	}
	if def.ProfessionalGranted {
		return nil, fmt.Errorf("%w: %s", ErrNotProfessional, def.Code)
	}

	return s.award(ctx, accountID, def, claimKey, description, "")
}

// EnsureAwarded 已领取视为成功，awarded 表示本次是否新发放
func (s *ActionService) EnsureAwarded(ctx context.Context, accountID, action, description string) (entry *model.LedgerEntry, awarded bool, err error) {
	entry, err = s.Award(ctx, accountID, action, description)
	if errors.Is(err, ErrAlreadyClaimed) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// GrantConsultation 专业人员为客户发放完成咨询奖励
func (s *ActionService) GrantConsultation(ctx context.Context, professionalID, clientID, description string) (*model.LedgerEntry, error) {
	professional, err := s.accountRepo.GetByID(ctx, nil, professionalID)
	if err != nil {
		return nil, err
	}
	if !professional.IsProfessional() {
		return nil, ErrNotProfessional
	}
	if professionalID == clientID {
		return nil, fmt.Errorf("%w: 不能给自己发放咨询奖励", ErrInvalidAction)
	}

	def, claimKey, err := s.catalog.Resolve(model.ActionCompleteConsultation)
	if err != nil {
		return nil, err
	}
	if description == "" {
		description = def.Description
	}
	return s.award(ctx, clientID, def, claimKey, description, professionalID)
}

func (s *ActionService) award(ctx context.Context, accountID string, def model.ActionDefinition, claimKey, description, grantedBy string) (*model.LedgerEntry, error) {
	if description == "" {
		description = def.Description
	}

	var (
		entry   *model.LedgerEntry
		account *model.Account
	)
	err := withLocks(ctx, s.locker, []string{lock.AccountLockKey(accountID)}, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			entry, account, err = s.claim(ctx, tx, accountID, def, claimKey, description, grantedBy)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			metrics.ClaimsRejectedTotal.WithLabelValues(def.Code).Inc()
		}
		return nil, err
	}

	s.ledger.afterCommit(ctx, entry, account)
	return entry, nil
}

// claim 在事务内检查领取记录、入账并写入领取记录，调用方持有账户锁
func (s *ActionService) claim(ctx context.Context, tx *gorm.DB, accountID string, def model.ActionDefinition, claimKey, description, grantedBy string) (*model.LedgerEntry, *model.Account, error) {
	repeatable := def.Policy == model.PolicyUnlimited

	if !repeatable {
		// 先确认账户存在，未知账户返回 ErrAccountNotFound 而不是唯一键冲突
		if _, err := s.accountRepo.GetByID(ctx, tx, accountID); err != nil {
			return nil, nil, err
		}
		exists, err := s.claimRepo.Exists(ctx, tx, accountID, claimKey)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyClaimed, claimKey)
		}
	}

	entry, account, err := s.ledger.post(ctx, tx, PostRequest{
		AccountID:   accountID,
		ActionCode:  def.Code,
		ClaimKey:    claimKey,
		Points:      def.Points,
		Description: description,
		GrantedBy:   grantedBy,
	})
	if err != nil {
		return nil, nil, err
	}

	if !repeatable {
		if err := s.claimRepo.Create(ctx, tx, &model.ActionClaim{
			AccountID: accountID,
			ClaimKey:  claimKey,
			EntryNo:   entry.EntryNo,
		}); err != nil {
			if isDuplicateKey(err) {
				return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyClaimed, claimKey)
			}
			return nil, nil, fmt.Errorf("记录领取失败: %w", err)
		}
	}
	return entry, account, nil
}
