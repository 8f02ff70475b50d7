package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"healthloop/internal/model"
	"healthloop/internal/repository"
	"healthloop/pkg/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dashboardRecentSize = 5

type AccountService struct {
	db          *gorm.DB
	actions     *ActionService
	ledger      *LedgerService
	log         *zap.Logger
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	orderRepo   *repository.OrderRepository
}

func NewAccountService(db *gorm.DB, actions *ActionService, ledger *LedgerService, log *zap.Logger) *AccountService {
	return &AccountService{
		db:          db,
		actions:     actions,
		ledger:      ledger,
		log:         log.Named("account"),
		accountRepo: repository.NewAccountRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
	}
}

type RegisterRequest struct {
	Email string
	Name  string
	Role  string
}

type RegisterResult struct {
	Account *model.Account     `json:"account"`
	Welcome *model.LedgerEntry `json:"welcome"`
	Balance *Balance           `json:"balance"`
}

// Register 创建账户，注册奖励作为第一条流水在同一事务内入账
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("邮箱格式不正确: %w", err)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("姓名不能为空")
	}
	role := req.Role
	if role == "" {
		role = model.RoleClient
	}
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	_, err := s.accountRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	def, claimKey, err := s.actions.Catalog().Resolve(model.ActionWelcome)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:    idgen.NewUUID(),
		Email: email,
		Name:  name,
		Role:  role,
	}
	var welcome *model.LedgerEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Create(ctx, tx, account); err != nil {
			if isDuplicateKey(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("创建账户失败: %w", err)
		}
		var err error
		welcome, account, err = s.actions.claim(ctx, tx, account.ID, def, claimKey, def.Description, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.afterCommit(ctx, welcome, account)
	s.log.Info("账户注册成功", zap.String("account_id", account.ID), zap.String("role", account.Role))

	return &RegisterResult{
		Account: account,
		Welcome: welcome,
		Balance: BalanceOf(account),
	}, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	return s.accountRepo.GetByID(ctx, nil, accountID)
}

// ClientDashboard 客户首页：资料、积分等级、最近动态与订单
type ClientDashboard struct {
	Account        *model.Account       `json:"account"`
	Balance        *Balance             `json:"balance"`
	RecentActivity []*model.LedgerEntry `json:"recent_activity"`
	RecentOrders   []*model.Order       `json:"recent_orders"`
	TotalOrders    int64                `json:"total_orders"`
}

func (s *AccountService) ClientDashboard(ctx context.Context, accountID string) (*ClientDashboard, error) {
	account, err := s.accountRepo.GetByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	activity, err := s.ledgerRepo.ListByAccount(ctx, accountID, dashboardRecentSize)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orderRepo.ListByAccount(ctx, accountID, 1, dashboardRecentSize)
	if err != nil {
		return nil, err
	}
	return &ClientDashboard{
		Account:        account,
		Balance:        BalanceOf(account),
		RecentActivity: activity,
		RecentOrders:   orders,
		TotalOrders:    total,
	}, nil
}

// ProfessionalDashboard 专业人员首页：已发放的咨询奖励
type ProfessionalDashboard struct {
	Account              *model.Account       `json:"account"`
	ConsultationsGranted int64                `json:"consultations_granted"`
	RecentGrants         []*model.LedgerEntry `json:"recent_grants"`
}

func (s *AccountService) ProfessionalDashboard(ctx context.Context, accountID string) (*ProfessionalDashboard, error) {
	account, err := s.accountRepo.GetByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsProfessional() {
		return nil, ErrNotProfessional
	}
	grants, total, err := s.ledgerRepo.ListGrantedBy(ctx, accountID, dashboardRecentSize)
	if err != nil {
		return nil, err
	}
	return &ProfessionalDashboard{
		Account:              account,
		ConsultationsGranted: total,
		RecentGrants:         grants,
	}, nil
}
