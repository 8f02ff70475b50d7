package repository

import (
	"context"
	"errors"

	"healthloop/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound = errors.New("账户不存在")
	ErrOptimisticLock  = errors.New("乐观锁冲突，请重试")
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*model.Account, error) {
	if tx == nil {
		tx = r.db
	}
	var account model.Account
	err := tx.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDForUpdate 行锁读取，sqlite 下忽略 FOR UPDATE，由上层的账户锁保证串行
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*model.Account, error) {
	var account model.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// AddPoints 可用积分与累计积分同时增加，version 作为乐观锁兜底
func (r *AccountRepository) AddPoints(ctx context.Context, tx *gorm.DB, id string, points int64, version int) error {
	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"points":              gorm.Expr("points + ?", points),
			"total_points_earned": gorm.Expr("total_points_earned + ?", points),
			"version":             gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

func (r *AccountRepository) MarkFirstPurchase(ctx context.Context, tx *gorm.DB, id string) error {
	return tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Update("has_first_purchase", true).Error
}

// ListTop 按累计积分倒序，积分相同先注册者在前
func (r *AccountRepository) ListTop(ctx context.Context, limit int) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Order("total_points_earned DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

// CountAbove 累计积分严格大于 total 的账户数，用于计算排名
func (r *AccountRepository) CountAbove(ctx context.Context, total int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("total_points_earned > ?", total).
		Count(&n).Error
	return n, err
}

func (r *AccountRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Account, error) {
	var accounts []*model.Account
	if len(ids) == 0 {
		return map[string]*model.Account{}, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*model.Account, len(accounts))
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out, nil
}

// Scan 分批遍历全部账户，fn 返回错误时中止
func (r *AccountRepository) Scan(ctx context.Context, batchSize int, fn func([]*model.Account) error) error {
	var batch []*model.Account
	return r.db.WithContext(ctx).
		Model(&model.Account{}).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
