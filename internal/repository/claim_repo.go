package repository

import (
	"context"
	"errors"

	"healthloop/internal/model"

	"gorm.io/gorm"
)

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Exists 在事务内查询，调用方已持有账户锁
func (r *ClaimRepository) Exists(ctx context.Context, tx *gorm.DB, accountID, claimKey string) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var claim model.ActionClaim
	err := tx.WithContext(ctx).
		Where("account_id = ? AND claim_key = ?", accountID, claimKey).
		First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create 唯一索引 (account_id, claim_key) 兜底，并发重复领取时插入失败
func (r *ClaimRepository) Create(ctx context.Context, tx *gorm.DB, claim *model.ActionClaim) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(claim).Error
}

func (r *ClaimRepository) ListByAccount(ctx context.Context, accountID string) ([]*model.ActionClaim, error) {
	var claims []*model.ActionClaim
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&claims).Error
	return claims, err
}
