package repository

import (
	"context"
	"errors"

	"healthloop/internal/model"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.LedgerEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// ListByAccount 最近的流水在前
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*model.LedgerEntry, error) {
	var entries []*model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// SumByAccount 流水合计，对账用
func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Count(&n).Error
	return n, err
}

func (r *LedgerRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListGrantedBy 某位专业人员发放的流水
func (r *LedgerRepository) ListGrantedBy(ctx context.Context, professionalID string, limit int) ([]*model.LedgerEntry, int64, error) {
	var (
		entries []*model.LedgerEntry
		total   int64
	)
	query := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("granted_by = ?", professionalID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
