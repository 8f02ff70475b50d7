package model

import (
	"time"
)

// LedgerEntry 积分流水表
// 只追加，不修改，不删除；同一账户所有流水 points 之和等于 total_points_earned
type LedgerEntry struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryNo      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"entry_no"`
	AccountID    string    `gorm:"type:varchar(36);index:idx_ledger_account_created,priority:1;not null" json:"account_id"`
	ActionCode   string    `gorm:"type:varchar(64);index;not null" json:"action"`
	ClaimKey     string    `gorm:"type:varchar(160);not null" json:"claim_key"`
	Points       int64     `gorm:"not null" json:"points"`
	PointsBefore int64     `gorm:"not null" json:"points_before"`
	PointsAfter  int64     `gorm:"not null" json:"points_after"`
	Description  string    `gorm:"type:varchar(256)" json:"description"`
	OrderNo      string    `gorm:"type:varchar(64);index" json:"order_no,omitempty"`
	GrantedBy    string    `gorm:"type:varchar(36);index" json:"granted_by,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_ledger_account_created,priority:2" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entry"
}

// ActionClaim 一次性动作的领取记录，(account_id, claim_key) 唯一
type ActionClaim struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID string    `gorm:"type:varchar(36);uniqueIndex:ux_claim_account_key,priority:1;not null" json:"account_id"`
	ClaimKey  string    `gorm:"type:varchar(160);uniqueIndex:ux_claim_account_key,priority:2;not null" json:"claim_key"`
	EntryNo   string    `gorm:"type:varchar(64);not null" json:"entry_no"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ActionClaim) TableName() string {
	return "action_claim"
}
