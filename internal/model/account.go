package model

import (
	"time"
)

const (
	RoleClient       = "client"
	RoleProfessional = "professional"
)

// Account 用户积分账户
// points 为可用积分，total_points_earned 为累计获得积分（只增不减），
// 等级不落库，始终由 total_points_earned 推导
type Account struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email             string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Name              string    `gorm:"type:varchar(128);not null" json:"name"`
	Role              string    `gorm:"type:varchar(20);not null;default:client" json:"role"`
	Points            int64     `gorm:"not null;default:0" json:"points"`
	TotalPointsEarned int64     `gorm:"not null;default:0;index" json:"total_points_earned"`
	HasFirstPurchase  bool      `gorm:"not null;default:false" json:"has_first_purchase"`
	Version           int       `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}

func (a *Account) IsProfessional() bool {
	return a.Role == RoleProfessional
}

func ValidRole(role string) bool {
	return role == RoleClient || role == RoleProfessional
}
