package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DietKeto          = "keto"
	DietMediterranean = "mediterranean"
	DietVegan         = "vegan"
	DietHealthy       = "healthy"
)

func ValidDietType(t string) bool {
	switch t {
	case DietKeto, DietMediterranean, DietVegan, DietHealthy:
		return true
	}
	return false
}

// Product 餐品，由商品目录维护，积分引擎只读
type Product struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(128);not null" json:"name"`
	Description string          `gorm:"type:varchar(512)" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	DietType    string          `gorm:"type:varchar(20);index;not null" json:"diet_type"`
	ImageURL    string          `gorm:"type:varchar(512)" json:"image_url"`
	Calories    int             `gorm:"not null;default:0" json:"calories"`
	Ingredients []string        `gorm:"serializer:json" json:"ingredients"`
	Allergens   []string        `gorm:"serializer:json" json:"allergens"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Product) TableName() string {
	return "product"
}
