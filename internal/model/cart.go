package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart 购物车，每个账户一个，首次访问时创建
type Cart struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"account_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Cart) TableName() string {
	return "cart"
}

// CartItem 购物车行，同一商品只占一行，按 ID 保持加入顺序
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	CartID    string    `gorm:"type:varchar(36);uniqueIndex:ux_cart_product,priority:1;not null" json:"-"`
	ProductID string    `gorm:"type:varchar(36);uniqueIndex:ux_cart_product,priority:2;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (CartItem) TableName() string {
	return "cart_item"
}

// CartLine 带商品详情的购物车行
type CartLine struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartView 购物车视图
type CartView struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (v CartView) Empty() bool {
	return len(v.Items) == 0
}

// Subtotal 单行小计 = 单价 × 数量
func Subtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
