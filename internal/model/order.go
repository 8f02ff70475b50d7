package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order 订单，结算时由购物车生成的不可变快照
type Order struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderNo            string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	RequestID          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_id"`
	AccountID          string          `gorm:"type:varchar(36);index;not null" json:"account_id"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PointsFromPurchase int64           `gorm:"not null" json:"points_from_purchase"`
	FirstPurchaseBonus int64           `gorm:"not null;default:0" json:"first_purchase_bonus"`
	PointsAwarded      int64           `gorm:"not null" json:"points_awarded"`
	Status             string          `gorm:"type:varchar(20);not null" json:"status"`
	Items              []OrderItem     `gorm:"foreignKey:OrderNo;references:OrderNo" json:"items"`
	CreatedAt          time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单行，保存下单时的商品名称与单价
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderNo     string          `gorm:"type:varchar(64);index;not null" json:"-"`
	ProductID   string          `gorm:"type:varchar(36);not null" json:"product_id"`
	ProductName string          `gorm:"type:varchar(128);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

func (OrderItem) TableName() string {
	return "order_item"
}

// PurchasePoints 订单返积分 = round(total × rate)
func PurchasePoints(total decimal.Decimal, rate int64) int64 {
	return total.Mul(decimal.NewFromInt(rate)).Round(0).IntPart()
}
