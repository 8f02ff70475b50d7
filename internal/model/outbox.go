package model

import (
	"encoding/json"
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

const (
	EventPointsAwarded = "points.awarded"
	EventOrderPlaced   = "order.placed"
)

// OutboxMessage 本地消息表，与业务数据同事务写入，由 OutboxSender 异步投递
type OutboxMessage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"message_key"`
	EventType  string    `gorm:"type:varchar(32);not null" json:"event_type"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}

// PointsAwardedEvent 积分入账事件
type PointsAwardedEvent struct {
	EntryNo           string    `json:"entry_no"`
	AccountID         string    `json:"account_id"`
	Action            string    `json:"action"`
	Points            int64     `json:"points"`
	TotalPointsEarned int64     `json:"total_points_earned"`
	Level             string    `json:"level"`
	OrderNo           string    `json:"order_no,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// OrderPlacedEvent 下单事件
type OrderPlacedEvent struct {
	OrderNo       string    `json:"order_no"`
	AccountID     string    `json:"account_id"`
	TotalAmount   string    `json:"total_amount"`
	PointsAwarded int64     `json:"points_awarded"`
	ItemCount     int       `json:"item_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewOutboxMessage 序列化事件并构造待发送消息
func NewOutboxMessage(topic, eventType, key string, event any) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		MessageKey: key,
		EventType:  eventType,
		Topic:      topic,
		Payload:    string(payload),
		Status:     OutboxStatusPending,
	}, nil
}
