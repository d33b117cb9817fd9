package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderCancelled     EventType = "order.cancelled"
)

// OrderEvent is published after a change has been accepted by the order store.
type OrderEvent struct {
	Type       EventType        `json:"type"`
	OrderID    ID               `json:"order_id"`
	UserID     ID               `json:"user_id"`
	Status     Status           `json:"status,omitempty"`
	TotalPrice *decimal.Decimal `json:"total_price,omitempty"`
	RequestID  string           `json:"request_id,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
