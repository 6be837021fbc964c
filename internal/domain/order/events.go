package order

import (
	"time"

	"github.com/example/storefront/internal/money"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderPlaced struct {
	OrderID   string       `json:"orderId"`
	UserID    string       `json:"userId"`
	UserEmail string       `json:"userEmail"`
	UserName  string       `json:"userName"`
	Items     []OrderItem  `json:"items"`
	Total     money.Amount `json:"total"`
	PlacedAt  time.Time    `json:"placedAt"`
}

type OrderCancelled struct {
	OrderID        string       `json:"orderId"`
	UserID         string       `json:"userId"`
	UserEmail      string       `json:"userEmail"`
	UserName       string       `json:"userName"`
	Reason         string       `json:"reason"`
	RefundRequired bool         `json:"refundRequired"`
	RefundAmount   money.Amount `json:"refundAmount"`
	CancelledAt    time.Time    `json:"cancelledAt"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	UserName  string    `json:"userName"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}
