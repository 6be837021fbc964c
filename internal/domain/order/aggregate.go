package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/internal/money"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// DefaultCancelReason is recorded when the customer gives no reason.
const DefaultCancelReason = "用户取消"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrderID    = errors.New("order id is required")
	ErrEmptyOrder        = errors.New("order must have at least one item")
	ErrInvalidQuantity   = errors.New("item quantity must be positive")
	ErrNotCancellable    = errors.New("order cannot be cancelled in its current status")
	ErrOrderAlreadyPaid  = errors.New("order is already paid")
	ErrOrderNotPayable   = errors.New("order cannot be paid in its current status")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrUpdateFailed      = errors.New("failed to update order")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
	StatusRefunded:   {}, // terminal state
}

// fulfilmentStatuses are the targets an administrator may set directly.
var fulfilmentStatuses = map[Status]bool{
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
}

func ParseStatus(s string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	_, ok := validTransitions[status]
	return status, ok
}

type OrderItem struct {
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unitPrice"`
}

func (i OrderItem) Subtotal() money.Amount {
	return i.UnitPrice.Mul(i.Quantity)
}

type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Total         money.Amount  `json:"total"`
	Items         []OrderItem   `json:"items"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	CancelledAt   *time.Time    `json:"cancelledAt,omitempty"`
	CancelReason  string        `json:"cancelReason,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// New builds a pending order whose total is the sum of the item subtotals.
func New(id, userID string, items []OrderItem, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	var total money.Amount
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total += item.Subtotal()
	}

	return &Order{
		ID:            id,
		UserID:        userID,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Total:         total,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

func (o *Order) IsOwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}

// Cancel moves the order to cancelled and reports whether the captured
// payment has to be refunded.
func (o *Order) Cancel(reason string, now time.Time) (bool, error) {
	if !o.CanTransitionTo(StatusCancelled) {
		return false, ErrNotCancellable
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}

	refundRequired := o.PaymentStatus == PaymentPaid
	o.Status = StatusCancelled
	if refundRequired {
		o.PaymentStatus = PaymentRefunded
	}
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	return refundRequired, nil
}

// CheckPayable reports why the order cannot take a payment, if anything.
func (o *Order) CheckPayable() error {
	if o.PaymentStatus == PaymentPaid {
		return ErrOrderAlreadyPaid
	}
	if !o.CanTransitionTo(StatusPaid) {
		return ErrOrderNotPayable
	}
	return nil
}

func (o *Order) MarkPaid(method, transactionID string, now time.Time) error {
	if err := o.CheckPayable(); err != nil {
		return err
	}
	o.Status = StatusPaid
	o.PaymentStatus = PaymentPaid
	o.PaymentMethod = method
	o.TransactionID = transactionID
	o.PaidAt = &now
	o.UpdatedAt = now
	return nil
}

// AdvanceTo moves a paid order along the fulfilment path.
func (o *Order) AdvanceTo(target Status, now time.Time) error {
	if !fulfilmentStatuses[target] || !o.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}
