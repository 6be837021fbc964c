package command

import (
	"strings"
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/money"
)

// Auth Commands
type Register struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePassword struct {
	UserID          string `json:"-"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Product Commands
type CreateProduct struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Price       money.Amount `json:"price"`
	Stock       int          `json:"stock"`
	ImageURL    string       `json:"imageUrl"`
}

// Cart Commands
type AddToCart struct {
	UserID    string `json:"-"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string
	ProductID string
}

// Order Commands
type PlaceOrder struct {
	UserID string
}

type CancelOrder struct {
	OrderID string `json:"-"`
	UserID  string `json:"-"`
	Reason  string `json:"reason"`
}

// Validate reports a missing order id before a missing caller.
func (c CancelOrder) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return order.ErrInvalidOrderID
	}
	if c.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}

type AdvanceOrder struct {
	OrderID string `json:"-"`
	Status  string `json:"status"`
}

// Payment Commands
type CreatePayment struct {
	UserID        string        `json:"-"`
	OrderID       string        `json:"orderId"`
	PaymentMethod string        `json:"paymentMethod"`
	Amount        *money.Amount `json:"amount"`
}

// ConfirmPayment is issued either by the order owner or by a payment
// provider webhook whose signature the caller has already verified.
type ConfirmPayment struct {
	UserID        string        `json:"-"`
	Webhook       bool          `json:"-"`
	OrderID       string        `json:"orderId"`
	PaymentMethod string        `json:"paymentMethod"`
	TransactionID string        `json:"transactionId"`
	Amount        *money.Amount `json:"amount"`
}

// Results

type CancelResult struct {
	OrderID        string       `json:"orderId"`
	Status         order.Status `json:"status"`
	RefundRequired bool         `json:"refundRequired"`
	CancelledAt    time.Time    `json:"cancelledAt"`
}

type ConfirmResult struct {
	OrderID       string              `json:"orderId"`
	PaymentStatus order.PaymentStatus `json:"paymentStatus"`
	TransactionID string              `json:"transactionId,omitempty"`
	ConfirmedAt   time.Time           `json:"confirmedAt"`
}
