package payment

import (
	"time"

	"github.com/example/storefront/internal/money"
)

const EventPaymentConfirmed = "payment.confirmed"

type PaymentConfirmed struct {
	OrderID       string       `json:"orderId"`
	UserID        string       `json:"userId"`
	UserEmail     string       `json:"userEmail"`
	UserName      string       `json:"userName"`
	Method        Method       `json:"method"`
	TransactionID string       `json:"transactionId,omitempty"`
	Amount        money.Amount `json:"amount"`
	ConfirmedAt   time.Time    `json:"confirmedAt"`
}
