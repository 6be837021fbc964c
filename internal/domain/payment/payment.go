package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/internal/money"
	"github.com/google/uuid"
)

type Method string

const (
	MethodAlipay       Method = "alipay"
	MethodWechat       Method = "wechat"
	MethodBankTransfer Method = "bank_transfer"
)

type RecordStatus string

const (
	RecordCompleted RecordStatus = "completed"
	RecordRefunded  RecordStatus = "refunded"
)

var (
	ErrInvalidPaymentData = errors.New("invalid payment data")
	ErrUnsupportedMethod  = errors.New("unsupported payment method")
	ErrAmountMismatch     = errors.New("payment amount does not match order total")
	ErrLedgerWrite        = errors.New("failed to write payment record")
)

var supportedMethods = map[Method]bool{
	MethodAlipay:       true,
	MethodWechat:       true,
	MethodBankTransfer: true,
}

func (m Method) IsSupported() bool {
	return supportedMethods[m]
}

// Record is an append-only ledger entry. Payments carry a positive amount,
// refunds a negative one.
type Record struct {
	ID            string       `json:"id"`
	OrderID       string       `json:"orderId"`
	Amount        money.Amount `json:"amount"`
	Status        RecordStatus `json:"status"`
	Method        Method       `json:"method,omitempty"`
	TransactionID string       `json:"transactionId,omitempty"`
	Note          string       `json:"note,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

func NewPaymentRecord(orderID string, total money.Amount, method Method, transactionID string, now time.Time) Record {
	return Record{
		ID:            uuid.New().String(),
		OrderID:       orderID,
		Amount:        total,
		Status:        RecordCompleted,
		Method:        method,
		TransactionID: transactionID,
		Note:          "payment confirmed",
		CreatedAt:     now,
	}
}

func NewRefundRecord(orderID string, total money.Amount, method Method, reason string, now time.Time) Record {
	return Record{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Amount:    total.Neg(),
		Status:    RecordRefunded,
		Method:    method,
		Note:      fmt.Sprintf("订单取消退款: %s", reason),
		CreatedAt: now,
	}
}

// CheckAmount compares a client supplied amount with the order total.
func CheckAmount(supplied, total money.Amount) error {
	if supplied != total {
		return fmt.Errorf("%w: expected %s, got %s", ErrAmountMismatch, total, supplied)
	}
	return nil
}

func NormalizeMethod(s string) Method {
	return Method(strings.ToLower(strings.TrimSpace(s)))
}
