package query

import (
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
)

// OrderDetail is an order together with its payment ledger.
type OrderDetail struct {
	order.Order
	Payments []payment.Record `json:"payments"`
}
