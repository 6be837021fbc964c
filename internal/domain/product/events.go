package product

import (
	"time"

	"github.com/example/storefront/internal/money"
)

const EventProductCreated = "product.created"

type ProductCreated struct {
	ProductID string       `json:"productId"`
	Name      string       `json:"name"`
	Category  string       `json:"category,omitempty"`
	Price     money.Amount `json:"price"`
	Stock     int          `json:"stock"`
	CreatedAt time.Time    `json:"createdAt"`
}
