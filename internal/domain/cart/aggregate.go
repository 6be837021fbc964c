package cart

import (
	"errors"
	"strings"

	"github.com/example/storefront/internal/money"
)

var (
	ErrInvalidCartItem = errors.New("product id and a positive quantity are required")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrItemNotFound    = errors.New("item not in cart")
)

const MaxQuantity = 99

// Line is a stored cart row, unpriced.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (l Line) Validate() error {
	if strings.TrimSpace(l.ProductID) == "" || l.Quantity <= 0 || l.Quantity > MaxQuantity {
		return ErrInvalidCartItem
	}
	return nil
}

// CartItem is a line priced from the current catalog.
type CartItem struct {
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName"`
	UnitPrice   money.Amount `json:"unitPrice"`
	Quantity    int          `json:"quantity"`
	Subtotal    money.Amount `json:"subtotal"`
	InStock     bool         `json:"inStock"`
}

type Cart struct {
	UserID string       `json:"userId"`
	Items  []CartItem   `json:"items"`
	Total  money.Amount `json:"total"`
}

func New(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

func (c *Cart) Add(item CartItem) {
	item.Subtotal = item.UnitPrice.Mul(item.Quantity)
	c.Items = append(c.Items, item)
	c.Total += item.Subtotal
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
