package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/internal/money"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidPrice      = errors.New("price must be positive and at most 100,000,000.00")
	ErrInvalidName       = errors.New("name is required")
	ErrInvalidStock      = errors.New("stock cannot be negative")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// MaxPrice keeps line and order totals far from int64 overflow.
const MaxPrice money.Amount = 10_000_000_000

type Product struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Price       money.Amount `json:"price"`
	Stock       int          `json:"stock"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func New(id, name, description, category string, price money.Amount, stock int, imageURL string, now time.Time) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if price <= 0 || price > MaxPrice {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    strings.TrimSpace(category),
		Price:       price,
		Stock:       stock,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Reserve checks that quantity units can be taken from stock.
func (p *Product) Reserve(quantity int) error {
	if quantity > p.Stock {
		return fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.Name, p.Stock, quantity)
	}
	return nil
}

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortName      Sort = "name"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SearchParams filter and page the catalog.
type SearchParams struct {
	Query    string
	Category string
	Sort     Sort
	Limit    int
	Offset   int
}

// Normalize fills defaults and clamps paging; unknown sorts fall back to newest.
func (p SearchParams) Normalize() SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	p.Category = strings.TrimSpace(p.Category)
	switch p.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName:
	default:
		p.Sort = SortNewest
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// SearchResult is one page of products plus the unpaged match count.
type SearchResult struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
