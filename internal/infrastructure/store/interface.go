package store

import (
	"context"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	// GetOrderForUpdate locks the order row until the surrounding
	// transaction ends.
	GetOrderForUpdate(ctx context.Context, id string) (*order.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]order.Order, error)
	// ListOrders lists all orders, optionally only those in status.
	ListOrders(ctx context.Context, status order.Status) ([]order.Order, error)
	InsertOrder(ctx context.Context, o *order.Order) error
	UpdateOrder(ctx context.Context, o *order.Order) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	GetProductForUpdate(ctx context.Context, id string) (*product.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]product.Product, error)
	SearchProducts(ctx context.Context, params product.SearchParams) ([]product.Product, int, error)
	InsertProduct(ctx context.Context, p *product.Product) error
	// AdjustStock adds delta (negative to take stock) to a product.
	AdjustStock(ctx context.Context, productID string, delta int) error
}

type PaymentRepository interface {
	InsertPaymentRecord(ctx context.Context, rec payment.Record) error
	ListPaymentRecords(ctx context.Context, orderID string) ([]payment.Record, error)
}

type CartRepository interface {
	GetCartLines(ctx context.Context, userID string) ([]cart.Line, error)
	SetCartLine(ctx context.Context, userID string, line cart.Line) error
	DeleteCartLine(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type UserRepository interface {
	InsertUser(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateUserPassword(ctx context.Context, u *user.User) error
}

type OutboxRepository interface {
	InsertOutbox(ctx context.Context, msg OutboxMessage) error
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, ids []int64, sentAt time.Time) error
}

// Repository is the full set of storage operations. Inside WithTx every
// call runs on the same transaction.
type Repository interface {
	OrderRepository
	ProductRepository
	PaymentRepository
	CartRepository
	UserRepository
	OutboxRepository
}

type Store interface {
	Repository
	// WithTx runs fn in one transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
}
