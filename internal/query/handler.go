package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	store  store.Repository
	logger *logrus.Entry
}

func NewHandler(s store.Repository, logger logrus.FieldLogger) *Handler {
	return &Handler{store: s, logger: logging.Component(logger, "query")}
}

// Products

func (h *Handler) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, product.ErrProductNotFound
	}
	return h.store.GetProduct(ctx, id)
}

func (h *Handler) SearchProducts(ctx context.Context, params product.SearchParams) (*product.SearchResult, error) {
	params = params.Normalize()
	products, total, err := h.store.SearchProducts(ctx, params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to search products")
		return nil, err
	}
	if products == nil {
		products = []product.Product{}
	}
	return &product.SearchResult{
		Products: products,
		Total:    total,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}, nil
}

// Cart

// GetCart prices the stored lines from the current catalog. Lines whose
// product has been removed are skipped.
func (h *Handler) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	lines, err := h.store.GetCartLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	c := cart.New(userID)
	if len(lines) == 0 {
		return c, nil
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := h.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			h.logger.WithFields(logrus.Fields{"userId": userID, "productId": line.ProductID}).Warn("Cart references unknown product")
			continue
		}
		c.Add(cart.CartItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    line.Quantity,
			InStock:     p.Stock >= line.Quantity,
		})
	}
	return c, nil
}

// Orders

func (h *Handler) ListOrders(ctx context.Context, userID string) ([]order.Order, error) {
	orders, err := h.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return orders, nil
}

// GetOrder returns the caller's order with its payment records. Orders of
// other users are reported as not found.
func (h *Handler) GetOrder(ctx context.Context, userID, orderID string) (*OrderDetail, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, order.ErrInvalidOrderID
	}
	o, err := h.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, order.ErrOrderNotFound
	}
	return h.withPayments(ctx, o)
}

// Admin

// ListAllOrders returns every order, newest first, optionally filtered by
// status.
func (h *Handler) ListAllOrders(ctx context.Context, status string) ([]order.Order, error) {
	var filter order.Status
	if status = strings.TrimSpace(status); status != "" {
		parsed, ok := order.ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: %q", order.ErrUnknownStatus, status)
		}
		filter = parsed
	}
	return h.store.ListOrders(ctx, filter)
}

// GetAnyOrder returns an order regardless of owner.
func (h *Handler) GetAnyOrder(ctx context.Context, orderID string) (*OrderDetail, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, order.ErrInvalidOrderID
	}
	o, err := h.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return h.withPayments(ctx, o)
}

func (h *Handler) withPayments(ctx context.Context, o *order.Order) (*OrderDetail, error) {
	records, err := h.store.ListPaymentRecords(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	detail := &OrderDetail{Order: *o, Payments: records}
	if detail.Payments == nil {
		detail.Payments = []payment.Record{}
	}
	return detail, nil
}

// Users

func (h *Handler) GetUser(ctx context.Context, id string) (*user.User, error) {
	if id == "" {
		return nil, user.ErrUserNotFound
	}
	return h.store.GetUserByID(ctx, id)
}
