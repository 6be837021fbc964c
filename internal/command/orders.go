package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/money"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlaceOrder turns the cart into an order, taking stock for every line.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	if cmd.UserID == "" {
		return nil, ErrUnauthorized
	}

	now := h.now()
	var placed *order.Order

	err := h.store.WithTx(ctx, func(tx store.Repository) error {
		lines, err := tx.GetCartLines(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return cart.ErrEmptyCart
		}

		// lock products in a stable order so concurrent checkouts cannot deadlock
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

		items := make([]order.OrderItem, 0, len(lines))
		for _, line := range lines {
			p, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := p.Reserve(line.Quantity); err != nil {
				return err
			}
			if err := tx.AdjustStock(ctx, p.ID, -line.Quantity); err != nil {
				return err
			}
			items = append(items, order.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   p.Price,
			})
		}

		o, err := order.New(uuid.New().String(), cmd.UserID, items, now)
		if err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.ClearCart(ctx, cmd.UserID); err != nil {
			return err
		}

		email, name := h.contact(ctx, tx, cmd.UserID)
		if err := h.emit(ctx, tx, order.EventOrderPlaced, o.ID, order.OrderPlaced{
			OrderID:   o.ID,
			UserID:    o.UserID,
			UserEmail: email,
			UserName:  name,
			Items:     o.Items,
			Total:     o.Total,
			PlacedAt:  now,
		}, now); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{"orderId": placed.ID, "total": placed.Total.String()}).Info("Order placed")
	return placed, nil
}

// CancelOrder cancels the caller's own order, restores stock and records a
// refund when the order was already paid. Every write shares one
// transaction with the order row locked, so two concurrent cancellations
// cannot both restore stock.
func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) (*CancelResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.now()
	var result CancelResult

	err := h.store.WithTx(ctx, func(tx store.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if !o.IsOwnedBy(cmd.UserID) {
			return order.ErrOrderNotFound
		}

		refundRequired, err := o.Cancel(cmd.Reason, now)
		if err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%w: %w", order.ErrUpdateFailed, err)
		}

		for _, item := range o.Items {
			if err := tx.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock of %s: %w", item.ProductID, err)
			}
		}

		if refundRequired {
			rec := payment.NewRefundRecord(o.ID, o.Total, payment.Method(o.PaymentMethod), o.CancelReason, now)
			if err := tx.InsertPaymentRecord(ctx, rec); err != nil {
				return fmt.Errorf("%w: %w", payment.ErrLedgerWrite, err)
			}
		}

		var refundAmount money.Amount
		if refundRequired {
			refundAmount = o.Total
		}
		email, name := h.contact(ctx, tx, o.UserID)
		if err := h.emit(ctx, tx, order.EventOrderCancelled, o.ID, order.OrderCancelled{
			OrderID:        o.ID,
			UserID:         o.UserID,
			UserEmail:      email,
			UserName:       name,
			Reason:         o.CancelReason,
			RefundRequired: refundRequired,
			RefundAmount:   refundAmount,
			CancelledAt:    now,
		}, now); err != nil {
			return err
		}

		result = CancelResult{
			OrderID:        o.ID,
			Status:         o.Status,
			RefundRequired: refundRequired,
			CancelledAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{
		"orderId":        result.OrderID,
		"refundRequired": result.RefundRequired,
	}).Info("Order cancelled")
	return &result, nil
}

// AdvanceOrder moves an order along the fulfilment path (admin only).
func (h *Handler) AdvanceOrder(ctx context.Context, cmd AdvanceOrder) (*order.Order, error) {
	if strings.TrimSpace(cmd.OrderID) == "" {
		return nil, order.ErrInvalidOrderID
	}
	target, ok := order.ParseStatus(cmd.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", order.ErrInvalidTransition, cmd.Status)
	}

	now := h.now()
	var advanced *order.Order

	err := h.store.WithTx(ctx, func(tx store.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.AdvanceTo(target, now); err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%w: %w", order.ErrUpdateFailed, err)
		}

		email, name := h.contact(ctx, tx, o.UserID)
		if err := h.emit(ctx, tx, order.EventOrderStatusChanged, o.ID, order.OrderStatusChanged{
			OrderID:   o.ID,
			UserID:    o.UserID,
			UserEmail: email,
			UserName:  name,
			From:      from,
			To:        o.Status,
			ChangedAt: now,
		}, now); err != nil {
			return err
		}

		advanced = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{"orderId": advanced.ID, "status": advanced.Status}).Info("Order status changed")
	return advanced, nil
}
