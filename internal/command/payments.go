package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/sirupsen/logrus"
)

// CreatePayment returns instructions for paying an order. Nothing is
// written; the order only changes when the payment is confirmed.
func (h *Handler) CreatePayment(ctx context.Context, cmd CreatePayment) (*payment.Instructions, error) {
	if strings.TrimSpace(cmd.OrderID) == "" || strings.TrimSpace(cmd.PaymentMethod) == "" || cmd.Amount == nil {
		return nil, payment.ErrInvalidPaymentData
	}
	if cmd.UserID == "" {
		return nil, ErrUnauthorized
	}

	o, err := h.store.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(cmd.UserID) {
		return nil, order.ErrOrderNotFound
	}
	if err := o.CheckPayable(); err != nil {
		return nil, err
	}
	if err := payment.CheckAmount(*cmd.Amount, o.Total); err != nil {
		return nil, err
	}

	return h.gateway.Instructions(payment.NormalizeMethod(cmd.PaymentMethod), o.ID, o.Total, h.now())
}

// ConfirmPayment marks an order paid and appends the ledger entry in one
// transaction. A failed ledger write rolls the order back to unpaid.
func (h *Handler) ConfirmPayment(ctx context.Context, cmd ConfirmPayment) (*ConfirmResult, error) {
	if strings.TrimSpace(cmd.OrderID) == "" || strings.TrimSpace(cmd.PaymentMethod) == "" {
		return nil, payment.ErrInvalidPaymentData
	}
	if cmd.UserID == "" && !cmd.Webhook {
		return nil, ErrUnauthorized
	}

	method := payment.NormalizeMethod(cmd.PaymentMethod)
	now := h.now()
	var result ConfirmResult

	err := h.store.WithTx(ctx, func(tx store.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if !cmd.Webhook && !o.IsOwnedBy(cmd.UserID) {
			return order.ErrOrderNotFound
		}
		if err := o.CheckPayable(); err != nil {
			return err
		}
		if cmd.Amount != nil {
			if err := payment.CheckAmount(*cmd.Amount, o.Total); err != nil {
				return err
			}
		}
		if !method.IsSupported() {
			return fmt.Errorf("%w: %q", payment.ErrUnsupportedMethod, method)
		}

		if err := o.MarkPaid(string(method), cmd.TransactionID, now); err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%w: %w", order.ErrUpdateFailed, err)
		}

		rec := payment.NewPaymentRecord(o.ID, o.Total, method, cmd.TransactionID, now)
		if err := tx.InsertPaymentRecord(ctx, rec); err != nil {
			return fmt.Errorf("%w: %w", payment.ErrLedgerWrite, err)
		}

		email, name := h.contact(ctx, tx, o.UserID)
		if err := h.emit(ctx, tx, payment.EventPaymentConfirmed, o.ID, payment.PaymentConfirmed{
			OrderID:       o.ID,
			UserID:        o.UserID,
			UserEmail:     email,
			UserName:      name,
			Method:        method,
			TransactionID: cmd.TransactionID,
			Amount:        o.Total,
			ConfirmedAt:   now,
		}, now); err != nil {
			return err
		}

		result = ConfirmResult{
			OrderID:       o.ID,
			PaymentStatus: o.PaymentStatus,
			TransactionID: o.TransactionID,
			ConfirmedAt:   now,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrOrderAlreadyPaid) {
			h.logger.WithField("orderId", cmd.OrderID).Info("Duplicate payment confirmation ignored")
		}
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{
		"orderId": result.OrderID,
		"method":  method,
		"webhook": cmd.Webhook,
	}).Info("Payment confirmed")
	return &result, nil
}
