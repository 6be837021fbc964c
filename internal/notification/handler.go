package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/money"
	"github.com/sirupsen/logrus"
)

// Mailer is the part of email.Service the handler needs.
type Mailer interface {
	SendOrderConfirmation(to, name, orderID string, total money.Amount, items []email.OrderItem) error
	SendCancellation(to, name, orderID, reason string, refund money.Amount, refundRequired bool) error
	SendPaymentReceipt(to, name, orderID, method, transactionID string, amount money.Amount) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
	logger *logrus.Entry
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, logger logrus.FieldLogger) *Handler {
	return &Handler{
		mailer: mailer,
		logger: logging.Component(logger, "notifier"),
	}
}

// HandleEvent processes an event from Kafka. Events the notifier does not
// mail about are ignored.
func (h *Handler) HandleEvent(ctx context.Context, msg kafka.Message) error {
	switch msg.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(msg)
	case order.EventOrderCancelled:
		return h.handleOrderCancelled(msg)
	case payment.EventPaymentConfirmed:
		return h.handlePaymentConfirmed(msg)
	default:
		return nil
	}
}

func (h *Handler) handleOrderPlaced(msg kafka.Message) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	log := h.logger.WithFields(logrus.Fields{"event": msg.EventType, "orderId": e.OrderID})
	if e.UserEmail == "" {
		log.Warn("No recipient, skipping")
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	if err := h.mailer.SendOrderConfirmation(e.UserEmail, e.UserName, e.OrderID, e.Total, items); err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}
	log.Info("Order confirmation email sent")
	return nil
}

func (h *Handler) handleOrderCancelled(msg kafka.Message) error {
	var e order.OrderCancelled
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	log := h.logger.WithFields(logrus.Fields{"event": msg.EventType, "orderId": e.OrderID})
	if e.UserEmail == "" {
		log.Warn("No recipient, skipping")
		return nil
	}

	if err := h.mailer.SendCancellation(e.UserEmail, e.UserName, e.OrderID, e.Reason, e.RefundAmount, e.RefundRequired); err != nil {
		return fmt.Errorf("send cancellation: %w", err)
	}
	log.WithField("refundRequired", e.RefundRequired).Info("Cancellation email sent")
	return nil
}

func (h *Handler) handlePaymentConfirmed(msg kafka.Message) error {
	var e payment.PaymentConfirmed
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	log := h.logger.WithFields(logrus.Fields{"event": msg.EventType, "orderId": e.OrderID})
	if e.UserEmail == "" {
		log.Warn("No recipient, skipping")
		return nil
	}

	if err := h.mailer.SendPaymentReceipt(e.UserEmail, e.UserName, e.OrderID, string(e.Method), e.TransactionID, e.Amount); err != nil {
		return fmt.Errorf("send payment receipt: %w", err)
	}
	log.Info("Payment receipt email sent")
	return nil
}
