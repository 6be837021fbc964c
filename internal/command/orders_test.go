package command

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Place Order Tests
// ============================================

func TestHandler_PlaceOrder_Success(t *testing.T) {
	handler, st := newTestHandler()
	st.SeedCart("user-1", cart.Line{ProductID: "prod-2", Quantity: 1}, cart.Line{ProductID: "prod-1", Quantity: 2})

	o, err := handler.PlaceOrder(context.Background(), PlaceOrder{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	assert.Equal(t, money.Amount(10000), o.Total)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Mug", o.Items[0].ProductName)
	assert.Equal(t, money.Amount(2500), o.Items[0].UnitPrice)

	assert.Equal(t, 8, st.Stock("prod-1"))
	assert.Equal(t, 4, st.Stock("prod-2"))
	assert.Empty(t, st.CartLines("user-1"))
	assert.NotNil(t, st.Order(o.ID))

	outbox := st.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, order.EventOrderPlaced, outbox[0].Topic)
	assert.Equal(t, o.ID, outbox[0].Key)

	var payload order.OrderPlaced
	require.NoError(t, json.Unmarshal(outbox[0].Payload, &payload))
	assert.Equal(t, "alice@example.com", payload.UserEmail)
	assert.Equal(t, money.Amount(10000), payload.Total)
}

func TestHandler_PlaceOrder_EmptyCart(t *testing.T) {
	handler, st := newTestHandler()

	o, err := handler.PlaceOrder(context.Background(), PlaceOrder{UserID: "user-1"})

	assert.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Nil(t, o)
	assert.Empty(t, st.Outbox())
}

func TestHandler_PlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	handler, st := newTestHandler()
	st.SeedCart("user-1", cart.Line{ProductID: "prod-1", Quantity: 2}, cart.Line{ProductID: "prod-2", Quantity: 6})

	o, err := handler.PlaceOrder(context.Background(), PlaceOrder{UserID: "user-1"})

	assert.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Nil(t, o)
	// prod-1 was decremented before prod-2 failed; the rollback restores it
	assert.Equal(t, 10, st.Stock("prod-1"))
	assert.Equal(t, 5, st.Stock("prod-2"))
	assert.Len(t, st.CartLines("user-1"), 2)
	assert.Equal(t, 1, st.Rollbacks)
}

func TestHandler_PlaceOrder_Unauthorized(t *testing.T) {
	handler, _ := newTestHandler()

	_, err := handler.PlaceOrder(context.Background(), PlaceOrder{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// ============================================
// Cancel Order Tests
// ============================================

func TestHandler_CancelOrder_PendingOrder(t *testing.T) {
	handler, st := newTestHandler()
	seedOrder(st, order.StatusPending, order.PaymentPending)

	result, err := handler.CancelOrder(context.Background(), CancelOrder{OrderID: "order-1", UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, order.StatusCancelled, result.Status)
	assert.False(t, result.RefundRequired)
	assert.Equal(t, testNow, result.CancelledAt)

	stored := st.Order("order-1")
	assert.Equal(t, order.StatusCancelled, stored.Status)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, order.DefaultCancelReason, stored.CancelReason)

	assert.Equal(t, 12, st.Stock("prod-1"))
	assert.Equal(t, 6, st.Stock("prod-2"))
	assert.Empty(t, st.PaymentRecords("order-1"))

	outbox := st.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, order.EventOrderCancelled, outbox[0].Topic)
}

func TestHandler_CancelOrder_PaidOrderRecordsRefund(t *testing.T) {
	handler, st := newTestHandler()
	seedOrder(st, order.StatusPaid, order.PaymentPaid)

	result, err := handler.CancelOrder(context.Background(), CancelOrder{
		OrderID: "order-1",
		UserID:  "user-1",
		Reason:  "found it cheaper",
	})

	require.NoError(t, err)
	assert.True(t, result.RefundRequired)

	stored := st.Order("order-1")
	assert.Equal(t, order.StatusCancelled, stored.Status)
	assert.Equal(t, order.PaymentRefunded, stored.PaymentStatus)
	assert.Equal(t, "found it cheaper", stored.CancelReason)

	records := st.PaymentRecords("order-1")
	require.Len(t, records, 1)
	assert.Equal(t, money.Amount(-10000), records[0].Amount)
	assert.Equal(t, payment.RecordRefunded, records[0].Status)
	assert.Contains(t, records[0].Note, "found it cheaper")

	var payload order.OrderCancelled
	require.NoError(t, json.Unmarshal(st.Outbox()[0].Payload, &payload))
	assert.True(t, payload.RefundRequired)
	assert.Equal(t, money.Amount(10000), payload.RefundAmount)
}

func TestHandler_CancelOrder_NotCancellable(t *testing.T) {
	for _, status := range []order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered, order.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			handler, st := newTestHandler()
			seedOrder(st, status, order.PaymentPaid)

			result, err := handler.CancelOrder(context.Background(), CancelOrder{OrderID: "order-1", UserID: "user-1"})

			assert.ErrorIs(t, err, order.ErrNotCancellable)
			assert.Nil(t, result)
			assert.Equal(t, status, st.Order("order-1").Status)
			assert.Equal(t, 10, st.Stock("prod-1"))
			assert.Empty(t, st.PaymentRecords("order-1"))
			assert.Equal(t, 0, st.CallCount("UpdateOrder"))
		})
	}
}

func TestHandler_CancelOrder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CancelOrder
		wantErr error
	}{
		{"blank order id", CancelOrder{OrderID: "  ", UserID: "user-1"}, order.ErrInvalidOrderID},
		{"unauthenticated", CancelOrder{OrderID: "order-1"}, ErrUnauthorized},
		{"unknown order", CancelOrder{OrderID: "order-404", UserID: "user-1"}, order.ErrOrderNotFound},
		{"someone else's order", CancelOrder{OrderID: "order-1", UserID: "user-2"}, order.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, st := newTestHandler()
			seedOrder(st, order.StatusPending, order.PaymentPending)

			_, err := handler.CancelOrder(context.Background(), tt.cmd)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, order.StatusPending, st.Order("order-1").Status)
		})
	}
}

func TestHandler_CancelOrder_UpdateFailure(t *testing.T) {
	handler, st := newTestHandler()
	seedOrder(st, order.StatusPaid, order.PaymentPaid)
	st.Fail("UpdateOrder", errors.New("disk full"))

	result, err := handler.CancelOrder(context.Background(), CancelOrder{OrderID: "order-1", UserID: "user-1"})

	assert.ErrorIs(t, err, order.ErrUpdateFailed)
	assert.Nil(t, result)
	assert.Equal(t, order.StatusPaid, st.Order("order-1").Status)
	assert.Equal(t, 10, st.Stock("prod-1"))
	assert.Empty(t, st.PaymentRecords("order-1"))
}

func TestHandler_CancelOrder_LaterFailureRollsBackEverything(t *testing.T) {
	handler, st := newTestHandler()
	seedOrder(st, order.StatusPaid, order.PaymentPaid)
	st.Fail("InsertPaymentRecord", errors.New("ledger unavailable"))

	_, err := handler.CancelOrder(context.Background(), CancelOrder{OrderID: "order-1", UserID: "user-1"})

	assert.ErrorIs(t, err, payment.ErrLedgerWrite)
	stored := st.Order("order-1")
	assert.Equal(t, order.StatusPaid, stored.Status)
	assert.Equal(t, order.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, 10, st.Stock("prod-1"))
	assert.Equal(t, 5, st.Stock("prod-2"))
	assert.Empty(t, st.Outbox())
}

func TestHandler_CancelOrder_ConcurrentCancelsRestoreStockOnce(t *testing.T) {
	handler, st := newTestHandler()
	seedOrder(st, order.StatusPending, order.PaymentPending)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.CancelOrder(context.Background(), CancelOrder{OrderID: "order-1", UserID: "user-1"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, order.ErrNotCancellable) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, 12, st.Stock("prod-1"))
	assert.Equal(t, 6, st.Stock("prod-2"))
	assert.Len(t, st.Outbox(), 1)
}

// ============================================
// Advance Order Tests
// ============================================

func TestHandler_AdvanceOrder_Success(t *testing.T) {
	handler, st := newTestHandler()
	seedOrder(st, order.StatusPaid, order.PaymentPaid)

	o, err := handler.AdvanceOrder(context.Background(), AdvanceOrder{OrderID: "order-1", Status: "processing"})

	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, o.Status)
	assert.Equal(t, order.StatusProcessing, st.Order("order-1").Status)

	outbox := st.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, order.EventOrderStatusChanged, outbox[0].Topic)

	var payload order.OrderStatusChanged
	require.NoError(t, json.Unmarshal(outbox[0].Payload, &payload))
	assert.Equal(t, order.StatusPaid, payload.From)
	assert.Equal(t, order.StatusProcessing, payload.To)
}

func TestHandler_AdvanceOrder_InvalidTransition(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"unknown status", "teleported"},
		{"skip processing", "shipped"},
		{"cancel via admin", "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, st := newTestHandler()
			seedOrder(st, order.StatusPaid, order.PaymentPaid)

			_, err := handler.AdvanceOrder(context.Background(), AdvanceOrder{OrderID: "order-1", Status: tt.status})

			assert.ErrorIs(t, err, order.ErrInvalidTransition)
			assert.Equal(t, order.StatusPaid, st.Order("order-1").Status)
			assert.Empty(t, st.Outbox())
		})
	}
}
