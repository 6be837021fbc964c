package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
)

const orderColumns = `id, user_id, status, payment_status, total_minor, items, payment_method, transaction_id, paid_at, cancelled_at, cancel_reason, created_at, updated_at`

func scanOrder(row scanner) (*order.Order, error) {
	var (
		o                          order.Order
		itemsJSON                  []byte
		method, txID, cancelReason sql.NullString
		paidAt, cancelledAt        sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.Total, &itemsJSON,
		&method, &txID, &paidAt, &cancelledAt, &cancelReason, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	o.PaymentMethod = method.String
	o.TransactionID = txID.String
	o.CancelReason = cancelReason.String
	o.PaidAt = timePtr(paidAt)
	o.CancelledAt = timePtr(cancelledAt)
	return &o, nil
}

func (s *PostgresStore) getOrder(ctx context.Context, query, id string) (*order.Order, error) {
	o, err := scanOrder(s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (s *PostgresStore) GetOrderForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListOrders returns every order, newest first. An empty status matches all.
func (s *PostgresStore) ListOrders(ctx context.Context, status order.Status) ([]order.Order, error) {
	if status == "" {
		return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	}
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC`, string(status))
}

func (s *PostgresStore) listOrders(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) InsertOrder(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, payment_status, total_minor, items,
			payment_method, transaction_id, paid_at, cancelled_at, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, o.ID, o.UserID, string(o.Status), string(o.PaymentStatus), int64(o.Total), itemsJSON,
		nullString(o.PaymentMethod), nullString(o.TransactionID), nullTime(o.PaidAt), nullTime(o.CancelledAt),
		nullString(o.CancelReason), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

// UpdateOrder writes the mutable columns. Items and total are fixed at
// checkout.
func (s *PostgresStore) UpdateOrder(ctx context.Context, o *order.Order) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE orders SET
			status = $2,
			payment_status = $3,
			payment_method = $4,
			transaction_id = $5,
			paid_at = $6,
			cancelled_at = $7,
			cancel_reason = $8,
			updated_at = $9
		WHERE id = $1
	`, o.ID, string(o.Status), string(o.PaymentStatus), nullString(o.PaymentMethod), nullString(o.TransactionID),
		nullTime(o.PaidAt), nullTime(o.CancelledAt), nullString(o.CancelReason), o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// Payment ledger

func (s *PostgresStore) InsertPaymentRecord(ctx context.Context, rec payment.Record) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO payment_records (id, order_id, amount_minor, status, method, transaction_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.OrderID, int64(rec.Amount), string(rec.Status), nullString(string(rec.Method)),
		nullString(rec.TransactionID), rec.Note, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment record for order %s: %w", rec.OrderID, err)
	}
	return nil
}

func (s *PostgresStore) ListPaymentRecords(ctx context.Context, orderID string) ([]payment.Record, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, order_id, amount_minor, status, method, transaction_id, note, created_at
		FROM payment_records WHERE order_id = $1 ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payment records: %w", err)
	}
	defer rows.Close()

	records := []payment.Record{}
	for rows.Next() {
		var (
			rec          payment.Record
			method, txID sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.Amount, &rec.Status, &method, &txID, &rec.Note, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment record: %w", err)
		}
		rec.Method = payment.Method(method.String)
		rec.TransactionID = txID.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
