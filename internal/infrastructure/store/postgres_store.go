package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	db *sql.DB
	q  querier
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

// ConnectPostgres opens a pooled connection and verifies it.
func ConnectPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if s.db == nil {
		// already inside a transaction
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&PostgresStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func isPQError(err error, name string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == name
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Outbox operations

func (s *PostgresStore) InsertOutbox(ctx context.Context, msg OutboxMessage) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO outbox (event_id, topic, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.EventID, msg.Topic, msg.Key, []byte(msg.Payload), msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox %s: %w", msg.Topic, err)
	}
	return nil
}

// FetchPendingOutbox skips rows locked by another relay, so several API
// instances can relay concurrently without publishing a row twice.
func (s *PostgresStore) FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxMessage
	for rows.Next() {
		var (
			msg     OutboxMessage
			payload []byte
			sentAt  sql.NullTime
		)
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.Topic, &msg.Key, &payload, &msg.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		msg.Payload = payload
		msg.SentAt = timePtr(sentAt)
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkOutboxSent(ctx context.Context, ids []int64, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.q.ExecContext(ctx, `UPDATE outbox SET sent_at = $2 WHERE id = ANY($1)`, pq.Array(ids), sentAt)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}
