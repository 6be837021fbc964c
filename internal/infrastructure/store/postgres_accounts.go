package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/user"
)

// User operations

func (s *PostgresStore) InsertUser(ctx context.Context, u *user.User) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.CreatedAt)
	if err != nil {
		if isPQError(err, "unique_violation") {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, name, role, created_at, password_changed_at`

func (s *PostgresStore) getUser(ctx context.Context, query, arg string) (*user.User, error) {
	var (
		u         user.User
		changedAt sql.NullTime
	)
	err := s.q.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &changedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.PasswordChangedAt = timePtr(changedAt)
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, user.NormalizeEmail(email))
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, u *user.User) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, password_changed_at = $3 WHERE id = $1`,
		u.ID, u.PasswordHash, nullTime(u.PasswordChangedAt))
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Cart operations

func (s *PostgresStore) GetCartLines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = $1 ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	defer rows.Close()

	lines := []cart.Line{}
	for rows.Next() {
		var l cart.Line
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *PostgresStore) SetCartLine(ctx context.Context, userID string, line cart.Line) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`, userID, line.ProductID, line.Quantity)
	if err != nil {
		return fmt.Errorf("set cart line: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteCartLine(ctx context.Context, userID, productID string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (s *PostgresStore) ClearCart(ctx context.Context, userID string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
