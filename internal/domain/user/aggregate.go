package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`

	// PasswordChangedAt invalidates refresh tokens issued before it.
	PasswordChangedAt *time.Time `json:"-"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// New validates registration fields. The password must already be hashed.
func New(id, email, name, passwordHash string, role Role, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if role != RoleAdmin {
		role = RoleCustomer
	}
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) SetPassword(hash string, now time.Time) {
	u.PasswordHash = hash
	changed := now.UTC()
	u.PasswordChangedAt = &changed
}

// TokenRevoked reports whether a token issued at issuedAt predates the last
// password change. JWT timestamps have second precision.
func (u *User) TokenRevoked(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(u.PasswordChangedAt.Truncate(time.Second))
}
