package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Success(t *testing.T) {
	u, err := New("user-1", " Alice@Example.COM ", " Alice ", "hash", "", time.Now())

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, RoleCustomer, u.Role)
	assert.False(t, u.IsAdmin())
}

func TestNew_Admin(t *testing.T) {
	u, err := New("user-1", "root@example.com", "Root", "hash", RoleAdmin, time.Now())

	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		uName   string
		wantErr error
	}{
		{"empty email", "", "Alice", ErrInvalidEmail},
		{"malformed email", "not-an-email", "Alice", ErrInvalidEmail},
		{"display name", "Mallory <alice@example.com>", "Alice", ErrInvalidEmail},
		{"bracketed address", "<alice@example.com>", "Alice", ErrInvalidEmail},
		{"empty name", "alice@example.com", "  ", ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New("user-1", tt.email, tt.uName, "hash", RoleCustomer, time.Now())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, u)
		})
	}
}

func TestSetPassword_RevokesOlderTokens(t *testing.T) {
	u, err := New("user-1", "alice@example.com", "Alice", "old-hash", RoleCustomer, time.Now())
	require.NoError(t, err)

	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.False(t, u.TokenRevoked(issued))

	u.SetPassword("new-hash", issued.Add(90*time.Second+500*time.Millisecond))

	assert.Equal(t, "new-hash", u.PasswordHash)
	assert.True(t, u.TokenRevoked(issued))
	assert.False(t, u.TokenRevoked(issued.Add(90*time.Second)))
	assert.False(t, u.TokenRevoked(issued.Add(2*time.Minute)))
}
