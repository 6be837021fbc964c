package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-that-is-long-enough", 15*time.Minute, time.Hour)
}

// captureSession returns a handler that records the session it sees.
func captureSession(got *Session, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *found = SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate_ValidToken_Header(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	var got Session
	var found bool
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Authenticate(jwtService)(captureSession(&got, &found)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, "user-123", got.UserID)
	assert.Equal(t, "test@example.com", got.Email)
	assert.Equal(t, "customer", got.Role)
	assert.False(t, got.IsAdmin())
}

func TestAuthenticate_ValidToken_Cookie(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-456", "cookie@example.com", "admin")
	require.NoError(t, err)

	var got Session
	var found bool
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()

	Authenticate(jwtService)(captureSession(&got, &found)).ServeHTTP(rec, req)

	require.True(t, found)
	assert.Equal(t, "user-456", got.UserID)
	assert.True(t, got.IsAdmin())
}

func TestAuthenticate_CookieTakesPrecedence(t *testing.T) {
	jwtService := newTestJWTService()
	cookieToken, _, _ := jwtService.GenerateAccessToken("cookie-user", "c@example.com", "customer")
	headerToken, _, _ := jwtService.GenerateAccessToken("header-user", "h@example.com", "customer")

	var got Session
	var found bool
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	Authenticate(jwtService)(captureSession(&got, &found)).ServeHTTP(rec, req)

	require.True(t, found)
	assert.Equal(t, "cookie-user", got.UserID)
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no token", func(r *http.Request) {}},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") }},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") }},
		{"foreign signature", func(r *http.Request) {
			other := auth.NewJWTService("a-completely-different-secret-key!!", time.Minute, time.Hour)
			token, _, _ := other.GenerateAccessToken("user-1", "x@example.com", "admin")
			r.Header.Set("Authorization", "Bearer "+token)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Session
			var found bool
			req := httptest.NewRequest(http.MethodGet, "/public", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			Authenticate(newTestJWTService())(captureSession(&got, &found)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, found)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAuth(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.False(t, body.Success)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
		assert.NotEmpty(t, body.Timestamp)
	})

	t.Run("with session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), Session{UserID: "user-1"}))
		rec := httptest.NewRecorder()
		RequireAuth(ok).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name     string
		session  *Session
		wantCode int
		wantErr  string
	}{
		{"admin allowed", &Session{UserID: "u1", Role: "admin"}, http.StatusOK, ""},
		{"customer forbidden", &Session{UserID: "u2", Role: "customer"}, http.StatusForbidden, "FORBIDDEN"},
		{"anonymous unauthorized", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.session != nil {
				req = req.WithContext(WithSession(req.Context(), *tt.session))
			}
			rec := httptest.NewRecorder()

			RequireRole("admin")(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, rec).Error.Code)
			}
		})
	}
}

func TestUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, UserID(req.Context()))

	ctx := WithSession(req.Context(), Session{UserID: "user-9"})
	assert.Equal(t, "user-9", UserID(ctx))
}
