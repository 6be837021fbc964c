package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/go-chi/render"
)

// AccessTokenCookie is the HttpOnly cookie set on login and register.
const AccessTokenCookie = "access_token"

// Session is the authenticated caller of a request.
type Session struct {
	UserID string
	Email  string
	Role   string
}

func (s Session) IsAdmin() bool {
	return s.Role == "admin"
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     errorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

// respondError writes an error in the API envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorEnvelope{
		Error:     errorBody{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession stores the session in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFrom returns the session resolved for the request, if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(Session)
	return s, ok && s.UserID != ""
}

// UserID is a helper to get just the user ID from context
func UserID(ctx context.Context) string {
	s, _ := SessionFrom(ctx)
	return s.UserID
}

// Authenticate resolves the session when a valid token is present. It never
// rejects; handlers and RequireAuth decide what an anonymous caller may do.
func Authenticate(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := ExtractToken(r); tokenString != "" {
				if claims, err := jwtService.ValidateAccessToken(tokenString); err == nil {
					r = r.WithContext(WithSession(r.Context(), Session{
						UserID: claims.UserID,
						Email:  claims.Email,
						Role:   claims.Role,
					}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole checks if the user has one of the required roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := SessionFrom(r.Context())
			if !ok {
				respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			for _, role := range roles {
				if s.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondError(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		})
	}
}
