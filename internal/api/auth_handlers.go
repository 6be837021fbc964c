package api

import (
	"errors"
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/query"
	"github.com/sirupsen/logrus"
)

const (
	refreshTokenCookie = "refresh_token"
	// The refresh cookie is only sent to the auth endpoints.
	refreshCookiePath = "/api/auth"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	responder
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	jwtService   *auth.JWTService
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, jwtService *auth.JWTService, logger logrus.FieldLogger, opts Options) *AuthHandlers {
	return &AuthHandlers{
		responder: responder{
			logger:     logging.Component(logger, "auth"),
			production: opts.Production,
		},
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		jwtService:   jwtService,
	}
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var cmd command.Register
	if err := decode(r, &cmd); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}

	u, err := h.cmdHandler.Register(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.setAuthCookies(w, r, u) {
		return
	}
	respondJSON(w, r, http.StatusCreated, u, "Registration successful")
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var cmd command.Login
	if err := decode(r, &cmd); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}

	u, err := h.cmdHandler.Login(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.setAuthCookies(w, r, u) {
		return
	}
	respondJSON(w, r, http.StatusOK, u, "Login successful")
}

// Logout clears the session cookies. Tokens are stateless, so nothing else
// has to be revoked.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookies(w)
	respondJSON(w, r, http.StatusOK, nil, "Logout successful")
}

// Refresh issues a new token pair from the refresh cookie. Tokens issued
// before the user's last password change are refused.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		h.writeError(w, r, auth.ErrInvalidToken)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(cookie.Value)
	if err != nil {
		clearAuthCookies(w)
		h.writeError(w, r, err)
		return
	}

	u, err := h.queryHandler.GetUser(r.Context(), claims.Subject)
	if errors.Is(err, user.ErrUserNotFound) {
		clearAuthCookies(w)
		h.writeError(w, r, auth.ErrInvalidToken)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if u.TokenRevoked(claims.IssuedAt.Time) {
		h.logger.WithField("userId", u.ID).Info("Refused refresh token issued before password change")
		clearAuthCookies(w)
		h.writeError(w, r, auth.ErrInvalidToken)
		return
	}

	if !h.setAuthCookies(w, r, u) {
		return
	}
	respondJSON(w, r, http.StatusOK, u, "Token refreshed")
}

// ChangePassword replaces the caller's password and re-issues the session
// cookies, since older refresh tokens stop working.
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var cmd command.ChangePassword
	if err := decode(r, &cmd); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	cmd.UserID = middleware.UserID(r.Context())

	u, err := h.cmdHandler.ChangePassword(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !h.setAuthCookies(w, r, u) {
		return
	}
	respondJSON(w, r, http.StatusOK, nil, "Password changed")
}

// RegisterAdmin lets an administrator create another administrator.
func (h *AuthHandlers) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var cmd command.Register
	if err := decode(r, &cmd); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}

	u, err := h.cmdHandler.RegisterAdmin(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, u, "Administrator created")
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.queryHandler.GetUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, u, "")
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, u *user.User) bool {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		h.writeError(w, r, err)
		return false
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		h.writeError(w, r, err)
		return false
	}

	secure := r.TLS != nil
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     refreshCookiePath,
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return true
}

func clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
	})
}
