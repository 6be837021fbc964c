package api

import (
	"context"
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
	Metrics      *metrics.Metrics
	Logger       logrus.FieldLogger
	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error
	// WebDir optionally serves a static storefront UI.
	WebDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	h, ah := cfg.Handlers, cfg.AuthHandlers

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Authenticate(cfg.JWTService))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", health(cfg.Ping))

		// Auth
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/login", ah.Login)
		r.Post("/auth/logout", ah.Logout)
		r.Post("/auth/refresh", ah.Refresh)
		r.With(middleware.RequireAuth).Get("/auth/me", ah.Me)
		r.With(middleware.RequireAuth).Post("/auth/password", ah.ChangePassword)

		// Products
		r.Get("/products", h.GetProducts)
		r.Get("/products/{id}", h.GetProduct)

		// Cart
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/cart", h.GetCart)
			r.Post("/cart/items", h.AddToCart)
			r.Delete("/cart/items/{productId}", h.RemoveFromCart)
		})

		// Orders
		r.With(middleware.RequireAuth).Get("/orders", h.GetOrders)
		r.With(middleware.RequireAuth).Post("/orders", h.PlaceOrder)
		r.With(middleware.RequireAuth).Get("/orders/{id}", h.GetOrder)
		r.Post("/orders/{id}/cancel", h.CancelOrder)

		// Payments
		r.Post("/payments", h.CreatePayment)
		r.Post("/payments/confirm", h.ConfirmPayment)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			r.Post("/products", h.CreateProduct)
			r.Post("/users", ah.RegisterAdmin)
			r.Get("/orders", h.GetAllOrders)
			r.Get("/orders/{id}", h.GetAnyOrder)
			r.Post("/orders/{id}/status", h.AdvanceOrder)
		})
	})

	// Static files (web UI)
	if cfg.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))
	}

	return r
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := ping(ctx); err != nil {
				respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "database unreachable", "")
				return
			}
		}
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"}, "")
	}
}
