package api

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/query"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	msgCancelledWithRefund = "订单已取消，退款将在3-5个工作日内处理"
	msgCancelled           = "订单已取消"
)

// Options configure behaviour that differs between deployments.
type Options struct {
	Production    bool
	WebhookSecret string
}

type Handlers struct {
	responder
	cmdHandler    *command.Handler
	queryHandler  *query.Handler
	webhookSecret string
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger logrus.FieldLogger, opts Options) *Handlers {
	return &Handlers{
		responder: responder{
			logger:     logging.Component(logger, "api"),
			production: opts.Production,
		},
		cmdHandler:    cmdHandler,
		queryHandler:  queryHandler,
		webhookSecret: opts.WebhookSecret,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := product.SearchParams{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Sort:     product.Sort(q.Get("sort")),
	}

	var err error
	if params.Limit, err = intParam(q.Get("limit")); err != nil {
		h.badRequest(w, r, "limit must be an integer")
		return
	}
	if params.Offset, err = intParam(q.Get("offset")); err != nil {
		h.badRequest(w, r, "offset must be an integer")
		return
	}

	result, err := h.queryHandler.SearchProducts(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result, "")
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.queryHandler.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p, "")
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if err := decode(r, &cmd); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}

	p, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, p, "")
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.queryHandler.GetCart(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, c, "")
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := decode(r, &cmd); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	cmd.UserID = middleware.UserID(r.Context())

	if err := h.cmdHandler.AddToCart(r.Context(), cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.GetCart(w, r)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromCart{
		UserID:    middleware.UserID(r.Context()),
		ProductID: chi.URLParam(r, "productId"),
	}
	if err := h.cmdHandler.RemoveFromCart(r.Context(), cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.GetCart(w, r)
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.cmdHandler.PlaceOrder(r.Context(), command.PlaceOrder{UserID: middleware.UserID(r.Context())})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, o, "")
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.ListOrders(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders, "")
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.queryHandler.GetOrder(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, detail, "")
}

// CancelOrder runs without RequireAuth so a malformed id is reported
// before a missing session.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.CancelOrder
	decodeErr := decode(r, &cmd)
	cmd.OrderID = chi.URLParam(r, "id")
	cmd.UserID = middleware.UserID(r.Context())
	if err := cmd.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	if decodeErr != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}

	result, err := h.cmdHandler.CancelOrder(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	message := msgCancelled
	if result.RefundRequired {
		message = msgCancelledWithRefund
	}
	respondJSON(w, r, http.StatusOK, result, message)
}

// Admin Handlers

func (h *Handlers) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.AdvanceOrder
	if err := decode(r, &cmd); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	cmd.OrderID = chi.URLParam(r, "id")

	o, err := h.cmdHandler.AdvanceOrder(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, o, "")
}

func (h *Handlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.ListAllOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders, "")
}

func (h *Handlers) GetAnyOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.queryHandler.GetAnyOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, detail, "")
}

// Helper functions

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
