package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/payment"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const maxPaymentBody = 64 << 10

// CreatePayment returns payment instructions for one of the caller's orders.
func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreatePayment
	if err := decode(r, &cmd); err != nil {
		h.writeError(w, r, payment.ErrInvalidPaymentData)
		return
	}
	cmd.UserID = middleware.UserID(r.Context())

	in, err := h.cmdHandler.CreatePayment(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, in, "")
}

// ConfirmPayment accepts either the order owner's session or a provider
// webhook signed with the shared secret over the raw body.
func (h *Handlers) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPaymentBody))
	if err != nil {
		h.writeError(w, r, payment.ErrInvalidPaymentData)
		return
	}

	var cmd command.ConfirmPayment
	if signature := r.Header.Get(payment.SignatureHeader); signature != "" {
		if !payment.VerifySignature(body, signature, h.webhookSecret) {
			h.logger.WithField("requestId", chimw.GetReqID(r.Context())).Warn("Rejected payment webhook with bad signature")
			h.writeError(w, r, command.ErrUnauthorized)
			return
		}
		cmd.Webhook = true
	} else {
		cmd.UserID = middleware.UserID(r.Context())
	}

	if len(bytes.TrimSpace(body)) > 0 {
		if err := render.DecodeJSON(bytes.NewReader(body), &cmd); err != nil {
			h.writeError(w, r, payment.ErrInvalidPaymentData)
			return
		}
	}

	result, err := h.cmdHandler.ConfirmPayment(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result, "")
}
