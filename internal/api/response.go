package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/money"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	Message   string     `json:"message,omitempty"`
	Timestamp string     `json:"timestamp"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: timestamp(),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message, details string) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{
		Error:     &ErrorBody{Code: code, Message: message, Details: details},
		Timestamp: timestamp(),
	})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order. Wrapping errors come before the
// errors they may wrap, e.g. a failed update that found no row.
var errorMappings = []errorMapping{
	{order.ErrUpdateFailed, http.StatusInternalServerError, "UPDATE_ORDER_ERROR"},
	{payment.ErrLedgerWrite, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},

	{order.ErrInvalidOrderID, http.StatusBadRequest, "INVALID_ORDER_ID"},
	{command.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{order.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{order.ErrNotCancellable, http.StatusBadRequest, "ORDER_NOT_CANCELLABLE"},
	{order.ErrOrderAlreadyPaid, http.StatusBadRequest, "ORDER_ALREADY_PAID"},
	{order.ErrOrderNotPayable, http.StatusBadRequest, "ORDER_NOT_PAYABLE"},
	{order.ErrInvalidTransition, http.StatusBadRequest, "INVALID_STATUS_TRANSITION"},
	{order.ErrUnknownStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{payment.ErrInvalidPaymentData, http.StatusBadRequest, "INVALID_PAYMENT_DATA"},
	{payment.ErrAmountMismatch, http.StatusBadRequest, "AMOUNT_MISMATCH"},
	{payment.ErrUnsupportedMethod, http.StatusBadRequest, "UNSUPPORTED_PAYMENT_METHOD"},

	{product.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{product.ErrInsufficientStock, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	{product.ErrInvalidName, http.StatusBadRequest, "VALIDATION_ERROR"},
	{product.ErrInvalidPrice, http.StatusBadRequest, "VALIDATION_ERROR"},
	{product.ErrInvalidStock, http.StatusBadRequest, "VALIDATION_ERROR"},
	{cart.ErrInvalidCartItem, http.StatusBadRequest, "INVALID_CART_ITEM"},
	{cart.ErrEmptyCart, http.StatusBadRequest, "EMPTY_CART"},
	{cart.ErrItemNotFound, http.StatusNotFound, "CART_ITEM_NOT_FOUND"},

	{user.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{user.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{user.ErrWrongPassword, http.StatusBadRequest, "INVALID_CURRENT_PASSWORD"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{auth.ErrExpiredToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{user.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{user.ErrInvalidEmail, http.StatusBadRequest, "VALIDATION_ERROR"},
	{user.ErrInvalidName, http.StatusBadRequest, "VALIDATION_ERROR"},
	{auth.ErrPasswordTooShort, http.StatusBadRequest, "VALIDATION_ERROR"},
	{auth.ErrPasswordTooLong, http.StatusBadRequest, "VALIDATION_ERROR"},
	{money.ErrInvalidAmount, http.StatusBadRequest, "VALIDATION_ERROR"},
}

// responder carries what writeError needs; both handler sets embed it.
type responder struct {
	logger     *logrus.Entry
	production bool
}

// writeError maps err to a status and code. Server errors are logged and
// their text is only exposed outside production.
func (h responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			status, code = m.status, m.code
			break
		}
	}

	if status < http.StatusInternalServerError {
		respondError(w, r, status, code, err.Error(), "")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"requestId": chimw.GetReqID(r.Context()),
		"code":      code,
		"path":      r.URL.Path,
	}).WithError(err).Error("Request failed")

	var details string
	if !h.production {
		details = err.Error()
	}
	respondError(w, r, status, code, serverErrorMessage(code), details)
}

func serverErrorMessage(code string) string {
	if code == "UPDATE_ORDER_ERROR" {
		return "failed to update order"
	}
	return "internal server error"
}

// decode reads a JSON body; an empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h responder) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", message, "")
}
