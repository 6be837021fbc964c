package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := logrus.Fields{
				"method":     r.Method,
				"route":      routePattern(r),
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  chimw.GetReqID(r.Context()),
			}
			entry := logger.WithFields(fields)
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				entry.Error("Request failed")
			case ww.Status() >= http.StatusBadRequest:
				entry.Warn("Request rejected")
			default:
				entry.Info("Request handled")
			}
		})
	}
}

// routePattern is the matched chi pattern, so /api/orders/{id} is one
// label rather than one per order.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
