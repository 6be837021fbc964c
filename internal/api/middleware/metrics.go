package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/example/storefront/internal/metrics"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Metrics records request counts and latency per route.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.Latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
