package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Use(RequestLogger(logging.Discard()))
	r.Get("/api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/api/orders/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Latency))
}
