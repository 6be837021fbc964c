package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.OutboxPublished.WithLabelValues("order.cancelled").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.OutboxPublished.WithLabelValues("order.cancelled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OutboxPublished.WithLabelValues("order.cancelled")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.Requests.WithLabelValues("POST", "/api/payments", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="POST",route="/api/payments",status="200"} 1`)
}
