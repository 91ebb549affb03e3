package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/rv-park/backend/internal/metrics"
	"github.com/pkordes/rv-park/backend/internal/middleware"
)

// TestMetricsHandler_countsByRoutePattern verifies that requests are counted
// under the chi route pattern, not the raw path.
func TestMetricsHandler_countsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.NewMetricsHandler())
	r.Get("/campsites/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/campsites/{id}", "404")
	before := testutil.ToFloat64(c)

	for _, path := range []string{"/campsites/1", "/campsites/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(c))
}
