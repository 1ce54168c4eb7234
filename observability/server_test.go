package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHandlerHealth(t *testing.T) {
	h := NewHandler(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHandlerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ForecastsCreated.Inc()
	m.CacheLookups.WithLabelValues("hit").Inc()

	rec := httptest.NewRecorder()
	NewHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crowdflow_forecasts_created_total 1")
	assert.Contains(t, rec.Body.String(), `crowdflow_forecast_cache_lookups_total{result="hit"} 1`)
}

func TestNewMetricsUsesSeparateRegistries(t *testing.T) {
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.ForecastConflicts.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ForecastConflicts))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ForecastConflicts))
}
