package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, g prometheus.Gatherer) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(g).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecorderCountsCalibrations(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordCalibration(nil, 20*time.Millisecond)
	r.RecordCalibration(nil, 30*time.Millisecond)
	r.RecordCalibration(errors.New("boom"), 0)

	body := scrape(t, reg)
	assert.Contains(t, body, `qa_calibrations_total{status="ok"} 2`)
	assert.Contains(t, body, `qa_calibrations_total{status="error"} 1`)
	assert.Contains(t, body, "qa_calibration_duration_seconds_count 2")
}

func TestRecorderGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordGridLoaded(91000)
	r.RecordTermStructures(3)
	r.RecordSimulations("api", 2000)
	r.RecordPricing("basket_volatility", nil)

	body := scrape(t, reg)
	assert.Contains(t, body, "qa_grid_values_loaded 91000")
	assert.Contains(t, body, "qa_term_structures_active 3")
	assert.Contains(t, body, `qa_simulations_total{source="api"} 2000`)
	assert.Contains(t, body, `qa_pricing_requests_total{function="basket_volatility",status="ok"} 1`)
}

func TestRecorderAPIRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.RecordAPIRequest("GET", "/api/v1/grid", 200, 5*time.Millisecond)

	assert.Contains(t, scrape(t, reg), `qa_api_requests_total{method="GET",path="/api/v1/grid",status="200"} 1`)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordAPIRequest("GET", "/health", 200, time.Millisecond)
		r.RecordCalibration(nil, time.Second)
		r.RecordPricing("black_scholes", nil)
		r.RecordPublishFailure()
		r.RecordRuntime()
	})
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(prometheus.NewRegistry())
		NewRecorder(prometheus.NewRegistry())
	})
}
