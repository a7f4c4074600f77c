package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Monte Carlo metrics
	gridValuesGauge       prometheus.Gauge
	termStructuresGauge   prometheus.Gauge
	simulationCounter     *prometheus.CounterVec
	calibrationCounter    *prometheus.CounterVec
	calibrationLatency    prometheus.Histogram
	publishFailureCounter prometheus.Counter

	// Pricing metrics
	pricingCounter *prometheus.CounterVec

	// System metrics
	memoryUsageGauge    prometheus.Gauge
	goroutineCountGauge prometheus.Gauge
}

// NewRecorder creates a recorder whose metrics are registered with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		// API metrics
		apiRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qa_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // From 1ms to ~16s
			},
			[]string{"method", "path"},
		),

		// Monte Carlo metrics
		gridValuesGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "qa_grid_values_loaded",
				Help: "Number of random draws held by the grid",
			},
		),
		termStructuresGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "qa_term_structures_active",
				Help: "Number of allocated term structures",
			},
		),
		simulationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_simulations_total",
				Help: "The total number of simulated paths",
			},
			[]string{"source"},
		),
		calibrationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_calibrations_total",
				Help: "The total number of moment calibrations",
			},
			[]string{"status"},
		),
		calibrationLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qa_calibration_duration_seconds",
				Help:    "Moment calibration latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // From 1ms to ~8s
			},
		),
		publishFailureCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qa_calibration_publish_failures_total",
				Help: "Calibration results that could not be published",
			},
		),

		// Pricing metrics
		pricingCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qa_pricing_requests_total",
				Help: "The total number of closed-form pricing calls",
			},
			[]string{"function", "status"},
		),

		// System metrics
		memoryUsageGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "qa_memory_usage_bytes",
				Help: "Memory usage of the application in bytes",
			},
		),
		goroutineCountGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "qa_goroutine_count",
				Help: "Number of goroutines",
			},
		),
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	if r == nil {
		return
	}
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordGridLoaded records the number of values held by the grid
func (r *Recorder) RecordGridLoaded(values int) {
	if r == nil {
		return
	}
	r.gridValuesGauge.Set(float64(values))
}

// RecordTermStructures records the number of allocated term structures
func (r *Recorder) RecordTermStructures(active int) {
	if r == nil {
		return
	}
	r.termStructuresGauge.Set(float64(active))
}

// RecordSimulations counts simulated paths by caller
func (r *Recorder) RecordSimulations(source string, paths int) {
	if r == nil {
		return
	}
	r.simulationCounter.WithLabelValues(source).Add(float64(paths))
}

// RecordCalibration records the outcome and latency of a calibration
func (r *Recorder) RecordCalibration(err error, latency time.Duration) {
	if r == nil {
		return
	}
	r.calibrationCounter.WithLabelValues(statusLabel(err)).Inc()
	if err == nil {
		r.calibrationLatency.Observe(latency.Seconds())
	}
}

// RecordPublishFailure counts a calibration result that was not published
func (r *Recorder) RecordPublishFailure() {
	if r == nil {
		return
	}
	r.publishFailureCounter.Inc()
}

// RecordPricing records a pricing call
func (r *Recorder) RecordPricing(function string, err error) {
	if r == nil {
		return
	}
	r.pricingCounter.WithLabelValues(function, statusLabel(err)).Inc()
}

// RecordRuntime samples memory usage and goroutine count
func (r *Recorder) RecordRuntime() {
	if r == nil {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.memoryUsageGauge.Set(float64(ms.Alloc))
	r.goroutineCountGauge.Set(float64(runtime.NumGoroutine()))
}
