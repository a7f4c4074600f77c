// Package engine serialises access to the Monte Carlo core and connects it
// to metrics and calibration publishing.
package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/internal/risk"
	"github.com/rzzdr/quant-analytics/pkg/metrics"
	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
	"github.com/rzzdr/quant-analytics/pkg/utils/pools"
)

// CalibrationPublisher receives every successful calibration
type CalibrationPublisher interface {
	PublishCalibration(ctx context.Context, event *models.CalibrationEvent) error
}

// Option configures an Engine
type Option func(*Engine)

// WithRecorder attaches a metrics recorder
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithPublisher attaches a calibration publisher
func WithPublisher(p CalibrationPublisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// Engine owns one grid and one term structure registry. All methods are
// safe for concurrent use; calls are serialised.
type Engine struct {
	mu         sync.Mutex
	grid       *montecarlo.Grid
	gridSource string
	registry   *montecarlo.Registry
	sim        *montecarlo.Simulator
	levels     *pools.Float64SlicePool

	recorder  *metrics.Recorder
	publisher CalibrationPublisher
	log       *logger.Logger
}

// New creates an engine with a registry of the given capacity
func New(capacity int, opts ...Option) *Engine {
	grid := montecarlo.NewGrid()
	registry := montecarlo.NewRegistry(capacity)

	e := &Engine{
		grid:     grid,
		registry: registry,
		sim:      montecarlo.NewSimulator(grid, registry),
		levels:   pools.NewFloat64SlicePool(montecarlo.TotalPaths),
		log:      logger.GetLogger("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPublisher replaces the calibration publisher
func (e *Engine) SetPublisher(p CalibrationPublisher) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.publisher = p
}

// LoadGridFile loads the grid from a CSV file. A loaded grid is kept.
func (e *Engine) LoadGridFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.grid.LoadFile(path); err != nil {
		return err
	}
	if e.gridSource == "" {
		e.gridSource = path
	}
	e.recorder.RecordGridLoaded(e.grid.Count())
	return nil
}

// LoadGrid loads the grid from a reader. A loaded grid is kept.
func (e *Engine) LoadGrid(r io.Reader, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.grid.Loaded() {
		return nil
	}
	if err := e.grid.Load(r); err != nil {
		return err
	}
	e.gridSource = source
	e.recorder.RecordGridLoaded(e.grid.Count())
	return nil
}

// GridStatus reports what the grid holds
func (e *Engine) GridStatus() models.GridStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.GridStatus{
		Loaded: e.grid.Loaded(),
		Values: e.grid.Count(),
		Paths:  e.grid.Count() / montecarlo.MaxAssets,
		Source: e.gridSource,
	}
}

// ReleaseGrid drops the grid so another can be loaded
func (e *Engine) ReleaseGrid() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.grid.Destroy()
	e.gridSource = ""
	e.recorder.RecordGridLoaded(0)
}

// CreateTermStructure allocates a slot and populates it. The slot is
// released again if the data is rejected.
func (e *Engine) CreateTermStructure(forwards, volatilities, tenors []float64) (montecarlo.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, err := e.registry.Allocate()
	if err != nil {
		return h, err
	}

	if err := e.registry.Populate(h, forwards, volatilities, tenors); err != nil {
		_ = e.registry.Release(h)
		return -1, err
	}

	e.recorder.RecordTermStructures(e.registry.Len())
	return h, nil
}

// PopulateTermStructure replaces the data of an existing slot
func (e *Engine) PopulateTermStructure(h montecarlo.Handle, forwards, volatilities, tenors []float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Populate(h, forwards, volatilities, tenors)
}

// TermStructure returns a copy of a slot
func (e *Engine) TermStructure(h montecarlo.Handle) (*montecarlo.TermStructure, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Get(h)
}

// ReleaseTermStructure frees a slot
func (e *Engine) ReleaseTermStructure(h montecarlo.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.registry.Release(h); err != nil {
		return err
	}
	e.recorder.RecordTermStructures(e.registry.Len())
	return nil
}

// Calibrate runs moment matching on a term structure and publishes the
// result. A publish failure is logged and counted but does not fail the
// calibration.
func (e *Engine) Calibrate(ctx context.Context, h montecarlo.Handle, progress func(done, total int)) (*models.CalibrationEvent, error) {
	e.mu.Lock()
	var opts []montecarlo.CalibratorOption
	if progress != nil {
		opts = append(opts, montecarlo.WithProgress(progress))
	}
	result, err := montecarlo.NewCalibrator(e.sim, opts...).Calibrate(h)
	publisher := e.publisher
	e.mu.Unlock()

	if err != nil {
		e.recorder.RecordCalibration(err, 0)
		return nil, err
	}
	e.recorder.RecordCalibration(nil, result.Duration)
	e.recorder.RecordSimulations("calibration", result.Paths)

	event := calibrationEvent(result)
	if publisher != nil {
		if err := publisher.PublishCalibration(ctx, event); err != nil {
			e.recorder.RecordPublishFailure()
			e.log.Errorf("Failed to publish calibration %s for term structure %d: %v", event.ID, h, err)
		}
	}

	return event, nil
}

func calibrationEvent(c *montecarlo.Calibration) *models.CalibrationEvent {
	return &models.CalibrationEvent{
		ID:            uuid.New().String(),
		Handle:        int(c.Handle),
		Assets:        len(c.Moment1),
		Paths:         c.Paths,
		Moment1:       c.Moment1,
		Moment2:       c.Moment2,
		EmpiricalVols: c.EmpiricalVols,
		DurationMs:    float64(c.Duration) / float64(time.Millisecond),
		Timestamp:     time.Now().UTC(),
	}
}

// Simulate returns one path
func (e *Engine) Simulate(h montecarlo.Handle, index int, source string) (montecarlo.Path, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	path, err := e.sim.Simulate(h, index)
	if err == nil {
		e.recorder.RecordSimulations(source, 1)
	}
	return path, err
}

// Summarize simulates every path of a term structure and reports the lower
// tail of each tenor's level at the given confidence. Paths stop counting
// for a tenor at their first negative level.
func (e *Engine) Summarize(h montecarlo.Handle, confidence float64) (*models.SimulationSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts, err := e.registry.Get(h)
	if err != nil {
		return nil, err
	}
	if !ts.Populated() {
		return nil, errors.Newf(errors.ErrorTypeInvalidArgument, "term structure %d has not been populated", h)
	}

	n := ts.Assets()
	levels := make([][]float64, n)
	for j := range levels {
		levels[j] = e.levels.Get()
	}
	defer func() {
		for _, l := range levels {
			e.levels.Put(l)
		}
	}()

	for i := 0; i < montecarlo.TotalPaths; i++ {
		path, err := e.sim.Simulate(h, i)
		if err != nil {
			return nil, err
		}
		for j := 0; j < n && path[j] >= 0; j++ {
			levels[j] = append(levels[j], path[j])
		}
	}
	e.recorder.RecordSimulations("summary", montecarlo.TotalPaths)

	summary := &models.SimulationSummary{
		Handle:     int(h),
		Confidence: confidence,
		Assets:     make([]models.AssetSummary, 0, n),
	}
	for j := 0; j < n; j++ {
		tail, err := risk.LowerTail(levels[j], confidence)
		if err != nil {
			return nil, errors.Wrapf(err, "tenor %g", ts.Days[j])
		}
		summary.Assets = append(summary.Assets, models.AssetSummary{
			Tenor:             ts.Days[j],
			Forward:           ts.Forwards[j],
			Paths:             tail.Count,
			Mean:              tail.Mean,
			StdDev:            tail.StdDev,
			Quantile:          tail.Quantile,
			ExpectedShortfall: tail.ExpectedShortfall,
		})
	}
	return summary, nil
}

// TermStructureCount returns the number of allocated slots
func (e *Engine) TermStructureCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Len()
}

// Close releases every term structure and the grid
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.Destroy()
	e.grid.Destroy()
	e.gridSource = ""
	e.recorder.RecordTermStructures(0)
	e.recorder.RecordGridLoaded(0)
	e.log.Info("Engine closed")
}
