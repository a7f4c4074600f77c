package montecarlo

import (
	"math"
	"time"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// Calibration summarizes one moment-matching run
type Calibration struct {
	Handle Handle
	Paths  int

	Moment1 []float64
	Moment2 []float64

	// EmpiricalVols are the annualized volatilities measured on the
	// uncorrected paths.
	EmpiricalVols []float64

	Duration time.Duration
}

// CalibratorOption configures a Calibrator
type CalibratorOption func(*Calibrator)

// WithProgress registers a callback invoked after every simulated path
func WithProgress(fn func(done, total int)) CalibratorOption {
	return func(c *Calibrator) {
		c.progress = fn
	}
}

// Calibrator matches the first two moments of simulated paths to the
// term structure's forwards and volatilities
type Calibrator struct {
	sim      *Simulator
	progress func(done, total int)
	log      *logger.Logger
}

// NewCalibrator creates a calibrator that drives the given simulator
func NewCalibrator(sim *Simulator, opts ...CalibratorOption) *Calibrator {
	c := &Calibrator{
		sim: sim,
		log: logger.GetLogger("montecarlo.calibrator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calibrate resets the moments of a term structure, runs the full
// antithetic path population through the simulator and writes back
//
//	moment1 = forward − mean(level)
//	moment2 = σ / (√(Σ ln(level/forward)² / (count−1)) / √(t/365))
//
// per asset. A path stops contributing at its first negative level. The
// result is a fixed point: calibrating again reproduces the same moments.
func (c *Calibrator) Calibrate(h Handle) (*Calibration, error) {
	start := time.Now()

	ts, err := c.sim.registry.lookupPopulated(h)
	if err != nil {
		return nil, err
	}
	if !c.sim.grid.Loaded() {
		return nil, errors.ResourceUnavailable("grid is not loaded")
	}
	ts.resetMoments()

	n := ts.Assets()
	sum := make([]float64, n)
	sumSq := make([]float64, n)
	count := make([]int, n)

	for i := 0; i < TotalPaths; i++ {
		path, err := c.sim.Simulate(h, i)
		if err != nil {
			return nil, errors.Wrapf(err, "calibrate term structure %d at path %d", h, i)
		}

		for j := 0; j < n && path[j] >= 0; j++ {
			logReturn := math.Log(path[j] / ts.Forwards[j])
			sum[j] += path[j]
			sumSq[j] += logReturn * logReturn
			count[j]++
		}

		if c.progress != nil {
			c.progress(i+1, TotalPaths)
		}
	}

	result := &Calibration{
		Handle:        h,
		Paths:         TotalPaths,
		EmpiricalVols: make([]float64, n),
	}

	for j := 0; j < n; j++ {
		if count[j] < 2 {
			c.log.Warnf("Term structure %d asset %d has %d usable paths, moments left neutral", h, j, count[j])
			result.EmpiricalVols[j] = math.NaN()
			continue
		}

		empiricalVol := math.Sqrt(sumSq[j]/float64(count[j]-1)) / math.Sqrt(ts.Days[j]/DaysPerYear)
		ts.Moment1[j] = ts.Forwards[j] - sum[j]/float64(count[j])
		ts.Moment2[j] = ts.Volatilities[j] / empiricalVol
		result.EmpiricalVols[j] = empiricalVol
	}

	result.Moment1 = append([]float64(nil), ts.Moment1...)
	result.Moment2 = append([]float64(nil), ts.Moment2...)
	result.Duration = time.Since(start)

	c.log.Debugf("Calibrated term structure %d over %d paths in %s", h, TotalPaths, result.Duration)
	return result, nil
}
