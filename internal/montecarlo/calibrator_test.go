package montecarlo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

var (
	calibForwards = []float64{100, 102, 104}
	calibVols     = []float64{0.20, 0.22, 0.25}
	calibTenors   = []float64{30, 90, 180}
)

// simulatedLevels collects every path's level per asset after moments are applied.
func simulatedLevels(t *testing.T, sim *Simulator, h Handle, n int) [][]float64 {
	t.Helper()
	levels := make([][]float64, n)
	for i := 0; i < TotalPaths; i++ {
		path, err := sim.Simulate(h, i)
		require.NoError(t, err)
		for j := 0; j < n; j++ {
			levels[j] = append(levels[j], path[j])
		}
	}
	return levels
}

func TestCalibrateMatchesForwardsAndVolatilities(t *testing.T) {
	sim, h := populatedEngine(t, normalGridCSV(11), calibForwards, calibVols, calibTenors)

	result, err := NewCalibrator(sim).Calibrate(h)
	require.NoError(t, err)
	assert.Equal(t, TotalPaths, result.Paths)
	require.Len(t, result.Moment1, 3)
	require.Len(t, result.Moment2, 3)

	levels := simulatedLevels(t, sim, h, len(calibForwards))
	for j, forward := range calibForwards {
		assert.InDelta(t, forward, stat.Mean(levels[j], nil), 0.25, "mean of asset %d", j)

		sumSq := 0.0
		for _, level := range levels[j] {
			r := math.Log(level / forward)
			sumSq += r * r
		}
		measured := math.Sqrt(sumSq/float64(len(levels[j])-1)) / math.Sqrt(calibTenors[j]/DaysPerYear)
		assert.InEpsilon(t, calibVols[j], measured, 0.01, "volatility of asset %d", j)

		assert.InEpsilon(t, calibVols[j], result.EmpiricalVols[j], 0.1)
	}
}

func TestCalibrateIsFixedPoint(t *testing.T) {
	sim, h := populatedEngine(t, normalGridCSV(12), calibForwards, calibVols, calibTenors)
	cal := NewCalibrator(sim)

	first, err := cal.Calibrate(h)
	require.NoError(t, err)
	second, err := cal.Calibrate(h)
	require.NoError(t, err)

	assert.Equal(t, first.Moment1, second.Moment1)
	assert.Equal(t, first.Moment2, second.Moment2)

	ts, err := sim.Registry().Get(h)
	require.NoError(t, err)
	assert.Equal(t, second.Moment1, ts.Moment1)
	assert.Equal(t, second.Moment2, ts.Moment2)
}

func TestCalibrateReportsProgress(t *testing.T) {
	sim, h := populatedEngine(t, zeroGrid, scenarioForwards, scenarioVols, scenarioTenors)

	calls, last := 0, 0
	cal := NewCalibrator(sim, WithProgress(func(done, total int) {
		calls++
		last = done
		assert.Equal(t, TotalPaths, total)
	}))

	_, err := cal.Calibrate(h)
	require.NoError(t, err)
	assert.Equal(t, TotalPaths, calls)
	assert.Equal(t, TotalPaths, last)
}

func TestCalibrateLeavesUnusableAssetNeutral(t *testing.T) {
	// total variance shrinks between the tenors, so the second level is NaN
	sim, h := populatedEngine(t, normalGridCSV(13), []float64{100, 100}, []float64{0.5, 0.1}, []float64{30, 60})

	result, err := NewCalibrator(sim).Calibrate(h)
	require.NoError(t, err)

	assert.NotEqual(t, 1.0, result.Moment2[0])
	assert.Zero(t, result.Moment1[1])
	assert.Equal(t, 1.0, result.Moment2[1])
	assert.True(t, math.IsNaN(result.EmpiricalVols[1]))
}

func TestCalibrateUnpopulatedHandle(t *testing.T) {
	reg := NewRegistry(1)
	h, _ := reg.Allocate()
	sim := NewSimulator(loadedGrid(t, zeroGrid), reg)

	_, err := NewCalibrator(sim).Calibrate(h)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
}

func TestCalibrateWithoutGridKeepsMoments(t *testing.T) {
	grid := loadedGrid(t, normalGridCSV(14))
	reg := NewRegistry(1)
	h, err := reg.Allocate()
	require.NoError(t, err)
	require.NoError(t, reg.Populate(h, calibForwards, calibVols, calibTenors))
	cal := NewCalibrator(NewSimulator(grid, reg))

	first, err := cal.Calibrate(h)
	require.NoError(t, err)

	grid.Destroy()
	_, err = cal.Calibrate(h)
	assert.True(t, errors.IsType(err, errors.ErrorTypeResourceUnavailable))

	ts, err := reg.Get(h)
	require.NoError(t, err)
	assert.Equal(t, first.Moment1, ts.Moment1)
	assert.Equal(t, first.Moment2, ts.Moment2)
}
