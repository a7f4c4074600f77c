package montecarlo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

var (
	scenarioForwards = []float64{100, 100}
	scenarioVols     = []float64{0.20, 0.25}
	scenarioTenors   = []float64{30, 90}
)

func TestRegistryExhaustion(t *testing.T) {
	reg := NewRegistry(0)
	require.Equal(t, MaxTermStructures, reg.Capacity())

	seen := make(map[Handle]bool)
	for i := 0; i < reg.Capacity(); i++ {
		h, err := reg.Allocate()
		require.NoError(t, err)
		require.False(t, seen[h], "handle %d handed out twice", h)
		seen[h] = true
	}

	h, err := reg.Allocate()
	assert.Equal(t, Handle(-1), h)
	assert.True(t, errors.IsType(err, errors.ErrorTypeResourceExhausted))

	for h := range seen {
		_, err := reg.Get(h)
		assert.NoError(t, err, "handle %d should stay valid", h)
	}
	assert.Equal(t, reg.Capacity(), reg.Len())
}

func TestPopulateTwoTenorScenario(t *testing.T) {
	reg := NewRegistry(4)
	h, err := reg.Allocate()
	require.NoError(t, err)
	require.NoError(t, reg.Populate(h, scenarioForwards, scenarioVols, scenarioTenors))

	ts, err := reg.Get(h)
	require.NoError(t, err)
	require.Equal(t, 2, ts.Assets())
	require.Len(t, ts.Factor, 2)

	assert.Equal(t, 1.0, ts.Factor[0][0])

	s0 := 0.20 * math.Sqrt(30.0/365.0)
	s1 := 0.25 * math.Sqrt(90.0/365.0)
	rho := s0 / s1
	assert.InDelta(t, rho, ts.Factor[1][0], 1e-12)
	assert.InDelta(t, math.Sqrt(1-rho*rho), ts.Factor[1][1], 1e-12)
	assert.Zero(t, ts.Factor[0][1])

	assert.Equal(t, []float64{0, 0}, ts.Moment1)
	assert.Equal(t, []float64{1, 1}, ts.Moment2)
}

func TestPopulateIsIdempotent(t *testing.T) {
	reg := NewRegistry(2)
	h, _ := reg.Allocate()

	forwards := []float64{100, 101, 103, 104}
	vols := []float64{0.2, 0.22, 0.23, 0.25}
	tenors := []float64{30, 60, 120, 365}

	require.NoError(t, reg.Populate(h, forwards, vols, tenors))
	first, _ := reg.Get(h)
	require.NoError(t, reg.Populate(h, forwards, vols, tenors))
	second, _ := reg.Get(h)

	assert.Equal(t, first, second)
}

func TestPopulateStopsAtFirstNonPositiveTenor(t *testing.T) {
	reg := NewRegistry(1)
	h, _ := reg.Allocate()

	require.NoError(t, reg.Populate(h,
		[]float64{100, 101, 102, 103},
		[]float64{0.2, 0.2, 0.2, 0.2},
		[]float64{30, 60, 0, 120},
	))

	ts, _ := reg.Get(h)
	assert.Equal(t, []float64{30, 60}, ts.Days)
	assert.Len(t, ts.Factor, 2)
}

func TestRepopulateReplacesLongerCurve(t *testing.T) {
	reg := NewRegistry(1)
	h, _ := reg.Allocate()

	require.NoError(t, reg.Populate(h, []float64{1, 2, 3}, []float64{0.1, 0.1, 0.1}, []float64{10, 20, 30}))
	require.NoError(t, reg.Populate(h, []float64{5}, []float64{0.3}, []float64{90}))

	ts, _ := reg.Get(h)
	assert.Equal(t, 1, ts.Assets())
	assert.Equal(t, []float64{5}, ts.Forwards)
}

func TestPopulateValidation(t *testing.T) {
	longTenors := make([]float64, MaxAssets+1)
	longValues := make([]float64, MaxAssets+1)
	for i := range longTenors {
		longTenors[i] = float64(i + 1)
		longValues[i] = 1
	}

	tests := []struct {
		name     string
		forwards []float64
		vols     []float64
		tenors   []float64
		want     errors.ErrorType
	}{
		{"no tenor", []float64{100}, []float64{0.2}, []float64{0}, errors.ErrorTypeInvalidArgument},
		{"negative volatility", []float64{100, 100}, []float64{0.2, -0.1}, []float64{30, 60}, errors.ErrorTypeInvalidArgument},
		{"non-positive forward", []float64{0}, []float64{0.2}, []float64{30}, errors.ErrorTypeInvalidArgument},
		{"non-increasing tenor", []float64{100, 100}, []float64{0.2, 0.2}, []float64{60, 60}, errors.ErrorTypeInvalidArgument},
		{"short forwards", []float64{100}, []float64{0.2, 0.2}, []float64{30, 60}, errors.ErrorTypeInvalidArgument},
		{"too many tenors", longValues, longValues, longTenors, errors.ErrorTypeCapacityExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(1)
			h, _ := reg.Allocate()

			err := reg.Populate(h, tt.forwards, tt.vols, tt.tenors)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.TypeOf(err))

			ts, _ := reg.Get(h)
			assert.False(t, ts.Populated())
		})
	}
}

func TestPopulateUnallocatedHandle(t *testing.T) {
	reg := NewRegistry(3)
	for _, h := range []Handle{-1, 0, 3} {
		err := reg.Populate(h, scenarioForwards, scenarioVols, scenarioTenors)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound), "handle %d", h)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	reg := NewRegistry(1)
	h, _ := reg.Allocate()
	require.NoError(t, reg.Populate(h, scenarioForwards, scenarioVols, scenarioTenors))

	ts, _ := reg.Get(h)
	ts.Forwards[0] = -1
	ts.Factor[0][0] = 42

	fresh, _ := reg.Get(h)
	assert.Equal(t, 100.0, fresh.Forwards[0])
	assert.Equal(t, 1.0, fresh.Factor[0][0])
}

func TestReleaseFreesSlotForReuse(t *testing.T) {
	reg := NewRegistry(2)
	a, _ := reg.Allocate()
	b, _ := reg.Allocate()

	require.NoError(t, reg.Release(a))
	assert.True(t, errors.IsType(reg.Release(a), errors.ErrorTypeNotFound))

	c, err := reg.Allocate()
	require.NoError(t, err)
	assert.Equal(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestDestroyFreesSparsePool(t *testing.T) {
	reg := NewRegistry(5)
	for i := 0; i < 5; i++ {
		_, err := reg.Allocate()
		require.NoError(t, err)
	}

	// leave a gap in front of occupied slots
	require.NoError(t, reg.Release(0))
	require.NoError(t, reg.Release(2))
	require.Equal(t, 3, reg.Len())

	reg.Destroy()
	assert.Zero(t, reg.Len())

	for _, h := range []Handle{1, 3, 4} {
		_, err := reg.Get(h)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound), "handle %d survived teardown", h)
	}
}
