package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

func straddle(days float64) []Option {
	return []Option{
		{Type: Call, Underlying: 100, Strike: 100, Volatility: 0.2, DaysToExpiry: days, Rate: 0.05},
		{Type: Put, Underlying: 100, Strike: 100, Volatility: 0.2, DaysToExpiry: days, Rate: 0.05},
	}
}

func agedValue(t *testing.T, portfolio []Option, horizon, price float64) float64 {
	t.Helper()
	aged := make([]Option, len(portfolio))
	for i, opt := range portfolio {
		opt.DaysToExpiry = math.Max(opt.DaysToExpiry-horizon, 0)
		opt.Underlying = price
		aged[i] = opt
	}
	v, err := RevalueOptions(aged, Value)
	require.NoError(t, err)
	return v
}

func TestHorizonBreakevenStraddle(t *testing.T) {
	portfolio := straddle(90)
	base, err := RevalueOptions(portfolio, Value)
	require.NoError(t, err)

	up, err := HorizonBreakeven(portfolio, 30, Up, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, 104.5497, up, 1e-3)
	assert.InDelta(t, base, agedValue(t, portfolio, 30, up), 1e-6)

	down, err := HorizonBreakeven(portfolio, 30, Down, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, 93.2626, down, 1e-3)
	assert.InDelta(t, base, agedValue(t, portfolio, 30, down), 1e-6)

	// inputs are not modified
	assert.Equal(t, straddle(90), portfolio)
}

func TestHorizonBreakevenAtExpiry(t *testing.T) {
	call := []Option{{Type: Call, Underlying: 100, Strike: 100, Volatility: 0.2, DaysToExpiry: 30, Rate: 0.05}}
	base, err := RevalueOptions(call, Value)
	require.NoError(t, err)

	// expired at the horizon, so the breakeven sits at strike plus premium
	up, err := HorizonBreakeven(call, 30, Up, 1e-9)
	require.NoError(t, err)
	assert.InDelta(t, 100+base, up, 1e-9)

	// below the strike the aged call has no delta
	_, err = HorizonBreakeven(call, 30, Down, 1e-9)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotConverged))
}

func TestHorizonBreakevenZeroHorizon(t *testing.T) {
	be, err := HorizonBreakeven(straddle(60), 0, Down, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, 100.0, be)
}

func TestHorizonBreakevenRejectsBadInputs(t *testing.T) {
	_, err := HorizonBreakeven(nil, 10, Up, 1e-6)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))

	_, err = HorizonBreakeven(straddle(30), -1, Up, 1e-6)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))

	_, err = HorizonBreakeven(straddle(30), 10, Up, 0)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
}
