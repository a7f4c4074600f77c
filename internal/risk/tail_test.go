package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

func TestLowerTail(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		// 100, 99, ..., 1
		values[i] = float64(100 - i)
	}

	tail, err := LowerTail(values, 0.95)
	require.NoError(t, err)

	assert.Equal(t, 100, tail.Count)
	assert.InDelta(t, 50.5, tail.Mean, 1e-12)
	assert.Equal(t, 6.0, tail.Quantile)
	assert.InDelta(t, 3.5, tail.ExpectedShortfall, 1e-12)

	// input order is untouched
	assert.Equal(t, 100.0, values[0])
}

func TestLowerTailSingleObservation(t *testing.T) {
	tail, err := LowerTail([]float64{42}, 0.99)
	require.NoError(t, err)
	assert.Equal(t, 42.0, tail.Quantile)
	assert.Equal(t, 42.0, tail.ExpectedShortfall)
	assert.Zero(t, tail.StdDev)
}

func TestLowerTailRejectsInputs(t *testing.T) {
	_, err := LowerTail(nil, 0.95)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))

	for _, c := range []float64{0, 1, -0.5, 1.5} {
		_, err := LowerTail([]float64{1, 2}, c)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument), "confidence %g", c)
	}
}
