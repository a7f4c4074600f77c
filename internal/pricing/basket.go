package pricing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

// MaxBasketConstituents bounds BasketVolatility inputs
const MaxBasketConstituents = 50

// BasketVolatility returns √(Σᵢⱼ wᵢσᵢ ρᵢⱼ wⱼσⱼ). The correlation matrix must
// be square with a unit diagonal.
func BasketVolatility(weights, volatilities []float64, correlations [][]float64) (float64, error) {
	n := len(weights)
	if n > MaxBasketConstituents || len(volatilities) > MaxBasketConstituents {
		return 0, errors.Newf(errors.ErrorTypeCapacityExceeded,
			"basket has %d constituents, limit is %d", max(n, len(volatilities)), MaxBasketConstituents)
	}
	if n == 0 || len(volatilities) != n {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument,
			"basket has %d weights and %d volatilities", n, len(volatilities))
	}
	if len(correlations) != n {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "correlation matrix has %d rows, want %d", len(correlations), n)
	}

	corr := mat.NewDense(n, n, nil)
	for i, row := range correlations {
		if len(row) != n {
			return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "correlation row %d has %d entries, want %d", i, len(row), n)
		}
		if row[i] != 1 {
			return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "correlation diagonal %d is %g, want 1", i, row[i])
		}
		corr.SetRow(i, row)
	}

	scaled := mat.NewVecDense(n, nil)
	for i := range weights {
		scaled.SetVec(i, weights[i]*volatilities[i])
	}

	variance := mat.Inner(scaled, corr, scaled)
	if variance < 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "basket variance %g is negative", variance)
	}
	return math.Sqrt(variance), nil
}
