// Package risk computes tail statistics over simulated outcomes.
package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

// Tail describes the lower tail of a sample
type Tail struct {
	Count int
	Mean  float64
	// StdDev is the sample standard deviation
	StdDev float64
	// Quantile is the historical (1 − confidence) quantile
	Quantile float64
	// ExpectedShortfall is the mean of the observations at or below Quantile
	ExpectedShortfall float64
}

// LowerTail sorts a copy of values and reads the historical quantile at
// 1 − confidence together with the expected shortfall beyond it.
func LowerTail(values []float64, confidence float64) (Tail, error) {
	if len(values) == 0 {
		return Tail{}, errors.InvalidArgument("tail statistics need at least one observation")
	}
	if !(confidence > 0 && confidence < 1) {
		return Tail{}, errors.Newf(errors.ErrorTypeInvalidArgument, "confidence %g outside (0, 1)", confidence)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}

	return Tail{
		Count:             len(sorted),
		Mean:              mean,
		StdDev:            std,
		Quantile:          sorted[index],
		ExpectedShortfall: stat.Mean(sorted[:index+1], nil),
	}, nil
}
