package montecarlo

import (
	"math"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

// Decompose returns the lower-triangular Cholesky factor L of a square
// matrix so that L·Lᵗ reconstructs it. Only the upper triangle
// (matrix[i][j], j >= i) is read. There is no pivoting and no repair: a
// matrix that is not positive definite yields NaN entries, not an error.
func Decompose(matrix [][]float64) ([][]float64, error) {
	n := len(matrix)
	if n > MaxAssets {
		return nil, errors.Newf(errors.ErrorTypeCapacityExceeded, "matrix dimension %d exceeds %d", n, MaxAssets)
	}
	for i, row := range matrix {
		if len(row) != n {
			return nil, errors.Newf(errors.ErrorTypeInvalidArgument, "row %d has %d columns, want %d", i, len(row), n)
		}
	}

	factor := make([][]float64, n)
	for i := range factor {
		factor[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x := matrix[i][j]
			for k := 0; k < i; k++ {
				x -= factor[i][k] * factor[j][k]
			}
			if j == i {
				factor[i][i] = math.Sqrt(x)
			} else {
				factor[j][i] = x / factor[i][i]
			}
		}
	}

	return factor, nil
}
