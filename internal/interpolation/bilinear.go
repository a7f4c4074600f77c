// Package interpolation provides table lookups over two-dimensional grids.
package interpolation

import (
	"sort"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

// Lookup bilinearly interpolates a table whose first row holds the column
// breakpoints (from the second entry on) and whose first column holds the
// row breakpoints (from the second row on). The body holds the values.
//
// Keys outside the breakpoints are extrapolated linearly from the first or
// last interval. Breakpoints must be strictly increasing, at least two per
// axis.
func Lookup(table [][]float64, rowKey, colKey float64) (float64, error) {
	rows, _, err := dims(table)
	if err != nil {
		return 0, err
	}

	colKeys := table[0][1:]
	rowKeys := make([]float64, rows)
	for i := range rowKeys {
		rowKeys[i] = table[i+1][0]
	}

	if err := increasing("column", colKeys); err != nil {
		return 0, err
	}
	if err := increasing("row", rowKeys); err != nil {
		return 0, err
	}

	r := bracket(rowKeys, rowKey)
	c := bracket(colKeys, colKey)

	r1, r2 := rowKeys[r], rowKeys[r+1]
	c1, c2 := colKeys[c], colKeys[c+1]

	v11 := table[r+1][c+1]
	v21 := table[r+2][c+1]
	v12 := table[r+1][c+2]
	v22 := table[r+2][c+2]

	rw := (rowKey - r1) / (r2 - r1)
	left := v11 + rw*(v21-v11)
	right := v12 + rw*(v22-v12)

	return left + (colKey-c1)/(c2-c1)*(right-left), nil
}

func dims(table [][]float64) (int, int, error) {
	if len(table) == 0 || len(table[0]) == 0 {
		return 0, 0, errors.InvalidArgument("lookup table is empty")
	}

	width := len(table[0])
	for i, row := range table {
		if len(row) != width {
			return 0, 0, errors.Newf(errors.ErrorTypeInvalidArgument, "lookup table row %d has %d entries, want %d", i, len(row), width)
		}
	}

	rows, cols := len(table)-1, width-1
	if rows < 2 || cols < 2 {
		return 0, 0, errors.Newf(errors.ErrorTypeInvalidArgument,
			"lookup table needs at least 2 row and 2 column breakpoints, got %d and %d", rows, cols)
	}
	return rows, cols, nil
}

func increasing(axis string, keys []float64) error {
	for i := 1; i < len(keys); i++ {
		if !(keys[i] > keys[i-1]) {
			return errors.Newf(errors.ErrorTypeInvalidArgument, "%s breakpoint %d (%g) does not follow %g", axis, i, keys[i], keys[i-1])
		}
	}
	return nil
}

// bracket returns k such that keys[k] <= x <= keys[k+1], clamped to the
// first and last interval.
func bracket(keys []float64, x float64) int {
	k := sort.SearchFloat64s(keys, x) - 1
	if k < 0 {
		return 0
	}
	if k > len(keys)-2 {
		return len(keys) - 2
	}
	return k
}
