package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

func sampleTable() [][]float64 {
	return [][]float64{
		{0, 1, 2, 4},
		{10, 1, 2, 3},
		{20, 3, 4, 5},
		{40, 5, 6, 9},
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		row, col float64
		want     float64
	}{
		{"cell centre", 15, 1.5, 2.5},
		{"first corner", 10, 1, 1},
		{"last corner", 40, 4, 9},
		{"on row breakpoint", 20, 3, 4.5},
		{"below first row", 5, 1, 0},
		{"past last column", 40, 6, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(sampleTable(), tt.row, tt.col)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestLookupReproducesBilinearSurface(t *testing.T) {
	f := func(r, c float64) float64 { return 2 + 0.5*r - 3*c + 0.25*r*c }

	rows := []float64{1, 2, 5, 9}
	cols := []float64{-1, 0, 3}

	table := [][]float64{append([]float64{0}, cols...)}
	for _, r := range rows {
		line := []float64{r}
		for _, c := range cols {
			line = append(line, f(r, c))
		}
		table = append(table, line)
	}

	for _, r := range []float64{0, 1.5, 4, 9, 12} {
		for _, c := range []float64{-2, -0.5, 1, 3, 4} {
			got, err := Lookup(table, r, c)
			require.NoError(t, err)
			assert.InDelta(t, f(r, c), got, 1e-9, "r=%g c=%g", r, c)
		}
	}
}

func TestLookupRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		table [][]float64
	}{
		{"nil", nil},
		{"empty header", [][]float64{{}}},
		{"single row breakpoint", [][]float64{{0, 1, 2}, {10, 1, 2}}},
		{"single column breakpoint", [][]float64{{0, 1}, {10, 1}, {20, 2}}},
		{"ragged", [][]float64{{0, 1, 2}, {10, 1, 2}, {20, 2}}},
		{"unsorted columns", [][]float64{{0, 2, 1}, {10, 1, 2}, {20, 2, 3}}},
		{"duplicate rows", [][]float64{{0, 1, 2}, {10, 1, 2}, {10, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup(tt.table, 1, 1)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
		})
	}
}
