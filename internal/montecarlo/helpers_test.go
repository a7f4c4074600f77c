package montecarlo

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalGridCSV renders a full grid of standard normal draws.
func normalGridCSV(seed uint64) string {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}

	var sb strings.Builder
	for j := 0; j < MaxAssets; j++ {
		if j > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("z")
		sb.WriteString(strconv.Itoa(j))
	}
	sb.WriteByte('\n')

	for i := 0; i < MaxSimulationPaths; i++ {
		for j := 0; j < MaxAssets; j++ {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatFloat(dist.Rand(), 'g', -1, 64))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func loadedGrid(t *testing.T, source string) *Grid {
	t.Helper()
	g := NewGrid()
	require.NoError(t, g.Load(strings.NewReader(source)))
	return g
}

// populatedEngine wires a grid, a registry and one populated term structure.
func populatedEngine(t *testing.T, source string, forwards, vols, tenors []float64) (*Simulator, Handle) {
	t.Helper()
	reg := NewRegistry(0)
	h, err := reg.Allocate()
	require.NoError(t, err)
	require.NoError(t, reg.Populate(h, forwards, vols, tenors))
	return NewSimulator(loadedGrid(t, source), reg), h
}
