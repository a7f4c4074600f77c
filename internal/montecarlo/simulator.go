package montecarlo

import (
	"math"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// Path holds one simulated level per asset position. Slots past the last
// active tenor carry UnsetLevel.
type Path []float64

func newPath() Path {
	p := make(Path, MaxAssets)
	for i := range p {
		p[i] = UnsetLevel
	}
	return p
}

// Active returns the leading run of set levels
func (p Path) Active() []float64 {
	for i, v := range p {
		if v == UnsetLevel {
			return p[:i]
		}
	}
	return p
}

// Simulator generates term-structure paths from a grid
type Simulator struct {
	grid     *Grid
	registry *Registry
	log      *logger.Logger
}

// NewSimulator creates a simulator over a grid and a registry
func NewSimulator(grid *Grid, registry *Registry) *Simulator {
	return &Simulator{
		grid:     grid,
		registry: registry,
		log:      logger.GetLogger("montecarlo.simulator"),
	}
}

// Registry returns the registry the simulator reads from
func (s *Simulator) Registry() *Registry {
	return s.registry
}

// Draws returns the sign-adjusted grid draws used for one simulation index
func (s *Simulator) Draws(h Handle, index int) ([]float64, error) {
	ts, err := s.registry.lookupPopulated(h)
	if err != nil {
		return nil, err
	}
	return s.draws(ts, index)
}

// draws folds the antithetic half of the index range back onto the grid
// and negates the draws there.
func (s *Simulator) draws(ts *TermStructure, index int) ([]float64, error) {
	if index < 0 || index >= TotalPaths {
		return nil, errors.Newf(errors.ErrorTypeOutOfRange, "simulation index %d outside [0, %d)", index, TotalPaths)
	}
	if !s.grid.Loaded() {
		return nil, errors.ResourceUnavailable("grid is not loaded")
	}

	sign := 1.0
	if index >= MaxSimulationPaths {
		index -= MaxSimulationPaths
		sign = -1.0
	}

	// The term structure's correlation factor is deliberately not applied:
	// each tenor consumes its own raw draw.
	row := s.grid.row(index, ts.Assets())
	out := make([]float64, len(row))
	for i, z := range row {
		out[i] = sign * z
	}
	return out, nil
}

// Simulate returns the path for a simulation index in [0, TotalPaths).
// Asset 0 takes a lognormal step from its own forward; every later asset
// steps from the previous asset's simulated level with the implied
// forward-forward drift and volatility over the tenor gap. The stored
// moments are then applied. Non-finite levels are not reported as errors.
func (s *Simulator) Simulate(h Handle, index int) (Path, error) {
	ts, err := s.registry.lookupPopulated(h)
	if err != nil {
		return nil, err
	}

	z, err := s.draws(ts, index)
	if err != nil {
		return nil, err
	}

	path := newPath()
	n := ts.Assets()

	forward0 := ts.Forwards[0]
	vol0 := ts.Volatilities[0]
	days0 := ts.Days[0]
	path[0] = forward0 * math.Exp(-0.5*vol0*vol0*days0/DaysPerYear+vol0*math.Sqrt(days0/DaysPerYear)*z[0])

	for i := 1; i < n; i++ {
		forward1 := ts.Forwards[i]
		vol1 := ts.Volatilities[i]
		days1 := ts.Days[i]

		dt := days1 - days0
		rate := math.Log(forward1/forward0) * DaysPerYear / dt
		volFwd := math.Sqrt((vol1*vol1*days1 - vol0*vol0*days0) / dt)

		path[i] = path[i-1] * math.Exp((rate-0.5*volFwd*volFwd)*dt/DaysPerYear+volFwd*math.Sqrt(dt/DaysPerYear)*z[i])

		forward0, vol0, days0 = forward1, vol1, days1
	}

	for i := 0; i < n && path[i] > 0; i++ {
		path[i] = ts.Forwards[i]*math.Exp(math.Log(path[i]/ts.Forwards[i])*ts.Moment2[i]) + ts.Moment1[i]
	}

	return path, nil
}
