// Package montecarlo implements the correlated multi-tenor Monte Carlo
// engine: a shared grid of pre-generated draws, a pool of forward term
// structures, a sequential path bootstrap with antithetic pairing, and an
// empirical moment-matching calibrator.
//
// Nothing in this package is synchronized. Callers that share a Grid or a
// Registry across goroutines must serialize access themselves.
package montecarlo

const (
	// MaxAssets is the maximum number of tenors in one term structure and
	// the row stride of the random number grid.
	MaxAssets = 91

	// MaxSimulationPaths is the number of grid rows. Antithetic pairing
	// doubles the addressable path count.
	MaxSimulationPaths = 1000

	// MaxTermStructures is the default registry capacity.
	MaxTermStructures = 100

	// UnsetLevel marks path slots past the last active tenor.
	UnsetLevel = -99.0

	// DaysPerYear is the day-count basis for tenors.
	DaysPerYear = 365.0
)

// TotalPaths is the number of distinct simulation indices, antithetic half included.
const TotalPaths = 2 * MaxSimulationPaths
