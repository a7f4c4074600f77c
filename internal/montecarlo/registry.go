package montecarlo

import (
	"math"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// Handle addresses a term structure slot in a Registry
type Handle int

// TermStructure is a forward curve of (day, forward, volatility) triples
// together with its derived correlation factor and calibration moments.
// Every per-asset slice has one entry per active tenor.
type TermStructure struct {
	Days         []float64
	Forwards     []float64
	Volatilities []float64

	// Moment1 is the additive bias correction, neutral at 0.
	Moment1 []float64
	// Moment2 is the multiplicative volatility-scale correction, neutral at 1.
	Moment2 []float64

	// Factor is the lower-triangular Cholesky factor of the tenor
	// correlation proxy, Assets() x Assets().
	Factor [][]float64

	populated bool
}

// Assets returns the number of active tenors
func (ts *TermStructure) Assets() int {
	return len(ts.Days)
}

// Populated reports whether tenor data has been written
func (ts *TermStructure) Populated() bool {
	return ts.populated
}

func (ts *TermStructure) resetMoments() {
	for i := range ts.Moment1 {
		ts.Moment1[i] = 0
		ts.Moment2[i] = 1
	}
}

func (ts *TermStructure) clone() *TermStructure {
	out := &TermStructure{
		Days:         append([]float64(nil), ts.Days...),
		Forwards:     append([]float64(nil), ts.Forwards...),
		Volatilities: append([]float64(nil), ts.Volatilities...),
		Moment1:      append([]float64(nil), ts.Moment1...),
		Moment2:      append([]float64(nil), ts.Moment2...),
		Factor:       make([][]float64, len(ts.Factor)),
		populated:    ts.populated,
	}
	for i, row := range ts.Factor {
		out.Factor[i] = append([]float64(nil), row...)
	}
	return out
}

// Registry is a fixed-capacity pool of term structures addressed by Handle
type Registry struct {
	slots []*TermStructure
	log   *logger.Logger
}

// NewRegistry creates a registry with the given number of slots. A
// non-positive capacity selects MaxTermStructures.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = MaxTermStructures
	}

	return &Registry{
		slots: make([]*TermStructure, capacity),
		log:   logger.GetLogger("montecarlo.registry"),
	}
}

// Capacity returns the number of slots
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Len returns the number of allocated slots
func (r *Registry) Len() int {
	n := 0
	for _, ts := range r.slots {
		if ts != nil {
			n++
		}
	}
	return n
}

// Allocate reserves the first free slot and returns its handle
func (r *Registry) Allocate() (Handle, error) {
	for i, ts := range r.slots {
		if ts == nil {
			r.slots[i] = &TermStructure{}
			r.log.Debugf("Allocated term structure %d", i)
			return Handle(i), nil
		}
	}
	return -1, errors.Newf(errors.ErrorTypeResourceExhausted, "term structure pool is full (%d slots)", len(r.slots))
}

// lookup returns the live record behind a handle
func (r *Registry) lookup(h Handle) (*TermStructure, error) {
	if h < 0 || int(h) >= len(r.slots) || r.slots[h] == nil {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "term structure %d is not allocated", h)
	}
	return r.slots[h], nil
}

// lookupPopulated returns the live record behind a handle that has tenor data
func (r *Registry) lookupPopulated(h Handle) (*TermStructure, error) {
	ts, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if !ts.populated {
		return nil, errors.Newf(errors.ErrorTypeInvalidArgument, "term structure %d has not been populated", h)
	}
	return ts, nil
}

// Get returns a copy of the term structure behind a handle
func (r *Registry) Get(h Handle) (*TermStructure, error) {
	ts, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	return ts.clone(), nil
}

// Populate writes tenor data into an allocated slot. The active prefix
// ends at the first non-positive tenor or at the end of tenors. The
// correlation proxy between tenors i and j is the ratio of their
// cumulative standard deviations σᵢ√(tᵢ/365) / σⱼ√(tⱼ/365); its Cholesky
// factor is stored and both moments are reset to neutral.
func (r *Registry) Populate(h Handle, forwards, volatilities, tenors []float64) error {
	ts, err := r.lookup(h)
	if err != nil {
		return err
	}

	n := 0
	for n < len(tenors) && tenors[n] > 0 {
		n++
	}
	if n == 0 {
		return errors.InvalidArgument("term structure has no positive tenor")
	}
	if n > MaxAssets {
		return errors.Newf(errors.ErrorTypeCapacityExceeded, "term structure has %d tenors, limit is %d", n, MaxAssets)
	}
	if len(forwards) < n || len(volatilities) < n {
		return errors.Newf(errors.ErrorTypeInvalidArgument,
			"%d tenors but %d forwards and %d volatilities", n, len(forwards), len(volatilities))
	}
	for i := 0; i < n; i++ {
		if forwards[i] <= 0 {
			return errors.Newf(errors.ErrorTypeInvalidArgument, "forward %d is %g, must be positive", i, forwards[i])
		}
		if volatilities[i] < 0 {
			return errors.Newf(errors.ErrorTypeInvalidArgument, "volatility %d is %g, must not be negative", i, volatilities[i])
		}
		if i > 0 && tenors[i] <= tenors[i-1] {
			return errors.Newf(errors.ErrorTypeInvalidArgument, "tenor %d (%g) does not follow %g", i, tenors[i], tenors[i-1])
		}
	}

	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		scale[i] = volatilities[i] * math.Sqrt(tenors[i]/DaysPerYear)
	}
	correlations := make([][]float64, n)
	for i := range correlations {
		correlations[i] = make([]float64, n)
		for j := range correlations[i] {
			correlations[i][j] = scale[i] / scale[j]
		}
	}

	factor, err := Decompose(correlations)
	if err != nil {
		return errors.Wrapf(err, "decompose correlation of term structure %d", h)
	}

	*ts = TermStructure{
		Days:         append([]float64(nil), tenors[:n]...),
		Forwards:     append([]float64(nil), forwards[:n]...),
		Volatilities: append([]float64(nil), volatilities[:n]...),
		Moment1:      make([]float64, n),
		Moment2:      make([]float64, n),
		Factor:       factor,
		populated:    true,
	}
	ts.resetMoments()

	r.log.Debugf("Populated term structure %d with %d tenors", h, n)
	return nil
}

// Release frees a single slot
func (r *Registry) Release(h Handle) error {
	if _, err := r.lookup(h); err != nil {
		return err
	}
	r.slots[h] = nil
	r.log.Debugf("Released term structure %d", h)
	return nil
}

// Destroy frees every allocated slot. All slots are visited, so a pool
// with gaps is torn down completely.
func (r *Registry) Destroy() {
	freed := 0
	for i, ts := range r.slots {
		if ts == nil {
			continue
		}
		r.slots[i] = nil
		freed++
	}
	r.log.Infof("Destroyed %d term structures", freed)
}
