package pricing

import (
	"math"

	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// MaxBreakevenIterations caps the Newton search in HorizonBreakeven
const MaxBreakevenIterations = 20

// Direction picks which side of the current price a breakeven is searched on
type Direction int

const (
	Up Direction = iota
	Down
)

// ParseDirection accepts "up" and "down"
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "UP", "Up":
		return Up, nil
	case "down", "DOWN", "Down":
		return Down, nil
	}
	return Up, errors.Newf(errors.ErrorTypeInvalidArgument, "unknown direction %q", s)
}

// HorizonBreakeven finds the underlying price at which the portfolio, aged
// by horizonDays, is worth what it is worth today. Every option's
// underlying moves by the same amount; the returned price is the first
// option's. The search starts one horizon standard deviation away from the
// current price in the requested direction and takes Newton steps on the
// portfolio delta.
func HorizonBreakeven(portfolio []Option, horizonDays float64, dir Direction, tolerance float64) (float64, error) {
	if len(portfolio) == 0 {
		return 0, errors.InvalidArgument("breakeven needs at least one option")
	}
	if horizonDays < 0 || tolerance <= 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument,
			"horizon %g must not be negative and tolerance %g must be positive", horizonDays, tolerance)
	}

	base, err := RevalueOptions(portfolio, Value)
	if err != nil {
		return 0, err
	}

	lead := portfolio[0]
	sign := 1.0
	if dir == Down {
		sign = -1.0
	}
	start := lead.Underlying * math.Exp(sign*lead.Volatility*math.Sqrt(horizonDays/montecarlo.DaysPerYear))

	aged := make([]Option, len(portfolio))
	for i, opt := range portfolio {
		opt.DaysToExpiry = math.Max(opt.DaysToExpiry-horizonDays, 0)
		opt.Underlying += start - lead.Underlying
		aged[i] = opt
	}

	log := logger.GetLogger("pricing.breakeven")

	for iter := 0; ; iter++ {
		value, err := RevalueOptions(aged, Value)
		if err != nil {
			return 0, errors.WithType(err, errors.ErrorTypeNotConverged)
		}

		diff := value - base
		if math.Abs(diff) <= tolerance {
			log.Debugf("Breakeven %g found after %d iterations", aged[0].Underlying, iter)
			return aged[0].Underlying, nil
		}
		if iter == MaxBreakevenIterations {
			break
		}

		delta, err := RevalueOptions(aged, Delta)
		if err != nil {
			return 0, err
		}
		if delta == 0 || math.IsNaN(delta) {
			return 0, errors.Newf(errors.ErrorTypeNotConverged,
				"portfolio delta vanished at %g after %d iterations", aged[0].Underlying, iter)
		}

		step := diff / delta
		for i := range aged {
			aged[i].Underlying -= step
		}
	}

	log.Warnf("Breakeven search stopped after %d iterations", MaxBreakevenIterations)
	return 0, errors.Newf(errors.ErrorTypeNotConverged, "no breakeven within %d iterations", MaxBreakevenIterations)
}
