// Package pricing holds closed-form option and rate analytics that sit
// alongside the Monte Carlo engine. Every function is stateless.
package pricing

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// OptionType distinguishes calls from puts
type OptionType int

const (
	Call OptionType = iota
	Put
)

// String returns the option type name
func (t OptionType) String() string {
	if t == Put {
		return "put"
	}
	return "call"
}

// ParseOptionType accepts "call"/"c" and "put"/"p" in any case
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return Call, errors.Newf(errors.ErrorTypeInvalidArgument, "unknown option type %q", s)
}

// Measure selects what BlackScholes returns
type Measure int

const (
	Value Measure = iota
	Delta
	Gamma
	// Vega per one volatility point
	Vega
)

// ParseMeasure accepts value, delta, gamma and vega
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "value", "price":
		return Value, nil
	case "delta":
		return Delta, nil
	case "gamma":
		return Gamma, nil
	case "vega":
		return Vega, nil
	}
	return Value, errors.Newf(errors.ErrorTypeInvalidArgument, "unknown measure %q", s)
}

// Option is a European option on a single underlying. Time is counted in
// calendar days and the rate is continuously compounded.
type Option struct {
	Type         OptionType
	Underlying   float64
	Strike       float64
	Volatility   float64
	DaysToExpiry float64
	Rate         float64
}

func (o Option) validate() error {
	if o.Underlying <= 0 || o.Strike <= 0 {
		return errors.Newf(errors.ErrorTypeInvalidArgument,
			"underlying %g and strike %g must be positive", o.Underlying, o.Strike)
	}
	if o.Volatility < 0 || o.DaysToExpiry < 0 {
		return errors.Newf(errors.ErrorTypeInvalidArgument,
			"volatility %g and days to expiry %g must not be negative", o.Volatility, o.DaysToExpiry)
	}
	return nil
}

// BlackScholes returns the requested measure of an option. An option with
// no time or no volatility left is valued at its discounted intrinsic value.
func BlackScholes(opt Option, measure Measure) (float64, error) {
	if err := opt.validate(); err != nil {
		return 0, err
	}

	S, K, r, sigma := opt.Underlying, opt.Strike, opt.Rate, opt.Volatility
	T := opt.DaysToExpiry / montecarlo.DaysPerYear
	df := math.Exp(-r * T)

	if T == 0 || sigma == 0 {
		return intrinsic(opt.Type, S, K*df, measure), nil
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	switch measure {
	case Delta:
		if opt.Type == Call {
			return normalCDF(d1), nil
		}
		return normalCDF(d1) - 1, nil
	case Gamma:
		return normalPDF(d1) / (S * sigma * sqrtT), nil
	case Vega:
		return S * normalPDF(d1) * sqrtT / 100, nil
	}

	if opt.Type == Call {
		return S*normalCDF(d1) - K*df*normalCDF(d2), nil
	}
	return K*df*normalCDF(-d2) - S*normalCDF(-d1), nil
}

func intrinsic(t OptionType, spot, discountedStrike float64, measure Measure) float64 {
	switch measure {
	case Delta:
		if t == Call && spot > discountedStrike {
			return 1
		}
		if t == Put && spot < discountedStrike {
			return -1
		}
		return 0
	case Gamma, Vega:
		return 0
	}

	if t == Call {
		return math.Max(spot-discountedStrike, 0)
	}
	return math.Max(discountedStrike-spot, 0)
}

// RevalueOptions sums a measure over a portfolio
func RevalueOptions(portfolio []Option, measure Measure) (float64, error) {
	total := 0.0
	for i, opt := range portfolio {
		v, err := BlackScholes(opt, measure)
		if err != nil {
			return 0, errors.Wrapf(err, "option %d", i)
		}
		total += v
	}
	return total, nil
}

// ImpliedVolatility solves for the volatility that reproduces a market
// price with Newton-Raphson on vega.
func ImpliedVolatility(opt Option, marketPrice float64) (float64, error) {
	if marketPrice <= 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "market price %g must be positive", marketPrice)
	}
	if opt.DaysToExpiry <= 0 {
		return 0, errors.InvalidArgument("implied volatility needs time to expiry")
	}

	const (
		precision     = 1e-8
		maxIterations = 100
	)

	opt.Volatility = 0.2
	for i := 0; i < maxIterations; i++ {
		price, err := BlackScholes(opt, Value)
		if err != nil {
			return 0, err
		}

		diff := price - marketPrice
		if math.Abs(diff) < precision {
			return opt.Volatility, nil
		}

		vega, _ := BlackScholes(opt, Vega)
		if vega < 1e-12 {
			break
		}

		opt.Volatility -= diff / (vega * 100)
		if opt.Volatility <= 0.001 {
			opt.Volatility = 0.001
		} else if opt.Volatility > 5 {
			break
		}
	}

	logger.GetLogger("pricing.impliedvol").Warnf("Implied volatility did not converge for price %g", marketPrice)
	return 0, errors.Newf(errors.ErrorTypeNotConverged, "implied volatility did not converge for price %g", marketPrice)
}

func normalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normalPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
