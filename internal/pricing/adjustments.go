package pricing

import (
	"math"

	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

// QuantoForward adjusts a forward yield for payment in a foreign currency:
// F·exp(−ρ·σfx·σy·t/365).
func QuantoForward(forwardYield, fxVol, yieldVol, correlation, days float64) (float64, error) {
	if forwardYield < 0 || fxVol < 0 || yieldVol < 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument,
			"forward %g and volatilities %g, %g must not be negative", forwardYield, fxVol, yieldVol)
	}
	if correlation < -1 || correlation > 1 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "correlation %g outside [-1, 1]", correlation)
	}
	return forwardYield * math.Exp(-correlation*fxVol*yieldVol*days/montecarlo.DaysPerYear), nil
}

// ConvexityAdjustment returns ½·y²·σ²·t/365 · convexity/(duration/100) for
// a bond with the given modified duration and convexity.
func ConvexityAdjustment(yield, volatility, days, duration, convexity float64) (float64, error) {
	if yield < 0 || volatility < 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument,
			"yield %g and volatility %g must not be negative", yield, volatility)
	}
	if duration <= 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "duration %g must be positive", duration)
	}
	return 0.5 * yield * yield * volatility * volatility * days / montecarlo.DaysPerYear * convexity / (duration / 100), nil
}

// DelayOfPaymentAdjustment corrects a yield paid lagTenor years after its
// fixing, given the rate R over the lag and its correlation with the yield.
func DelayOfPaymentAdjustment(yield, lagTenor, rate, correlation, yieldVol, rateVol, days float64) (float64, error) {
	denom := 1 + rate*lagTenor
	if denom == 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "rate %g over lag %g gives a zero discount base", rate, lagTenor)
	}
	return yield * lagTenor * rate * correlation * yieldVol * rateVol * days / montecarlo.DaysPerYear / denom, nil
}
