package pricing

import (
	"math"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

const basisPoint = 0.0001

// priceYieldFactor is the ratio of the relative price move to the relative
// yield move for a one basis point drop in yield.
func priceYieldFactor(bpv, price, yield float64) (float64, error) {
	if bpv < 0 || price <= 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument,
			"basis point value %g must not be negative and price %g must be positive", bpv, price)
	}
	if yield <= basisPoint {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "yield %g must exceed one basis point", yield)
	}
	return -math.Log((price+bpv)/price) / math.Log((yield-basisPoint)/yield), nil
}

// PriceToYieldVol converts a price volatility into a yield volatility
func PriceToYieldVol(priceVol, bpv, price, yield float64) (float64, error) {
	if priceVol < 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "price volatility %g must not be negative", priceVol)
	}
	factor, err := priceYieldFactor(bpv, price, yield)
	if err != nil {
		return 0, err
	}
	return priceVol / factor, nil
}

// YieldToPriceVol converts a yield volatility into a price volatility
func YieldToPriceVol(yieldVol, bpv, price, yield float64) (float64, error) {
	if yieldVol < 0 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "yield volatility %g must not be negative", yieldVol)
	}
	factor, err := priceYieldFactor(bpv, price, yield)
	if err != nil {
		return 0, err
	}
	return yieldVol * factor, nil
}
