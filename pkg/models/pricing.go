package models

// OptionRequest describes a European option. Type is "call" or "put".
type OptionRequest struct {
	Type         string  `json:"type" binding:"required"`
	Underlying   float64 `json:"underlying"`
	Strike       float64 `json:"strike"`
	Volatility   float64 `json:"volatility"`
	DaysToExpiry float64 `json:"days_to_expiry"`
	Rate         float64 `json:"rate"`
}

// PortfolioRequest revalues a set of options. Measure is value, delta,
// gamma or vega; empty means value.
type PortfolioRequest struct {
	Options []OptionRequest `json:"options" binding:"required,min=1,dive"`
	Measure string          `json:"measure"`
}

// ImpliedVolRequest solves for the volatility matching a market price
type ImpliedVolRequest struct {
	Option OptionRequest `json:"option"`
	Price  float64       `json:"price"`
}

// BreakevenRequest searches for a horizon breakeven price
type BreakevenRequest struct {
	Options     []OptionRequest `json:"options" binding:"required,min=1,dive"`
	HorizonDays float64         `json:"horizon_days"`
	Direction   string          `json:"direction" binding:"required,oneof=up down"`
	Tolerance   float64         `json:"tolerance"`
}

// BivariateRequest evaluates the bivariate normal CDF
type BivariateRequest struct {
	A   float64 `json:"a"`
	B   float64 `json:"b"`
	Rho float64 `json:"rho"`
}

// BasketRequest computes a basket volatility
type BasketRequest struct {
	Weights      []float64   `json:"weights" binding:"required"`
	Volatilities []float64   `json:"volatilities" binding:"required"`
	Correlations [][]float64 `json:"correlations" binding:"required"`
}

// QuantoRequest adjusts a forward yield for a currency mismatch
type QuantoRequest struct {
	ForwardYield float64 `json:"forward_yield"`
	FXVol        float64 `json:"fx_vol"`
	YieldVol     float64 `json:"yield_vol"`
	Correlation  float64 `json:"correlation"`
	Days         float64 `json:"days"`
}

// ConvexityRequest computes a futures convexity adjustment
type ConvexityRequest struct {
	Yield      float64 `json:"yield"`
	Volatility float64 `json:"volatility"`
	Days       float64 `json:"days"`
	Duration   float64 `json:"duration"`
	Convexity  float64 `json:"convexity"`
}

// DelayRequest computes a delay-of-payment adjustment
type DelayRequest struct {
	Yield       float64 `json:"yield"`
	LagTenor    float64 `json:"lag_tenor"`
	Rate        float64 `json:"rate"`
	Correlation float64 `json:"correlation"`
	YieldVol    float64 `json:"yield_vol"`
	RateVol     float64 `json:"rate_vol"`
	Days        float64 `json:"days"`
}

// VolConversionRequest converts between price and yield volatility
type VolConversionRequest struct {
	Volatility float64 `json:"volatility"`
	BPV        float64 `json:"bpv"`
	Price      float64 `json:"price"`
	Yield      float64 `json:"yield"`
}
