package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rzzdr/quant-analytics/internal/pricing"
	"github.com/rzzdr/quant-analytics/pkg/models"
)

// DefaultBreakevenTolerance applies when a breakeven request names none
const DefaultBreakevenTolerance = 1e-6

func toOption(req models.OptionRequest) (pricing.Option, error) {
	t, err := pricing.ParseOptionType(req.Type)
	if err != nil {
		return pricing.Option{}, err
	}
	return pricing.Option{
		Type:         t,
		Underlying:   req.Underlying,
		Strike:       req.Strike,
		Volatility:   req.Volatility,
		DaysToExpiry: req.DaysToExpiry,
		Rate:         req.Rate,
	}, nil
}

func toOptions(reqs []models.OptionRequest) ([]pricing.Option, error) {
	out := make([]pricing.Option, len(reqs))
	for i, r := range reqs {
		opt, err := toOption(r)
		if err != nil {
			return nil, err
		}
		out[i] = opt
	}
	return out, nil
}

// respondValue records the pricing call and writes its result
func (h *Handlers) respondValue(c *gin.Context, function string, v float64, err error) {
	h.recorder.RecordPricing(function, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ValueResponse{Value: models.Float(v)})
}

// RevalueOptionsHandler sums a measure across a set of options
func (h *Handlers) RevalueOptionsHandler(c *gin.Context) {
	var req models.PortfolioRequest
	if !bindJSON(c, &req) {
		return
	}

	measure, err := pricing.ParseMeasure(req.Measure)
	if err != nil {
		respondError(c, err)
		return
	}
	portfolio, err := toOptions(req.Options)
	if err != nil {
		respondError(c, err)
		return
	}

	v, err := pricing.RevalueOptions(portfolio, measure)
	h.respondValue(c, "revalue", v, err)
}

// ImpliedVolHandler solves for the volatility matching a market price
func (h *Handlers) ImpliedVolHandler(c *gin.Context) {
	var req models.ImpliedVolRequest
	if !bindJSON(c, &req) {
		return
	}

	opt, err := toOption(req.Option)
	if err != nil {
		respondError(c, err)
		return
	}

	v, err := pricing.ImpliedVolatility(opt, req.Price)
	h.respondValue(c, "implied_vol", v, err)
}

// BreakevenHandler finds the horizon breakeven price of a set of options
func (h *Handlers) BreakevenHandler(c *gin.Context) {
	var req models.BreakevenRequest
	if !bindJSON(c, &req) {
		return
	}

	dir, err := pricing.ParseDirection(req.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	portfolio, err := toOptions(req.Options)
	if err != nil {
		respondError(c, err)
		return
	}
	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = DefaultBreakevenTolerance
	}

	v, err := pricing.HorizonBreakeven(portfolio, req.HorizonDays, dir, tolerance)
	h.respondValue(c, "breakeven", v, err)
}

// BivariateHandler evaluates the bivariate normal CDF
func (h *Handlers) BivariateHandler(c *gin.Context) {
	var req models.BivariateRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := pricing.BivariateNormalCDF(req.A, req.B, req.Rho)
	h.respondValue(c, "bivariate", v, err)
}

// BasketHandler computes the volatility of a weighted basket
func (h *Handlers) BasketHandler(c *gin.Context) {
	var req models.BasketRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := pricing.BasketVolatility(req.Weights, req.Volatilities, req.Correlations)
	h.respondValue(c, "basket", v, err)
}

// QuantoHandler adjusts a forward yield for a currency mismatch
func (h *Handlers) QuantoHandler(c *gin.Context) {
	var req models.QuantoRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := pricing.QuantoForward(req.ForwardYield, req.FXVol, req.YieldVol, req.Correlation, req.Days)
	h.respondValue(c, "quanto", v, err)
}

// ConvexityHandler computes a futures convexity adjustment
func (h *Handlers) ConvexityHandler(c *gin.Context) {
	var req models.ConvexityRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := pricing.ConvexityAdjustment(req.Yield, req.Volatility, req.Days, req.Duration, req.Convexity)
	h.respondValue(c, "convexity", v, err)
}

// DelayHandler computes a delay-of-payment adjustment
func (h *Handlers) DelayHandler(c *gin.Context) {
	var req models.DelayRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := pricing.DelayOfPaymentAdjustment(req.Yield, req.LagTenor, req.Rate, req.Correlation, req.YieldVol, req.RateVol, req.Days)
	h.respondValue(c, "delay", v, err)
}

// PriceToYieldVolHandler converts a price volatility to a yield volatility
func (h *Handlers) PriceToYieldVolHandler(c *gin.Context) {
	var req models.VolConversionRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := pricing.PriceToYieldVol(req.Volatility, req.BPV, req.Price, req.Yield)
	h.respondValue(c, "price_to_yield_vol", v, err)
}

// YieldToPriceVolHandler converts a yield volatility to a price volatility
func (h *Handlers) YieldToPriceVolHandler(c *gin.Context) {
	var req models.VolConversionRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := pricing.YieldToPriceVol(req.Volatility, req.BPV, req.Price, req.Yield)
	h.respondValue(c, "yield_to_price_vol", v, err)
}
