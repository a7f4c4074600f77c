package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rzzdr/quant-analytics/pkg/metrics"
	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/backpressure"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Use(ErrorMiddleware())
	s.router.Use(LoggingMiddleware())
	s.router.Use(MetricsMiddleware(s.recorder))
	s.router.Use(CORSMiddleware(s.config.AllowedOrigins, s.config.AllowedMethods, s.config.AllowedHeaders))

	h := s.handlers

	s.router.GET("/health", h.HealthCheckHandler)
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.gatherer)))
	}

	v1 := s.router.Group("/api/v1")
	v1.GET("/health", h.HealthCheckHandler)

	grid := v1.Group("/grid")
	grid.GET("", h.GetGridHandler)
	grid.POST("", h.LoadGridHandler)
	grid.PUT("", h.UploadGridHandler)
	grid.DELETE("", h.ReleaseGridHandler)

	var heavy []gin.HandlerFunc
	if s.config.RateLimit > 0 {
		heavy = append(heavy, RateLimitMiddleware(backpressure.NewTokenBucketLimiter(s.config.RateLimit, s.config.RateBurst)))
	}

	ts := v1.Group("/termstructures")
	ts.POST("", h.CreateTermStructureHandler)
	ts.GET("/:id", h.GetTermStructureHandler)
	ts.PUT("/:id", h.UpdateTermStructureHandler)
	ts.DELETE("/:id", h.DeleteTermStructureHandler)
	ts.POST("/:id/calibrate", append(heavy, h.CalibrateHandler)...)
	ts.GET("/:id/paths/:index", h.SimulatePathHandler)
	ts.GET("/:id/summary", append(heavy, h.SummaryHandler)...)

	v1.POST("/decompose", h.DecomposeHandler)
	v1.POST("/lookup", h.LookupHandler)

	p := v1.Group("/pricing")
	p.POST("/options", h.RevalueOptionsHandler)
	p.POST("/implied-vol", h.ImpliedVolHandler)
	p.POST("/breakeven", h.BreakevenHandler)
	p.POST("/bivariate", h.BivariateHandler)
	p.POST("/basket", h.BasketHandler)
	p.POST("/quanto", h.QuantoHandler)
	p.POST("/convexity", h.ConvexityHandler)
	p.POST("/delay-adjustment", h.DelayHandler)
	p.POST("/price-to-yield-vol", h.PriceToYieldVolHandler)
	p.POST("/yield-to-price-vol", h.YieldToPriceVolHandler)

	if s.stream != nil {
		v1.GET("/ws", gin.WrapF(s.stream.HandleWebSocket))
	}

	s.router.NoRoute(func(c *gin.Context) {
		respondError(c, errors.NotFound("route "+c.Request.URL.Path+" not found"))
	})
}

// statusFor maps an error kind onto an HTTP status
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidArgument, errors.ErrorTypeOutOfRange:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeResourceExhausted:
		return http.StatusConflict
	case errors.ErrorTypeResourceUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrorTypeCapacityExceeded:
		return http.StatusRequestEntityTooLarge
	case errors.ErrorTypeNotConverged:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), models.ErrorResponse{
		Error: err.Error(),
		Kind:  errors.TypeOf(err).String(),
	})
}

// bindJSON decodes the request body and answers 400 on failure
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, errors.Wrap(errors.WithType(err, errors.ErrorTypeInvalidArgument), "invalid request body"))
		return false
	}
	return true
}
