package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rzzdr/quant-analytics/pkg/metrics"
	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/backpressure"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// LoggingMiddleware logs request information
func LoggingMiddleware() gin.HandlerFunc {
	log := logger.GetLogger("api.middleware")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= http.StatusInternalServerError {
			log.Errorf("%s %s [%d] %v", method, path, status, latency)
			return
		}
		log.Infof("%s %s [%d] %v", method, path, status, latency)
	}
}

// MetricsMiddleware captures API metrics. Requests are labelled by route
// template so handles in the path do not create new series.
func MetricsMiddleware(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		recorder.RecordAPIRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing. A request origin
// is echoed back when it is listed; "*" or an empty list allows any origin.
func CORSMiddleware(origins, methods, headers []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}
	allowMethods := "GET, POST, PUT, DELETE, OPTIONS"
	if len(methods) > 0 {
		allowMethods = strings.Join(methods, ", ")
	}
	allowHeaders := "Content-Type, Authorization"
	if len(headers) > 0 {
		allowHeaders = strings.Join(headers, ", ")
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if wildcard {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if origin := c.GetHeader("Origin"); allowed[origin] {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ErrorMiddleware catches panics and returns an error response
func ErrorMiddleware() gin.HandlerFunc {
	log := logger.GetLogger("api.error")

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("API panic recovered: %v", err)

				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
					Error: fmt.Sprintf("internal server error: %v", err),
					Kind:  "internal",
				})
			}
		}()

		c.Next()
	}
}

// RateLimitMiddleware rejects requests once the limiter runs dry. It
// guards the routes that simulate the whole path population.
func RateLimitMiddleware(limiter *backpressure.TokenBucketLimiter) gin.HandlerFunc {
	log := logger.GetLogger("api.ratelimit")

	return func(c *gin.Context) {
		if !limiter.Allow() {
			log.Warnf("Rate limit exceeded for %s %s from %s", c.Request.Method, c.FullPath(), c.ClientIP())
			err := errors.ResourceExhausted("rate limit exceeded, retry later")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: err.Error(),
				Kind:  errors.TypeOf(err).String(),
			})
			return
		}

		c.Next()
	}
}
