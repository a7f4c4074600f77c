package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rzzdr/quant-analytics/internal/engine"
	"github.com/rzzdr/quant-analytics/pkg/metrics"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// Config holds the configuration for the API server
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string

	// RateLimit caps full-population requests per second; zero disables it
	RateLimit float64
	RateBurst int

	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// StreamHandler upgrades a request to a path stream
type StreamHandler interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	recorder   *metrics.Recorder
	gatherer   prometheus.Gatherer
	stream     StreamHandler
	log        *logger.Logger
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithMetrics attaches a recorder for request metrics and the gatherer
// served on /metrics
func WithMetrics(r *metrics.Recorder, g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.recorder = r
		s.gatherer = g
	}
}

// WithStream serves path streams on /api/v1/ws
func WithStream(h StreamHandler) ServerOption {
	return func(s *Server) {
		s.stream = h
	}
}

// NewServer creates a new API server
func NewServer(config Config, eng *engine.Engine, opts ...ServerOption) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	server := &Server{
		config: config,
		router: gin.New(),
		log:    logger.GetLogger("api.server"),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.handlers = NewHandlers(eng, server.recorder)

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server
}

// Router exposes the underlying handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	s.log.Infof("Starting API server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}
