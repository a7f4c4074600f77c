package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rzzdr/quant-analytics/config"
	"github.com/rzzdr/quant-analytics/internal/engine"
	"github.com/rzzdr/quant-analytics/internal/kafka"
	"github.com/rzzdr/quant-analytics/internal/websocket"
	"github.com/rzzdr/quant-analytics/pkg/api"
	"github.com/rzzdr/quant-analytics/pkg/metrics"
	"github.com/rzzdr/quant-analytics/pkg/utils/circuit"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

var (
	configFile = flag.String("config", config.GetConfigPath(), "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.GetLogger("analytics.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("analytics.main")
	log.Infof("Starting %s (%s)", cfg.App.Name, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	var publishers engine.Publishers

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topics.Calibrations,
			WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
			BatchTimeout: cfg.Kafka.Producer.BatchTimeout,
			Async:        cfg.Kafka.Producer.Async,
			Breaker: circuit.Config{
				MaxFailures: cfg.Kafka.Producer.Breaker.MaxFailures,
				Timeout:     cfg.Kafka.Producer.Breaker.Timeout,
				MaxRequests: cfg.Kafka.Producer.Breaker.MaxRequests,
			},
		})
		if err != nil {
			log.Fatalf("Failed to create Kafka producer: %v", err)
		}
		publishers = append(publishers, producer)
	}

	eng := engine.New(cfg.MonteCarlo.RegistryCapacity, engine.WithRecorder(recorder))
	hub := websocket.NewHub(eng)
	publishers = append(publishers, hub)
	eng.SetPublisher(publishers)

	if cfg.MonteCarlo.GridPath != "" {
		if err := eng.LoadGridFile(cfg.MonteCarlo.GridPath); err != nil {
			log.Warnf("Grid not loaded from %s, load it through the API: %v", cfg.MonteCarlo.GridPath, err)
		} else {
			log.Infof("Loaded grid from %s", cfg.MonteCarlo.GridPath)
		}
	}

	mode := gin.DebugMode
	if cfg.App.Environment == "production" {
		mode = gin.ReleaseMode
	}
	apiServer := api.NewServer(
		api.Config{
			Host:           cfg.API.Host,
			Port:           cfg.API.Port,
			ReadTimeout:    cfg.API.ReadTimeout,
			WriteTimeout:   cfg.API.WriteTimeout,
			Mode:           mode,
			RateLimit:      cfg.API.RateLimit,
			RateBurst:      cfg.API.RateBurst,
			AllowedOrigins: cfg.API.CORS.AllowedOrigins,
			AllowedMethods: cfg.API.CORS.AllowedMethods,
			AllowedHeaders: cfg.API.CORS.AllowedHeaders,
		},
		eng,
		api.WithMetrics(recorder, registry),
		api.WithStream(hub),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(apiServer.Start)

	var metricsServer *metrics.PrometheusServer
	if cfg.Metrics.Prometheus.Enabled {
		metricsServer = metrics.NewPrometheusServer(cfg.Metrics.Prometheus.Port, registry)
		g.Go(metricsServer.Start)
	}

	g.Go(func() error {
		interval := cfg.Metrics.Interval
		if interval <= 0 {
			interval = 15 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				recorder.RecordRuntime()
			}
		}
	})

	// shutdown once a signal arrives or any server fails
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Initiating shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Errorf("API server shutdown error: %v", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				log.Errorf("Metrics server shutdown error: %v", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Service stopped with error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("Kafka producer shutdown error: %v", err)
		}
	}
	eng.Close()

	log.Info("Shutdown complete")
}
