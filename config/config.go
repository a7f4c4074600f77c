package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App        AppConfig
	API        APIConfig
	MonteCarlo MonteCarloConfig
	Kafka      KafkaConfig
	Metrics    MetricsConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string `mapstructure:"log_level"`
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	CORS            CORSConfig
}

// CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Configuration for the simulation engine
type MonteCarloConfig struct {
	// GridPath is loaded at startup when set
	GridPath          string  `mapstructure:"grid_path"`
	RegistryCapacity  int     `mapstructure:"registry_capacity"`
	SummaryConfidence float64 `mapstructure:"summary_confidence"`
}

// Configuration for Kafka
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topics   KafkaTopicsConfig
	Producer KafkaProducerConfig
}

// Kafka topics configuration
type KafkaTopicsConfig struct {
	Calibrations string
}

// Kafka producer configuration
type KafkaProducerConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Async        bool
	Breaker      KafkaBreakerConfig
}

// Circuit breaker guarding the producer
type KafkaBreakerConfig struct {
	MaxFailures int `mapstructure:"max_failures"`
	Timeout     time.Duration
	MaxRequests int `mapstructure:"max_requests"`
}

// Configuration for metrics
type MetricsConfig struct {
	Prometheus PrometheusConfig
	Interval   time.Duration
}

// Configuration for Prometheus metrics
type PrometheusConfig struct {
	Enabled bool
	Port    int
}

// Load reads the configuration file at path, then applies QUANT_
// environment overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("QUANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.MonteCarlo.RegistryCapacity < 0 {
		return fmt.Errorf("montecarlo.registry_capacity %d must not be negative", c.MonteCarlo.RegistryCapacity)
	}
	if s := c.MonteCarlo.SummaryConfidence; !(s > 0 && s < 1) {
		return fmt.Errorf("montecarlo.summary_confidence %g outside (0, 1)", s)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topics.Calibrations == "") {
		return errors.New("kafka is enabled but brokers or calibration topic are missing")
	}
	if b := c.Kafka.Producer.Breaker; b.MaxFailures <= 0 || b.Timeout <= 0 || b.MaxRequests <= 0 {
		return errors.New("kafka.producer.breaker needs positive max_failures, timeout and max_requests")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "quant-analytics")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "30s")
	v.SetDefault("api.shutdown_timeout", "30s")
	v.SetDefault("api.rate_limit", 5)
	v.SetDefault("api.rate_burst", 10)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})
	v.SetDefault("api.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("api.cors.allowed_headers", []string{"Authorization", "Content-Type"})

	// Monte Carlo defaults
	v.SetDefault("montecarlo.grid_path", "")
	v.SetDefault("montecarlo.registry_capacity", 100)
	v.SetDefault("montecarlo.summary_confidence", 0.95)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topics.calibrations", "analytics.calibrations")
	v.SetDefault("kafka.producer.write_timeout", "10s")
	v.SetDefault("kafka.producer.batch_timeout", "10ms")
	v.SetDefault("kafka.producer.async", false)
	v.SetDefault("kafka.producer.breaker.max_failures", 5)
	v.SetDefault("kafka.producer.breaker.timeout", "30s")
	v.SetDefault("kafka.producer.breaker.max_requests", 1)

	// Metrics defaults
	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.port", 9090)
	v.SetDefault("metrics.interval", "15s")
}

func GetConfigPath() string {
	configPath := os.Getenv("QUANT_CONFIG_PATH")
	if configPath != "" {
		return configPath
	}

	return "./config/config.yaml"
}
