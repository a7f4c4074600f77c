package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "quant-analytics", cfg.App.Name)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 30*time.Second, cfg.API.WriteTimeout)
	assert.Equal(t, "./data/grid.csv", cfg.MonteCarlo.GridPath)
	assert.Equal(t, 100, cfg.MonteCarlo.RegistryCapacity)
	assert.Equal(t, "analytics.calibrations", cfg.Kafka.Topics.Calibrations)
	assert.Equal(t, 10*time.Millisecond, cfg.Kafka.Producer.BatchTimeout)
	assert.Equal(t, KafkaBreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second, MaxRequests: 1}, cfg.Kafka.Producer.Breaker)
	assert.True(t, cfg.Metrics.Prometheus.Enabled)
	assert.Equal(t, []string{"*"}, cfg.API.CORS.AllowedOrigins)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Empty(t, cfg.MonteCarlo.GridPath)
	assert.Equal(t, 0.95, cfg.MonteCarlo.SummaryConfidence)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("QUANT_API_PORT", "9191")
	t.Setenv("QUANT_MONTECARLO_REGISTRY_CAPACITY", "7")
	t.Setenv("QUANT_APP_LOG_LEVEL", "debug")
	t.Setenv("QUANT_KAFKA_PRODUCER_BREAKER_TIMEOUT", "2m")

	cfg, err := Load(writeConfig(t, "api:\n  port: 8081\nkafka:\n  producer:\n    breaker:\n      max_failures: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.API.Port)
	assert.Equal(t, 7, cfg.MonteCarlo.RegistryCapacity)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 3, cfg.Kafka.Producer.Breaker.MaxFailures)
	assert.Equal(t, 2*time.Minute, cfg.Kafka.Producer.Breaker.Timeout)
	assert.Equal(t, 1, cfg.Kafka.Producer.Breaker.MaxRequests)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "api:\n  port: 70000\n"},
		{"confidence", "montecarlo:\n  summary_confidence: 1\n"},
		{"capacity", "montecarlo:\n  registry_capacity: -1\n"},
		{"kafka without topic", "kafka:\n  enabled: true\n  topics:\n    calibrations: \"\"\n"},
		{"breaker without failures", "kafka:\n  producer:\n    breaker:\n      max_failures: 0\n"},
		{"malformed yaml", "api: [port\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("QUANT_CONFIG_PATH", "")
	assert.Equal(t, "./config/config.yaml", GetConfigPath())

	t.Setenv("QUANT_CONFIG_PATH", "/etc/quant/config.yaml")
	assert.Equal(t, "/etc/quant/config.yaml", GetConfigPath())
}
