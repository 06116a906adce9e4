package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lms")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxSlipBytes)
	assert.Equal(t, 20, cfg.AuthRateLimit)
	assert.False(t, cfg.Casdoor.Enabled())
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database", env: map[string]string{"DATABASE_URL": "", "JWT_SECRET": "x"}},
		{name: "missing jwt secret", env: map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": ""}},
		{name: "short production secret", env: map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": "short", "ENVIRONMENT": "production"}},
		{name: "bad log level", env: map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET": "x", "LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
