package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "factory-events", cfg.App.Name)
	assert.Equal(t, "local", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 6*time.Hour, cfg.Ingest.MaxDuration)
	assert.Equal(t, 15*time.Minute, cfg.Ingest.FutureTolerance)
	assert.Equal(t, 2.0, cfg.Stats.WarningThreshold)
	assert.Equal(t, 64, cfg.Store.Shards)
	assert.Empty(t, cfg.Archive.DBURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INGEST_MAX_DURATION", "1h")
	t.Setenv("INGEST_FUTURE_TOLERANCE", "30s")
	t.Setenv("STATS_WARNING_THRESHOLD", "5.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STORE_SHARDS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Ingest.MaxDuration)
	assert.Equal(t, 30*time.Second, cfg.Ingest.FutureTolerance)
	assert.Equal(t, 5.5, cfg.Stats.WarningThreshold)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8, cfg.Store.Shards)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unparseable duration", key: "INGEST_MAX_DURATION", value: "six hours"},
		{name: "zero max duration", key: "INGEST_MAX_DURATION", value: "0s"},
		{name: "negative threshold", key: "STATS_WARNING_THRESHOLD", value: "-1"},
		{name: "zero shards", key: "STORE_SHARDS", value: "0"},
		{name: "sample ratio above one", key: "OTEL_TRACES_SAMPLER_RATIO", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
