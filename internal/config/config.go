package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains runtime configuration required by the service.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Ingest  IngestConfig
	Stats   StatsConfig
	Store   StoreConfig
	Archive ArchiveConfig
	Kafka   KafkaConfig
	NATS    NATSConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Name     string `env:"APP_NAME" envDefault:"factory-events"`
	Env      string `env:"APP_ENV" envDefault:"local"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"10485760"`
}

// IngestConfig bounds what a single event may claim.
type IngestConfig struct {
	MaxDuration     time.Duration `env:"INGEST_MAX_DURATION" envDefault:"6h"`
	FutureTolerance time.Duration `env:"INGEST_FUTURE_TOLERANCE" envDefault:"15m"`
}

type StatsConfig struct {
	WarningThreshold float64 `env:"STATS_WARNING_THRESHOLD" envDefault:"2.0"`
}

type StoreConfig struct {
	Shards int `env:"STORE_SHARDS" envDefault:"64"`
}

// ArchiveConfig enables the Postgres archive when DBURL is set.
type ArchiveConfig struct {
	DBURL string `env:"DB_URL"`
}

// KafkaConfig enables the Kafka sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string        `env:"KAFKA_TOPIC" envDefault:"factory.events.accepted"`
	BatchSize    int           `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	BatchTimeout time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"10ms"`
	Compression  string        `env:"KAFKA_COMPRESSION" envDefault:"snappy"`
	Retries      int           `env:"KAFKA_RETRIES" envDefault:"3"`
}

// NATSConfig enables the NATS sink when URL is set.
type NATSConfig struct {
	URL     string `env:"NATS_URL"`
	Subject string `env:"NATS_SUBJECT" envDefault:"factory.events.accepted"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Ingest.MaxDuration <= 0 {
		errs = append(errs, errors.New("INGEST_MAX_DURATION must be positive"))
	}
	if c.Ingest.FutureTolerance < 0 {
		errs = append(errs, errors.New("INGEST_FUTURE_TOLERANCE must not be negative"))
	}
	if c.Stats.WarningThreshold <= 0 {
		errs = append(errs, errors.New("STATS_WARNING_THRESHOLD must be positive"))
	}
	if c.Store.Shards <= 0 || c.Store.Shards > 1<<16 {
		errs = append(errs, errors.New("STORE_SHARDS must be in [1, 65536]"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("HTTP_MAX_BODY_BYTES must be positive"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_TRACES_SAMPLER_RATIO must be in [0, 1]"))
	}
	return errors.Join(errs...)
}
