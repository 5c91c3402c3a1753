package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level and the fields stamped on every entry.
type Options struct {
	Level       string
	Service     string
	Environment string
	Version     string
	// OutputPaths defaults to stdout.
	OutputPaths []string
}

// New builds the JSON logger shared by the ingestion and stats paths.
// Entries carry service, env and version so archived logs from several
// deployments can be told apart.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(strings.ToLower(opts.Level)); err != nil {
			return nil, err
		}
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	fields := map[string]interface{}{}
	if opts.Service != "" {
		fields["service"] = opts.Service
	}
	if opts.Environment != "" {
		fields["env"] = opts.Environment
	}
	if opts.Version != "" {
		fields["version"] = opts.Version
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoder.EncodeDuration = zapcore.MillisDurationEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "json",
		EncoderConfig:     encoder,
		DisableStacktrace: level > zapcore.DebugLevel,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     fields,
	}

	return cfg.Build()
}
