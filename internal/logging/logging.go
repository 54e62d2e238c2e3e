// Package logging builds the zap loggers used across sift.
//
// Output goes to stdout as JSON or console lines, optionally teed into an
// OpenTelemetry log provider.
package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
	}
}

// Validate checks level and format values.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid log format %q: must be json or console", c.Format)
	}
	return nil
}

// New creates a logger from config. otelProvider can be nil to disable
// OTEL output.
func New(cfg *Config, otelProvider log.LoggerProvider) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	level, _ := zapcore.ParseLevel(cfg.Level)
	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.AddSync(os.Stdout), level)

	if otelProvider != nil {
		core = zapcore.NewTee(core, otelzap.NewCore("sift",
			otelzap.WithLoggerProvider(otelProvider),
		))
	}

	return zap.New(core), nil
}

// newEncoder creates a JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
