// Package logging builds the process-wide zap logger. The logger is
// constructed once and passed into constructors; there is no package-level
// global so tests can run with zap.NewNop().
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a production logger. The level comes from LOG_LEVEL when set
// (debug, info, warn, error), otherwise info.
func New() (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		if level, err := zapcore.ParseLevel(logLevel); err == nil {
			config.Level.SetLevel(level)
		}
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}
