// Package logging builds the zap logger shared by the server, the background
// workers and the CLI.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production zap logger. level "debug" lowers the threshold;
// env "dev" switches to the human-readable console encoder.
func New(env, level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if strings.EqualFold(env, "dev") {
		config = zap.NewDevelopmentConfig()
	}
	if strings.EqualFold(level, "debug") {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build()
}
