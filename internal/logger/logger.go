// Package logger builds the zap logger shared by the binaries.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var newProduction = zap.NewProduction

// New returns a JSON production logger for production environments and a
// human readable development logger everywhere else.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "production", "prod":
		return newProduction()
	case "test":
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// Must is New that panics on error.
func Must(env string) *zap.Logger {
	l, err := New(env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return l
}
