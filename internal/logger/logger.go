// Package logger builds the process zap logger.
package logger

import "go.uber.org/zap"

// New creates a production JSON logger for env "production" and a development
// console logger otherwise.
func New(env string) *zap.Logger {
	if env == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
