package logger

import (
	"go.uber.org/zap"

	pkglogger "github.com/narwhalmedia/decisionengine/pkg/logger"
)

// New creates the root logger for a service.
func New(serviceName, environment, logLevel, logFormat string) (*zap.Logger, error) {
	var cfg pkglogger.Config
	if environment == "production" {
		cfg = pkglogger.DefaultConfig()
	} else {
		cfg = pkglogger.DevelopmentConfig()
	}

	if _, err := zap.ParseAtomicLevel(logLevel); err != nil {
		return nil, err
	}
	cfg.Level = logLevel
	if logFormat == "json" {
		cfg.Format = "json"
	} else {
		cfg.Format = "console"
	}
	cfg.ServiceName = serviceName
	cfg.Environment = environment

	return cfg.Build()
}

// WithRelease tags a logger with the release under evaluation.
func WithRelease(logger *zap.Logger, title, guid string) *zap.Logger {
	fields := []zap.Field{}

	if title != "" {
		fields = append(fields, zap.String("release", title))
	}

	if guid != "" {
		fields = append(fields, zap.String("guid", guid))
	}

	if len(fields) > 0 {
		return logger.With(fields...)
	}

	return logger
}

// WithArtist tags a logger with the target artist.
func WithArtist(logger *zap.Logger, artistID int) *zap.Logger {
	if artistID == 0 {
		return logger
	}
	return logger.With(zap.Int("artist_id", artistID))
}
