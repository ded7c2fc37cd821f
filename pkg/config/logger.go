package config

import (
	"github.com/pkg/errors"
	"github.com/suffix-labs/namada-signer/pkg/txerr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ParseLevel parses a zap level name. The empty string means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, errors.Wrapf(txerr.ErrInvalidSettings, "log level %q", s)
	}
	return level, nil
}

// CreateLogger builds the process logger.
func (c *Config) CreateLogger() (*zap.Logger, error) {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// Responses go to stdout; keep logs off it.
	zc.OutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	return logger, errors.Wrap(err, "create logger")
}
