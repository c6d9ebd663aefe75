package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. With interactive set the terminal
// belongs to the TUI, so logs go to LogFile or nowhere.
func NewLogger(c *Config, interactive bool) (*zap.Logger, error) {
	if interactive && c.LogFile == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Sampling = nil
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if c.LogFile != "" {
		config.OutputPaths = []string{c.LogFile}
		config.ErrorOutputPaths = []string{c.LogFile}
	} else {
		config.Encoding = "console"
		config.OutputPaths = []string{"stderr"}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return logger, nil
}
