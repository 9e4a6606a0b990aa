// Package logging builds the zap logger used across the CLI. Logs always go
// to stderr; stdout carries the prompt.
package logging

import (
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures Setup.
type Options struct {
	Debug      bool
	LogFile    string // Optional rotating log file, written in addition to stderr.
	AppName    string
	AppVersion string
}

// Rotation limits for the log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Setup builds a development logger when opts.Debug is set and a production
// logger otherwise, and installs it as the zap global.
func Setup(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	// Add default fields
	cfg.InitialFields = map[string]interface{}{
		"appName":    opts.AppName,
		"appVersion": opts.AppVersion,
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop(), err
	}

	if opts.LogFile != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(newRotatingFile(opts.LogFile)),
			cfg.Level,
		).With([]zap.Field{
			zap.String("appName", opts.AppName),
			zap.String("appVersion", opts.AppVersion),
		})
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newRotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
}
