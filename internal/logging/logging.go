// Package logging builds the file-backed zap logger the binaries share.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a logger that appends JSON records to logPath.
// An empty path disables logging. The returned close func syncs the log.
func NewLogger(logPath, level string) (*zap.Logger, func(), error) {
	if logPath == "" {
		return zap.NewNop(), func() {}, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	lvl, err := parseLevel(level)
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(logFile),
		lvl,
	)
	logger := zap.New(core)

	closer := func() {
		_ = logger.Sync()
		_ = logFile.Close()
	}
	return logger, closer, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}
