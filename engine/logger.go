package engine

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the engine's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs the engine's logger. Call it at process start,
// before engine creation; it is not safe to race against Logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	logger = l
}
