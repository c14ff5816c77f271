package transaction

import "go.uber.org/zap"

// log is the package logger. It discards everything until a caller installs
// a real logger with UseLogger.
var log = zap.NewNop()

// UseLogger routes the package's log output through the provided logger.
func UseLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log = logger
}
