package keyset

import (
	"log/slog"
	"sync/atomic"
)

var _logger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used for advisory diagnostics. A nil logger
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	_logger.Store(l)
}

func logger() *slog.Logger {
	if l := _logger.Load(); l != nil {
		return l
	}

	return slog.Default()
}
