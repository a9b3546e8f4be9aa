package treestats

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var pkgLogger atomic.Pointer[slog.Logger]

func init() {
	pkgLogger.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLogger installs the logger used for diagnostics. Passing nil restores
// the default, which discards everything.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pkgLogger.Store(l)
}

// loggerProxy forwards to the currently installed logger so call sites can
// use the package-level name directly.
type loggerProxy struct{}

var logger loggerProxy

func (loggerProxy) Debug(msg string, args ...any) { pkgLogger.Load().Debug(msg, args...) }
func (loggerProxy) Warn(msg string, args ...any)  { pkgLogger.Load().Warn(msg, args...) }
