// Package internal holds the logging plumbing shared by this module's
// packages: a trace level below slog's standard ones and nil-tolerant
// wrappers, so a Stack built without a logger costs nothing on the packet
// path.
package internal

import (
	"context"
	"log/slog"
)

// LevelTrace is one notch below slog.LevelDebug, used for per-packet
// tracing that would drown a debug log.
const LevelTrace slog.Level = slog.LevelDebug - 2

// LogEnabled reports whether l would emit a record at lvl. Callers use it
// to skip building expensive attributes (frame stringification) that
// LogAttrs would then discard.
func LogEnabled(l *slog.Logger, lvl slog.Level) bool {
	return l != nil && l.Handler().Enabled(context.Background(), lvl)
}

// LogAttrs emits msg with attrs at lvl. A nil logger discards everything.
func LogAttrs(l *slog.Logger, lvl slog.Level, msg string, attrs ...slog.Attr) {
	if l == nil {
		return
	}
	l.LogAttrs(context.Background(), lvl, msg, attrs...)
}
