// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package seascene

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops all records.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (d discard) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discard) WithGroup(string) slog.Handler           { return d }

var logger atomic.Pointer[slog.Logger]

func init() { SetLogger(nil) }

// SetLogger sets the logger of every seascene package.
// Nil discards all output, which is the default.
// Lifecycle events are logged at Info, failed loads and
// renders at Warn, and per-frame detail at Debug.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discard{})
	}
	logger.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger { return logger.Load() }
