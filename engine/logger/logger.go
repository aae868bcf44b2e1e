// Package logger holds the process-wide structured logger shared by every engine package.
// Nothing is logged until SetLogger installs a real handler.
package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(discardHandler{}))
}

// SetLogger installs the logger used by the engine. It is safe to call while rendering.
// Passing nil restores the silent default.
//
// Levels used by the engine:
//   - Debug: resource (re)allocation, skipped degenerate work (empty shadow casters, bloom mips)
//   - Info: lifecycle and profiler output
//   - Warn: recoverable misuse, dropped settings
//   - Error: broken content such as failed shader links
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	current.Store(l)
}

// Logger returns the current engine logger.
func Logger() *slog.Logger {
	return current.Load()
}

// With returns the engine logger scoped to a component, e.g. logger.With("renderer").
func With(component string) *slog.Logger {
	return current.Load().With("component", component)
}
