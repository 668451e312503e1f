// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger writes key/value pairs to a handler.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes.
	With(ctx ...any) Logger

	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)

	// Handler returns the underlying handler of the inner logger.
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return &logger{slog.New(h)}
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) Handler() slog.Handler {
	return l.inner.Handler()
}

func (l *logger) write(level slog.Level, msg string, attrs ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	r := slog.NewRecord(nowFunc(), level, msg, 0)
	r.Add(attrs...)
	l.inner.Handler().Handle(context.Background(), r)
}

func (l *logger) Debug(msg string, ctx ...any) { l.write(slog.LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(slog.LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(slog.LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.write(slog.LevelError, msg, ctx...) }

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(NewTerminalHandler(os.Stderr, false))})
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l.(*logger))
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(*logger)
}

// WithContext returns a logger bound to the root handler carrying the given attributes.
// The idiomatic use is a package-level
//
//	var logger = log.WithContext("pkg", "txpool")
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// The following functions bypass the exported logger methods (logger.Debug,
// etc.) to keep the call depth the same for all paths.

// Debug logs a message at the debug level with context key/value pairs.
func Debug(msg string, ctx ...any) {
	Root().(*logger).write(slog.LevelDebug, msg, ctx...)
}

// Info logs a message at the info level with context key/value pairs.
func Info(msg string, ctx ...any) {
	Root().(*logger).write(slog.LevelInfo, msg, ctx...)
}

// Warn logs a message at the warn level with context key/value pairs.
func Warn(msg string, ctx ...any) {
	Root().(*logger).write(slog.LevelWarn, msg, ctx...)
}

// Error logs a message at the error level with context key/value pairs.
func Error(msg string, ctx ...any) {
	Root().(*logger).write(slog.LevelError, msg, ctx...)
}
