// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the logging facade of the project, backed by go-ethereum's slog based logger.
package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes key/value pairs to a Handler.
type Logger = ethlog.Logger

// Legacy verbosity levels, as accepted by the --verbosity flag.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// FromLegacyLevel converts a 0-9 verbosity into a slog level.
// Anything above trace is treated as trace.
func FromLegacyLevel(lvl int) slog.Level {
	switch {
	case lvl <= LegacyLevelCrit:
		return ethlog.LevelCrit
	case lvl == LegacyLevelError:
		return slog.LevelError
	case lvl == LegacyLevelWarn:
		return slog.LevelWarn
	case lvl == LegacyLevelInfo:
		return slog.LevelInfo
	case lvl == LegacyLevelDebug:
		return slog.LevelDebug
	default:
		return ethlog.LevelTrace
	}
}

// ContextLogger carries a fixed context and resolves the root logger on every record,
// so package level loggers follow a later SetDefault.
type ContextLogger struct {
	ctx []any
}

// WithContext returns a new logger derived from the root logger with the given context.
func WithContext(ctx ...any) *ContextLogger {
	return &ContextLogger{ctx: ctx}
}

// With returns a copy of the logger with additional context.
func (l *ContextLogger) With(ctx ...any) *ContextLogger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &ContextLogger{ctx: append(merged, ctx...)}
}

func (l *ContextLogger) root() Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *ContextLogger) Trace(msg string, ctx ...any) { l.root().Trace(msg, ctx...) }
func (l *ContextLogger) Debug(msg string, ctx ...any) { l.root().Debug(msg, ctx...) }
func (l *ContextLogger) Info(msg string, ctx ...any)  { l.root().Info(msg, ctx...) }
func (l *ContextLogger) Warn(msg string, ctx ...any)  { l.root().Warn(msg, ctx...) }
func (l *ContextLogger) Error(msg string, ctx ...any) { l.root().Error(msg, ctx...) }

// Enabled reports whether records at level would be emitted.
func (l *ContextLogger) Enabled(level slog.Level) bool {
	return ethlog.Root().Enabled(context.Background(), level)
}

// Root returns the root logger.
func Root() Logger {
	return ethlog.Root()
}

// SetDefault sets the root logger.
func SetDefault(l Logger) {
	ethlog.SetDefault(l)
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return ethlog.NewLogger(h)
}

// NewTerminalHandler returns a human friendly handler emitting records at lvl and above.
func NewTerminalHandler(wr io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandlerWithLevel(wr, lvl, useColor)
}

// NewJSONHandler returns a handler emitting one JSON object per record at lvl and above.
func NewJSONHandler(wr io.Writer, lvl slog.Level) slog.Handler {
	return ethlog.JSONHandlerWithLevel(wr, lvl)
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

type discardHandler struct{}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }

func (h *discardHandler) WithGroup(_ string) slog.Handler { return h }

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
