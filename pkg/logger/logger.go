package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

// Options controls where and how much a Logger writes.
type Options struct {
	Level string
	// File enables a rotated copy of the output next to stdout.
	File   string
	Writer io.Writer
}

// Logger writes one JSON object per entry with the fields
// timestamp, level, service, hostname, action, message, request_id and error.
type Logger struct {
	l *slog.Logger
}

func NewLogger(service string, opts Options) *Logger {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	}
	if opts.File != "" {
		w = io.MultiWriter(w, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		})
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(opts.Level),
		ReplaceAttr: replaceAttr,
	})

	hostname, _ := os.Hostname()
	return &Logger{l: slog.New(h).With("service", service, "hostname", hostname)}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{l: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Action(action string) *Logger {
	return &Logger{l: l.l.With("action", action)}
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{l: l.l.With("request_id", requestID)}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{l: l.l.With(args...)}
}

func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{l: l.l.WithGroup(name)}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.l.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.l.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.l.Warn(msg, args...)
}

func (l *Logger) Error(msg string, err error, args ...any) {
	if err != nil {
		buf := make([]byte, 1024)
		n := runtime.Stack(buf, false)
		args = append(args, slog.Group("error",
			slog.String("msg", err.Error()),
			slog.String("stack", string(buf[:n])),
		))
	}
	l.l.Error(msg, args...)
}

// WithCtx stores a request-scoped logger in ctx.
func WithCtx(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromCtx returns the logger stored in ctx, or fallback.
func FromCtx(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return fallback
}
