package logger

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
)

// Logger is the leveled logger threaded through the pipeline. A context is
// accepted so request-scoped implementations can pull identifiers from it.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

type stdLogger struct {
	logger *log.Logger
	min    level
}

// New returns a Logger writing to stdout at the given minimum level.
// Unknown level names fall back to info.
func New(minLevel string) Logger {
	return NewWithWriter(os.Stdout, minLevel)
}

// NewWithWriter is New with an explicit sink, used by tests.
func NewWithWriter(w io.Writer, minLevel string) Logger {
	return &stdLogger{
		logger: log.New(w, "", log.LstdFlags),
		min:    parseLevel(minLevel),
	}
}

func (l *stdLogger) logf(lv level, prefix, msg string, args ...any) {
	if lv < l.min {
		return
	}
	l.logger.Printf(prefix+msg, args...)
}

func (l *stdLogger) Debug(_ context.Context, msg string, args ...any) {
	l.logf(levelDebug, "[DEBUG] ", msg, args...)
}

func (l *stdLogger) Info(_ context.Context, msg string, args ...any) {
	l.logf(levelInfo, "[INFO] ", msg, args...)
}

func (l *stdLogger) Warn(_ context.Context, msg string, args ...any) {
	l.logf(levelWarn, "[WARN] ", msg, args...)
}

func (l *stdLogger) Error(_ context.Context, msg string, args ...any) {
	l.logf(levelError, "[ERROR] ", msg, args...)
}

// Nop discards everything; handy default for library callers and tests.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
