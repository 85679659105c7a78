// Package logging provides leveled, rotated logging for leech commands,
// grounded on the teacher's daemonLogger wrapper (a slog.Logger held by
// value and threaded through server/command constructors) combined with
// lumberjack rotation for the log file it's pointed at.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level mirrors the CLI's three verbosity flags, from least to most
// talkative: --inform, --verbose, --debug.
type Level int

const (
	LevelInform Level = iota
	LevelVerbose
	LevelDebug
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelVerbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Logger wraps a slog.Logger the same way the teacher's daemonLogger does,
// so commit/diff/apply callers can pass one value around without importing
// log/slog themselves.
type Logger struct {
	logger *slog.Logger
}

// New builds a Logger at the given level, writing to both stderr and, if
// logFile is non-empty, a size/age-rotated file via lumberjack.
func New(level Level, logFile string) *Logger {
	var w io.Writer = os.Stderr
	if logFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	return &Logger{logger: slog.New(handler)}
}

// Discard returns a Logger that drops everything, for tests and library
// callers that don't want leech's logging wired up.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Debugf(format string, args ...any) { l.logger.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.logger.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.logger.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.logger.Error(fmt.Sprintf(format, args...)) }

// WithContext attaches no values today; it exists so call sites that thread
// a context through commit/diff/apply can log with it without a signature
// change later if request-scoped fields are added.
func (l *Logger) WithContext(ctx context.Context) *Logger { return l }
