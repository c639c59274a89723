package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the log file created inside the log directory.
const LogFileName = "game.log"

var slogLevels = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// Logger writes JSON log lines carrying the game context of the caller:
// game id, turn, phase and seat. Child loggers share the parent's output.
// It is safe for concurrent use.
type Logger struct {
	root slog.Handler
	log  *slog.Logger
	ctx  []slog.Attr
	// out is set only when the logger owns a log file.
	out *RotatingWriter
}

// NewLogger creates a Logger that writes to {dir}/game.log, rotating the
// file according to rotation.
//
// The level parameter controls which messages are logged:
//   - DEBUG: everything, including every prompt and raw reply
//   - INFO: game progress, warnings and errors
//   - WARN: degraded inference and rejected decisions
//   - ERROR: only failures that cost a seat its action
//
// If dir is empty, logs will be written to stderr.
func NewLogger(dir string, level string, rotation RotationConfig) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}

	rw, err := NewRotatingWriter(filepath.Join(dir, LogFileName), rotation)
	if err != nil {
		return nil, fmt.Errorf("failed to open game log: %w", err)
	}

	l := NewWriterLogger(rw, level)
	l.out = rw
	return l, nil
}

// NewWriterLogger creates a Logger that writes JSON lines to w.
// The caller owns w; Close does not close it.
func NewWriterLogger(w io.Writer, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevels[ParseLevel(level)]})
	return &Logger{root: h, log: slog.New(h)}
}

// NopLogger returns a Logger that discards all log output.
func NopLogger() *Logger {
	return NewWriterLogger(io.Discard, LevelError)
}

// ParseLevel normalizes a level name, falling back to LevelInfo for
// anything unrecognized.
func ParseLevel(level string) string {
	up := strings.ToUpper(strings.TrimSpace(level))
	if _, ok := slogLevels[up]; ok {
		return up
	}
	return LevelInfo
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// WithGame tags entries with the game id.
func (l *Logger) WithGame(gameID string) *Logger {
	return l.with(slog.String("game_id", gameID))
}

// WithSeat tags entries with a seat id.
func (l *Logger) WithSeat(seat int) *Logger {
	return l.with(slog.Int("seat", seat))
}

// WithPhase tags entries with the phase: "night", "day" or "game_over".
func (l *Logger) WithPhase(phase string) *Logger {
	return l.with(slog.String("phase", phase))
}

// WithTurn tags entries with the turn number.
func (l *Logger) WithTurn(turn int) *Logger {
	return l.with(slog.Int("turn", turn))
}

// With tags entries with alternating key-value pairs. Non-string keys and
// a trailing key without a value are ignored.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	var attrs []slog.Attr
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			attrs = append(attrs, slog.Any(key, args[i+1]))
		}
	}
	return l.with(attrs...)
}

// with derives a child whose context has attrs added. An attribute whose
// key is already present replaces the inherited one.
func (l *Logger) with(attrs ...slog.Attr) *Logger {
	ctx := make([]slog.Attr, 0, len(l.ctx)+len(attrs))
	for _, a := range l.ctx {
		if !hasKey(attrs, a.Key) {
			ctx = append(ctx, a)
		}
	}
	ctx = append(ctx, attrs...)

	return &Logger{
		root: l.root,
		log:  slog.New(l.root.WithAttrs(ctx)),
		ctx:  ctx,
		out:  l.out,
	}
}

func hasKey(attrs []slog.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) {
	l.log.Log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) {
	l.log.Log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) {
	l.log.Log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) {
	l.log.Log(context.Background(), slog.LevelError, msg, args...)
}

// Close flushes and closes the log file and waits for pending backup
// compression. Closing a logger that writes to stderr or a caller-owned
// writer is a no-op, as is closing twice.
func (l *Logger) Close() error {
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}
