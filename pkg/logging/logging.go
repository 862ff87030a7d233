package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger *slog.Logger

// Init initializes the package-level logger. It should be called once at
// process startup; until it is, logging falls back to a discard handler so
// library code (and tests that never call Init) never panics.
func Init(level LogLevel, output io.Writer) {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: level.SlogLevel()})
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func logger() *slog.Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	l := logger()
	if !l.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// AuditEvent is a structured record of a governed invocation outcome.
type AuditEvent struct {
	Caller     string
	Target     string
	Action     string
	Allowed    bool
	Success    bool
	DurationMs int64
	TraceID    string
	Error      string
}

// Audit logs a structured audit event at INFO level with an [AUDIT] prefix
// so audit lines can be filtered independently of ordinary application logs.
func Audit(event AuditEvent) {
	parts := make([]string, 0, 8)
	parts = append(parts, "caller="+event.Caller)
	parts = append(parts, "target="+event.Target)
	parts = append(parts, "action="+event.Action)
	parts = append(parts, "allowed="+boolString(event.Allowed))
	parts = append(parts, "success="+boolString(event.Success))
	parts = append(parts, fmt.Sprintf("duration_ms=%d", event.DurationMs))
	if event.TraceID != "" {
		parts = append(parts, "trace="+event.TraceID)
	}
	if event.Error != "" {
		parts = append(parts, "error="+event.Error)
	}
	logInternal(LevelInfo, "AUDIT", nil, "[AUDIT] %s", strings.Join(parts, " "))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
