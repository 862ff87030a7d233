package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, got, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo},
	}

	for _, test := range tests {
		if got := test.level.SlogLevel(); got != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, got, test.expected)
		}
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	if defaultLogger == nil {
		t.Fatal("expected defaultLogger to be set after Init")
	}

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("expected log message to appear in output")
	}
	if !strings.Contains(output, "test-subsystem") {
		t.Error("expected subsystem to appear in output")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered out at INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("info message should appear at INFO level")
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, &buf)

	Error("test", errBoom, "operation failed")

	output := buf.String()
	if !strings.Contains(output, "boom") {
		t.Error("expected underlying error message in output")
	}
}

var errBoom = &stringError{"boom"}

type stringError struct{ s string }

func (e *stringError) Error() string { return e.s }

func TestAuditFormatsKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Audit(AuditEvent{
		Caller:     "host",
		Target:     "user:hello",
		Action:     "invoke",
		Allowed:    true,
		Success:    true,
		DurationMs: 12,
		TraceID:    "abc-123",
	})

	output := buf.String()
	for _, want := range []string{"[AUDIT]", "caller=host", "target=user:hello", "allowed=true", "success=true", "trace=abc-123"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected audit output to contain %q, got: %s", want, output)
		}
	}
}

func TestAuditOmitsEmptyOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Audit(AuditEvent{Caller: "host", Target: "user:hello", Action: "invoke", Allowed: false, Success: false})

	output := buf.String()
	if strings.Contains(output, "trace=") {
		t.Error("expected no trace field when TraceID is empty")
	}
	if strings.Contains(output, "error=") {
		t.Error("expected no error field when Error is empty")
	}
}
