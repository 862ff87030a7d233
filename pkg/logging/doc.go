// Package logging provides the structured logging used throughout the
// governance kernel: a thin, slog-backed wrapper keyed by subsystem name
// plus a dedicated Audit entry point for security-sensitive invocations.
//
// # Log Levels
//
//   - Debug: detailed information for debugging and development
//   - Info: general informational messages about runtime operation
//   - Warn: warning messages that indicate potential issues
//   - Error: failures and exceptional conditions
//
// # Usage
//
//	logging.Init(logging.LevelInfo, os.Stdout)
//	logging.Info("Lifecycle", "instance %s marked ready", version)
//	logging.Error("Executor", err, "invocation %s failed", fqsid)
//
// # Subsystem organization
//
// Logs are organized by subsystem to enable filtering and categorization:
// Bus, Instance, InstancePool, Registry, Executor, Lifecycle, Runtime,
// Manager, ConfigWatcher, plus AUDIT for Audit records.
//
// # Audit events
//
// Audit records security-relevant invocation outcomes (permission checks,
// service calls) as a single structured line under the AUDIT subsystem, so
// they can be grepped or shipped to an external audit sink independently of
// ordinary application logs.
package logging
