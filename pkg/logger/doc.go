// Package logger provides structured logging with configurable log levels.
// It wraps log/slog, switching to JSON output in production, and carries
// request-scoped loggers through context.Context.
package logger
