// Package logger provides structured logging functionality for the application.
//
// It builds a log/slog JSON logger with a configurable level, optionally
// teed into a size-rotated file, and carries request-scoped loggers through
// context.Context.
package logger
