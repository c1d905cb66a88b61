// Package logger builds slog loggers whose handler injects tenant and
// user identity from the request context into every record.
package logger
