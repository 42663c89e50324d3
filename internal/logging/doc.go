// Package logging provides a simple leveled logging interface for the
// audio transcoder service, backed by zap.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The printf-style helpers (Debug, Info, Warn, Error) are used for lifecycle
// messages. Request-scoped code uses [With] to get a structured logger that
// carries the bucket, object and request identifiers on every line.
//
// The log level is configured via the LOG_LEVEL environment variable, or
// explicitly through [Init] once configuration has been loaded.
package logging
