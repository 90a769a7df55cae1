// Package logger provides structured logging for monitored-app.
//
// This package wraps zap for structured JSON logging:
//
//   - logger.go: Logger interface, levels and the process default logger
//   - zap.go: Encoder and core construction
//   - async.go: Bounded asynchronous file writer with drop-on-overflow
//   - context.go: Context-aware logging with request IDs
//
// Each record is one JSON line with the keys ts (ISO-8601, UTC), level
// (DEBUG, INFO, WARN, ERROR) and msg, followed by the caller's key/value
// pairs. Write failures are swallowed: logging never fails the caller.
package logger
