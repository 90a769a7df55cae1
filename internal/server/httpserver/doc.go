// Package httpserver provides the HTTP server of monitored-app.
//
// This package builds on stdlib net/http:
//
//   - server.go: Server lifecycle (listen, serve, graceful shutdown)
//   - router.go: Route table and middleware chain
//   - middleware.go: RequestID, Instrument, Trace, RateLimit, Recover
//
// Every request passes through Instrument, which records
// http_request_duration_seconds and http_requests_total and writes one
// http_request log record once the wrapped handler has returned.
package httpserver
