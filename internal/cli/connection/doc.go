// Package connection talks to a running monitored-app over HTTP.
//
// HTTPClient wraps net/http with the base URL handling and JSON error
// decoding the commands share. Metrics parses the Prometheus text
// exposition served at /metrics.
package connection
