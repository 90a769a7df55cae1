// Package metric provides the application metric registry.
//
// This package implements metrics collection and exposition:
//
//   - definition.go: Metric definitions (name, help, kind, labels, buckets)
//   - prometheus.go: Registry backed by prometheus/client_golang
//   - render.go: Text exposition and the /metrics HTTP handler
//   - collector.go: Runtime, process and function-backed collectors
//   - app.go: The fixed metric set registered by monitored-app
//
// Every registry operation is safe for concurrent use. Request completions
// and the background sampler mutate the same registry.
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
