// Package tracer provides request tracing for monitored-app.
//
// This package wires the OpenTelemetry SDK:
//
//   - tracer.go: TracerProvider lifecycle and the process tracer
//   - export.go: Span exporter that writes finished spans to the logger
//
// When tracing is disabled the provider hands out a no-op tracer, so
// callers never need to check whether tracing is on.
package tracer
