package tracer

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

// LogExporter writes each finished span as a DEBUG "span_ended" record.
type LogExporter struct {
	log logger.Logger
}

// NewLogExporter creates an exporter writing to l.
func NewLogExporter(l logger.Logger) *LogExporter {
	return &LogExporter{log: l}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		args := []any{
			"name", s.Name(),
			"trace_id", s.SpanContext().TraceID().String(),
			"span_id", s.SpanContext().SpanID().String(),
			"duration", s.EndTime().Sub(s.StartTime()).Seconds(),
		}
		for _, kv := range s.Attributes() {
			args = append(args, string(kv.Key), kv.Value.Emit())
		}
		e.log.Debug("span_ended", args...)
	}
	return ctx.Err()
}

// Shutdown implements sdktrace.SpanExporter. The logger is owned by the
// caller and stays open.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}
