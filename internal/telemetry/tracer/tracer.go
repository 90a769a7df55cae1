package tracer

import (
	"context"
	"sync"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

// InstrumentationName names the tracer used for HTTP server spans.
const InstrumentationName = "github.com/yndnr/monitored-app/internal/server/httpserver"

// Config configures the tracer provider.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
}

// Provider owns the OpenTelemetry tracer provider.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
	once   sync.Once
}

type options struct {
	processors []sdktrace.SpanProcessor
	log        logger.Logger
}

// Option configures a Provider.
type Option func(*options)

// WithSpanProcessor adds a span processor. When at least one processor is
// given the default log exporter is not installed.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.processors = append(o.processors, sp)
	}
}

// WithLogger sets the logger finished spans are written to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// New creates a tracer provider. A disabled config yields a no-op tracer.
func New(cfg Config, opts ...Option) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(InstrumentationName)}, nil
	}

	o := options{log: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	res := sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if len(o.processors) == 0 {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(NewLogExporter(o.log)))
	}
	for _, sp := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &Provider{tp: tp, tracer: tp.Tracer(InstrumentationName)}, nil
}

// Tracer returns the tracer for HTTP server spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.tp != nil
}

// Shutdown flushes pending spans and stops the provider. It is safe to call
// more than once.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}

	var err error
	p.once.Do(func() {
		err = p.tp.Shutdown(ctx)
	})
	return err
}
