package httpserver

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/monitored-app/internal/server/httpserver/handler"
	"github.com/yndnr/monitored-app/internal/telemetry/logger"
	"github.com/yndnr/monitored-app/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics receives request metrics and serves GET /metrics.
	Metrics *metric.Registry

	// Logger for request and route logging.
	Logger logger.Logger

	// Delays bounds the simulated route delays.
	Delays handler.Delays

	// HandlerOptions are passed through to handler.New.
	HandlerOptions []handler.Option

	// RateLimit is the per-IP limit in requests/second (0 = disabled).
	RateLimit int

	// Tracer starts one span per request (nil = no tracing).
	Tracer trace.Tracer
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Delays: handler.DefaultDelays(),
	}
}

// NewRouter creates the HTTP handler with all routes and middleware.
//
// Order: RequestID -> Instrument -> Trace -> RateLimit -> Recover -> routes.
// Requests rejected by RateLimit or answered with 404/405 are still
// instrumented.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	h := handler.New(cfg.Metrics.Handler(), log, cfg.Delays, cfg.HandlerOptions...)

	middlewares := []Middleware{
		RequestID(),
		Instrument(cfg.Metrics, log),
	}
	if cfg.Tracer != nil {
		middlewares = append(middlewares, Trace(cfg.Tracer))
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	middlewares = append(middlewares, Recover(log))

	return Chain(h, middlewares...)
}
