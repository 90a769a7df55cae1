package handler

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

// Delays holds the upper bound of each simulated route's delay. The actual
// delay is drawn uniformly from [0, max).
type Delays struct {
	Slow  time.Duration
	DB    time.Duration
	Cache time.Duration
}

// DefaultDelays returns the default delay bounds.
func DefaultDelays() Delays {
	return Delays{
		Slow:  2 * time.Second,
		DB:    200 * time.Millisecond,
		Cache: 50 * time.Millisecond,
	}
}

// Handler serves the application routes.
type Handler struct {
	metrics http.Handler
	logger  logger.Logger
	delays  Delays
	jitter  func(max time.Duration) time.Duration
	now     func() time.Time
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithJitter replaces the random delay source.
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(h *Handler) {
		h.jitter = fn
	}
}

// WithClock replaces the clock used for the /db timestamp.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// New creates a Handler. metrics serves GET /metrics.
func New(metrics http.Handler, log logger.Logger, delays Delays, opts ...Option) *Handler {
	if log == nil {
		log = logger.Default()
	}

	h := &Handler{
		metrics: metrics,
		logger:  log,
		delays:  delays,
		jitter:  uniform,
		now:     time.Now,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /{$}", h.handleRoot)
	h.mux.HandleFunc("GET /slow", h.handleSlow)
	h.mux.HandleFunc("GET /db", h.handleDB)
	h.mux.HandleFunc("GET /cache", h.handleCache)
	h.mux.HandleFunc("GET /metrics", h.handleMetrics)
	h.mux.HandleFunc("GET /health", h.handleHealth)
}

// writeJSON writes data as a JSON response body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("response_encode_failed", "error", err.Error())
	}
}

// wait draws a delay bounded by max and sleeps for it. The timer always
// fires; a client that goes away meanwhile does not shorten the wait.
// It returns the delay in fractional milliseconds.
func (h *Handler) wait(max time.Duration) float64 {
	d := h.jitter(max)

	t := time.NewTimer(d)
	<-t.C
	return float64(d) / float64(time.Millisecond)
}

// uniform returns a random duration in [0, max).
func uniform(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}
