package httpserver

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
	"github.com/yndnr/monitored-app/internal/telemetry/metric"
	"github.com/yndnr/monitored-app/pkg/cmap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// SlowRequestThreshold is the duration above which http_request is logged
// at WARN instead of INFO.
const SlowRequestThreshold = time.Second

// timeNow is replaced in tests.
var timeNow = time.Now

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID adds a unique request ID to each request. A non-empty incoming
// X-Request-ID is kept; otherwise a ULID is generated.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = ulid.Make().String()
			}

			w.Header().Set(RequestIDHeader, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recorder is the part of the metric registry Instrument writes to.
type Recorder interface {
	ObserveHistogram(name string, labelValues []string, value float64) error
	IncrementCounter(name string, labelValues []string, delta float64) error
}

// Instrument records one latency observation, one request count and one
// http_request log record per completed request.
//
// Recording happens after next returns. A request is aborted, and not
// recorded, when its handler panics with http.ErrAbortHandler or when the
// client went away before the handler finished.
//
// The route label is the request path with invalid UTF-8 replaced by U+FFFD.
func Instrument(rec Recorder, log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := timeNow()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			if r.Context().Err() != nil {
				return
			}

			elapsed := timeNow().Sub(start).Seconds()
			status := wrapped.statusCode
			route := routeLabel(r.URL.Path)
			labels := []string{r.Method, route, strconv.Itoa(status)}

			l := log
			if id := logger.RequestIDFromContext(r.Context()); id != "" {
				l = l.With("request_id", id)
			}

			if err := rec.ObserveHistogram(metric.HTTPRequestDuration, labels, elapsed); err != nil {
				l.Error("metric_record_failed", "metric", metric.HTTPRequestDuration, "error", err.Error())
			}
			if err := rec.IncrementCounter(metric.HTTPRequestsTotal, labels, 1); err != nil {
				l.Error("metric_record_failed", "metric", metric.HTTPRequestsTotal, "error", err.Error())
			}

			level := logger.InfoLevel
			if elapsed > SlowRequestThreshold.Seconds() {
				level = logger.WarnLevel
			}
			l.Log(level, "http_request",
				"method", r.Method,
				"route", route,
				"status_code", status,
				"duration", elapsed,
			)
		})
	}
}

func routeLabel(path string) string {
	return strings.ToValidUTF8(path, "\uFFFD")
}

// Trace starts one server span per request. The trace ID is added to the
// request context for log correlation.
func Trace(tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				ctx = logger.WithTraceID(ctx, sc.TraceID().String())
			}

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", wrapped.statusCode))
			if wrapped.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			}
		})
	}
}

// maxVisitors bounds the per-IP limiter table; above it, idle entries are
// swept.
const (
	maxVisitors = 10000
	visitorIdle = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimit applies per-client-IP token bucket limiting. The bucket holds
// requestsPerSecond tokens and refills at the same rate.
func RateLimit(requestsPerSecond int) Middleware {
	visitors := cmap.New[string, *visitor]()
	limit := rate.Limit(requestsPerSecond)
	burst := max(requestsPerSecond, 1)

	get := func(ip string) *rate.Limiter {
		now := timeNow()
		v := visitors.Upsert(ip, func(cur *visitor, ok bool) *visitor {
			if ok {
				return cur
			}
			return &visitor{limiter: rate.NewLimiter(limit, burst)}
		})
		v.lastSeen.Store(now.UnixNano())

		if visitors.Count() > maxVisitors {
			cutoff := now.Add(-visitorIdle).UnixNano()
			visitors.DeleteFunc(func(_ string, old *visitor) bool {
				return old.lastSeen.Load() < cutoff
			})
		}
		return v.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !get(getClientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recover recovers from panics and returns a 500 error.
// http.ErrAbortHandler is re-raised so net/http can abort the response.
func Recover(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)

			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				log.Error("panic_recovered",
					"request_id", logger.RequestIDFromContext(r.Context()),
					"route", r.URL.Path,
					"error", fmt.Sprint(err),
					"stack", string(debug.Stack()),
				)

				if !wrapped.wroteHeader {
					writeError(wrapped, http.StatusInternalServerError, "internal_error", "internal server error")
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher when the underlying writer does.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.wroteHeader {
			w.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// net.SplitHostPort handles bracketed IPv6 addresses like [::1]:8080.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
