package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
	"github.com/yndnr/monitored-app/internal/telemetry/metric"
)

// fixedJitter returns a jitter source that always picks d, and records the
// bound it was asked for.
func fixedJitter(d time.Duration, gotMax *time.Duration) func(time.Duration) time.Duration {
	return func(max time.Duration) time.Duration {
		if gotMax != nil {
			*gotMax = max
		}
		return d
	}
}

func newTestHandler(t *testing.T, opts ...Option) (*Handler, *observer.ObservedLogs) {
	t.Helper()

	r := metric.NewRegistry()
	if err := metric.RegisterApp(r); err != nil {
		t.Fatalf("RegisterApp() error = %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	h := New(r.Handler(), logger.NewZap(zap.New(core)), DefaultDelays(), opts...)
	return h, logs
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Root(t *testing.T) {
	h, logs := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"Hello from monitored app!"}` {
		t.Errorf("body = %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	entries := logs.FilterMessage("root_accessed").All()
	if len(entries) != 1 || entries[0].Level != zapcore.InfoLevel {
		t.Errorf("root_accessed entries = %v", entries)
	}
}

func TestHandler_SimulatedRoutes(t *testing.T) {
	tests := []struct {
		path    string
		delay   time.Duration
		wantMax time.Duration
		logMsg  string
		level   zapcore.Level
		check   func(t *testing.T, body []byte)
	}{
		{
			path:    "/slow",
			delay:   1500 * time.Microsecond,
			wantMax: 2 * time.Second,
			logMsg:  "slow_endpoint",
			level:   zapcore.WarnLevel,
			check: func(t *testing.T, body []byte) {
				var resp SlowResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatal(err)
				}
				if resp.Message != "Slow response" || resp.Delay != 1.5 {
					t.Errorf("response = %+v", resp)
				}
			},
		},
		{
			path:    "/db",
			delay:   time.Millisecond,
			wantMax: 200 * time.Millisecond,
			logMsg:  "db_query",
			level:   zapcore.InfoLevel,
			check: func(t *testing.T, body []byte) {
				want := `{"time":"2024-05-01T10:20:30.123Z","simulated":true}`
				if got := strings.TrimSpace(string(body)); got != want {
					t.Errorf("body = %s, want %s", got, want)
				}
			},
		},
		{
			path:    "/cache",
			delay:   0,
			wantMax: 50 * time.Millisecond,
			logMsg:  "cache_hit",
			level:   zapcore.DebugLevel,
			check: func(t *testing.T, body []byte) {
				want := `{"cached":"test-value","simulated":true}`
				if got := strings.TrimSpace(string(body)); got != want {
					t.Errorf("body = %s, want %s", got, want)
				}
			},
		},
	}

	// A non-UTC zone checks that /db reports UTC.
	zone := time.FixedZone("UTC+2", 2*60*60)
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 20, 30, 123_000_000, zone) }

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var gotMax time.Duration
			h, logs := newTestHandler(t, WithJitter(fixedJitter(tt.delay, &gotMax)), WithClock(clock))

			rec := serve(h, http.MethodGet, tt.path)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if gotMax != tt.wantMax {
				t.Errorf("delay bound = %v, want %v", gotMax, tt.wantMax)
			}
			tt.check(t, rec.Body.Bytes())

			entries := logs.FilterMessage(tt.logMsg).All()
			if len(entries) != 1 {
				t.Fatalf("%s entries = %d, want 1", tt.logMsg, len(entries))
			}
			if entries[0].Level != tt.level {
				t.Errorf("level = %v, want %v", entries[0].Level, tt.level)
			}
			wantDelay := float64(tt.delay) / float64(time.Millisecond)
			if got := entries[0].ContextMap()["delay"]; got != wantDelay {
				t.Errorf("delay field = %v, want %v", got, wantDelay)
			}
		})
	}
}

func TestHandler_Metrics(t *testing.T) {
	h, logs := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/metrics")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != metric.ContentType {
		t.Errorf("Content-Type = %q, want %q", ct, metric.ContentType)
	}
	if !strings.Contains(rec.Body.String(), "# TYPE http_requests_total counter") {
		t.Errorf("exposition missing http_requests_total:\n%s", rec.Body.String())
	}
	if logs.FilterMessage("metrics_scraped").Len() != 1 {
		t.Error("expected one metrics_scraped record")
	}
}

func TestHandler_Health(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("body = %s", got)
	}
}

func TestHandler_NotFoundAndMethod(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodGet, "/slow/extra", http.StatusNotFound},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/cache", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if rec := serve(h, tt.method, tt.path); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandler_WaitIgnoresCancelledContext(t *testing.T) {
	h, logs := newTestHandler(t, WithJitter(fixedJitter(30*time.Millisecond, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	start := time.Now()
	h.ServeHTTP(rec, req)

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("handler returned after %v, want the full delay", elapsed)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"delay":30`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if logs.FilterMessage("slow_endpoint").Len() != 1 {
		t.Error("slow_endpoint should be logged once")
	}
}

func TestUniform(t *testing.T) {
	if got := uniform(0); got != 0 {
		t.Errorf("uniform(0) = %v", got)
	}
	for i := 0; i < 1000; i++ {
		if d := uniform(50 * time.Millisecond); d < 0 || d >= 50*time.Millisecond {
			t.Fatalf("uniform(50ms) = %v out of range", d)
		}
	}
}
