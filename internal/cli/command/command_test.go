package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/monitored-app/internal/cli/connection"
	"github.com/yndnr/monitored-app/internal/server/httpserver"
	"github.com/yndnr/monitored-app/internal/server/httpserver/handler"
	"github.com/yndnr/monitored-app/internal/telemetry/logger"
	"github.com/yndnr/monitored-app/internal/telemetry/metric"
)

// newAppServer starts the real router with the delays switched off.
func newAppServer(t *testing.T) (*httptest.Server, *metric.Registry) {
	t.Helper()

	reg := metric.NewRegistry()
	require.NoError(t, metric.RegisterApp(reg))

	cfg := httpserver.DefaultRouterConfig()
	cfg.Metrics = reg
	cfg.Logger = logger.NewNop()
	cfg.Delays = handler.Delays{}

	srv := httptest.NewServer(httpserver.NewRouter(cfg))
	t.Cleanup(srv.Close)
	return srv, reg
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(append([]string{"monitored-cli"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestApp(t *testing.T) {
	app := App()
	assert.Equal(t, "monitored-cli", app.Name)

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"loadgen", "scrape", "health"}, names)

	var flags []string
	for _, f := range app.Flags {
		flags = append(flags, f.Names()[0])
	}
	assert.ElementsMatch(t, []string{"server", "output", "ca-file", "timeout"}, flags)
}

func TestRunLoad(t *testing.T) {
	srv, reg := newAppServer(t)

	var done atomic.Int64
	summaries, err := RunLoad(context.Background(), connection.NewHTTPClient(srv.URL, time.Second), LoadConfig{
		Requests:    9,
		Concurrency: 3,
		Routes:      []string{"/cache", "/db", "/nope"},
		OnDone:      func() { done.Add(1) },
	})
	require.NoError(t, err)
	assert.EqualValues(t, 9, done.Load())

	require.Len(t, summaries, 3)
	assert.Equal(t, "/cache", summaries[0].Route)
	assert.Equal(t, 3, summaries[0].Requests)
	assert.Equal(t, 3, summaries[0].Status2xx)
	assert.Equal(t, "/nope", summaries[2].Route)
	assert.Equal(t, 3, summaries[2].Status4xx)

	count, err := reg.CounterValue(metric.HTTPRequestsTotal, "GET", "/db", "200")
	require.NoError(t, err)
	assert.Equal(t, 3.0, count)
}

func TestRunLoad_RateLimited(t *testing.T) {
	srv, _ := newAppServer(t)

	start := time.Now()
	summaries, err := RunLoad(context.Background(), connection.NewHTTPClient(srv.URL, time.Second), LoadConfig{
		Requests:    5,
		Concurrency: 5,
		Rate:        50,
		Routes:      []string{"/health"},
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 5, summaries[0].Status2xx)
	// a burst of 1 at 50/s spaces five requests over at least 80ms
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestRunLoad_TransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	summaries, err := RunLoad(context.Background(), connection.NewHTTPClient(url, time.Second), LoadConfig{
		Requests:    2,
		Concurrency: 1,
		Routes:      []string{"/"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summaries[0].Errors)
}

func TestRunLoad_Cancelled(t *testing.T) {
	srv, _ := newAppServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summaries, err := RunLoad(ctx, connection.NewHTTPClient(srv.URL, time.Second), LoadConfig{
		Requests:    100,
		Concurrency: 1,
		Rate:        1,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, summaries, len(DefaultRoutes))
}

func TestRunLoad_InvalidConfig(t *testing.T) {
	client := connection.NewHTTPClient("localhost:1", time.Second)

	tests := []struct {
		name string
		cfg  LoadConfig
	}{
		{"no requests", LoadConfig{Concurrency: 1}},
		{"no workers", LoadConfig{Requests: 1}},
		{"negative rate", LoadConfig{Requests: 1, Concurrency: 1, Rate: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunLoad(context.Background(), client, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoadgenCommand_Table(t *testing.T) {
	srv, _ := newAppServer(t)

	stdout, stderr, err := runApp(t, "--server", srv.URL, "loadgen", "-n", "4", "-c", "2", "--route", "/", "--progress")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ROUTE", "REQUESTS", "2XX", "4XX", "5XX", "ERRORS", "AVG_MS", "MAX_MS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"/", "4", "4", "0", "0", "0"}, strings.Fields(lines[1])[:6])
	assert.Contains(t, stderr, "(4/4)")
}

func TestLoadgenCommand_JSON(t *testing.T) {
	srv, _ := newAppServer(t)

	stdout, _, err := runApp(t, "--server", srv.URL, "-o", "json", "loadgen", "-n", "2", "--route", "/health")
	require.NoError(t, err)

	var got []RouteSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "/health", got[0].Route)
	assert.Equal(t, 2, got[0].Status2xx)
}

func TestScrapeCommand(t *testing.T) {
	srv, reg := newAppServer(t)
	require.NoError(t, reg.SetGauge(metric.CacheHitRate, 80))
	require.NoError(t, reg.ObserveHistogram(metric.HTTPRequestDuration, []string{"GET", "/db", "200"}, 0.2))

	stdout, _, err := runApp(t, "--server", srv.URL, "-o", "yaml", "scrape", "-p", "cache_", "-p", "http_request_duration")
	require.NoError(t, err)

	var got []Sample
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, []Sample{
		{Name: "cache_hit_rate", Type: "gauge", Value: 80},
		{Name: "http_request_duration_seconds_count", Type: "histogram", Labels: `method="GET",route="/db",status_code="200"`, Value: 1},
		{Name: "http_request_duration_seconds_sum", Type: "histogram", Labels: `method="GET",route="/db",status_code="200"`, Value: 0.2},
	}, got)
}

func TestScrapeCommand_Table(t *testing.T) {
	srv, _ := newAppServer(t)

	stdout, _, err := runApp(t, "--server", srv.URL, "scrape", "--prefix", "db_connections")
	require.NoError(t, err)
	assert.Equal(t, []string{"NAME", "TYPE", "LABELS", "VALUE", "db_connections_active", "gauge", "-", "0"}, strings.Fields(stdout))
}

func TestHealthCommand(t *testing.T) {
	srv, _ := newAppServer(t)

	stdout, _, err := runApp(t, "--server", srv.URL, "-o", "json", "health")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"status": "ok"`)
	assert.Contains(t, stdout, srv.URL)
}

func TestHealthCommand_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, _, err := runApp(t, "--server", srv.URL, "--timeout", "1s", "health")
	assert.Error(t, err)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, _, err := runApp(t, "-o", "xml", "health")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestHealthCommand_MissingCAFile(t *testing.T) {
	_, _, err := runApp(t, "--ca-file", "/nonexistent/ca.pem", "health")
	assert.ErrorContains(t, err, "read cert file")
}
