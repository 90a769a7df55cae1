package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/monitored-app/internal/infra/confloader"
	"github.com/yndnr/monitored-app/internal/server/config"
	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

// waitForRecord polls the log file until a record with msg shows up.
func waitForRecord(t *testing.T, path, msg string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(path)
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			var rec map[string]any
			if json.Unmarshal(sc.Bytes(), &rec) == nil && rec["msg"] == msg {
				return rec
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no %q record in %s", msg, path)
	return nil
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n  path: /tmp/x.log\n"), 0o644))

	cfg, err := loadConfig([]confloader.Option{
		confloader.WithConfigFile(path),
		confloader.WithOverrides(map[string]any{"log.level": "error"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/tmp/x.log", cfg.Log.Path)
	assert.Equal(t, config.Default().Server.HTTP.Addr, cfg.Server.HTTP.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig([]confloader.Option{
		confloader.WithOverrides(map[string]any{"log.format": "xml"}),
	})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRun(t *testing.T) {
	t.Cleanup(func() { logger.SetDefault(logger.NewNop()) })

	logPath := filepath.Join(t.TempDir(), "logs", "app.log")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- newApp().RunContext(ctx, []string{
			"monitored-app",
			"--addr", "127.0.0.1:0",
			"--log-path", logPath,
			"--log-level", "info",
		})
	}()

	started := waitForRecord(t, logPath, "app_started")
	port, ok := started["port"].(float64)
	require.True(t, ok, "port field missing: %v", started)
	assert.Equal(t, "INFO", started["level"])

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", int(port)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rec := waitForRecord(t, logPath, "http_request")
	assert.Equal(t, "/health", rec["route"])

	resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", int(port)))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/health",status_code="200"} 1`)
	assert.NotContains(t, string(body), "go_goroutines")
	assert.NotContains(t, string(body), "process_")

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	waitForRecord(t, logPath, "app_stopped")
}

func TestRun_InvalidFlag(t *testing.T) {
	err := newApp().Run([]string{"monitored-app", "--log-level", "loud", "--log-path", filepath.Join(t.TempDir(), "a.log")})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRun_AddrInUse(t *testing.T) {
	t.Cleanup(func() { logger.SetDefault(logger.NewNop()) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = newApp().Run([]string{
		"monitored-app",
		"--addr", ln.Addr().String(),
		"--log-path", filepath.Join(t.TempDir(), "a.log"),
	})
	assert.ErrorContains(t, err, "listen on")
}
