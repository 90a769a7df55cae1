package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Server.HTTP.Port() != 3000 {
		t.Errorf("HTTP.Port() = %d, want 3000", cfg.Server.HTTP.Port())
	}
	if cfg.Server.RateLimit != 0 {
		t.Error("rate limiting should be disabled by default")
	}
	if cfg.Log.Path != "/logs/app.log" {
		t.Errorf("Log.Path = %q", cfg.Log.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Sampler.Interval != 5*time.Second {
		t.Errorf("Sampler.Interval = %v, want 5s", cfg.Sampler.Interval)
	}
	if cfg.Simulate.SlowMax != 2*time.Second || cfg.Simulate.DBMax != 200*time.Millisecond || cfg.Simulate.CacheMax != 50*time.Millisecond {
		t.Errorf("Simulate = %+v", cfg.Simulate)
	}
	if cfg.Trace.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if cfg.Metrics.RuntimeCollectors {
		t.Error("runtime collectors should be disabled by default")
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"missing port", func(c *ServerConfig) { c.Server.HTTP.Addr = "0.0.0.0" }},
		{"zero read header timeout", func(c *ServerConfig) { c.Server.HTTP.ReadHeaderTimeout = 0 }},
		{"zero shutdown timeout", func(c *ServerConfig) { c.Server.HTTP.ShutdownTimeout = 0 }},
		{"negative rate limit", func(c *ServerConfig) { c.Server.RateLimit = -1 }},
		{"empty log path", func(c *ServerConfig) { c.Log.Path = "" }},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }},
		{"zero queue", func(c *ServerConfig) { c.Log.QueueSize = 0 }},
		{"zero sample interval", func(c *ServerConfig) { c.Sampler.Interval = 0 }},
		{"negative slow max", func(c *ServerConfig) { c.Simulate.SlowMax = -time.Second }},
		{"negative db max", func(c *ServerConfig) { c.Simulate.DBMax = -time.Second }},
		{"negative cache max", func(c *ServerConfig) { c.Simulate.CacheMax = -time.Second }},
		{"tracing without service", func(c *ServerConfig) {
			c.Trace.Enabled = true
			c.Trace.ServiceName = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Verify(cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Verify() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestVerify_ZeroDelaysAllowed(t *testing.T) {
	cfg := Default()
	cfg.Simulate = SimulateSection{}
	cfg.Server.RateLimit = 50

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestHTTPConfig_Port(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{"0.0.0.0:3000", 3000},
		{":8080", 8080},
		{"[::1]:9090", 9090},
		{"localhost", 0},
		{"host:http", 0},
	}

	for _, tt := range tests {
		if got := (HTTPConfig{Addr: tt.addr}).Port(); got != tt.want {
			t.Errorf("Port(%q) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}
