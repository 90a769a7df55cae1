package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for monitored-app.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Log      LogSection      `koanf:"log"`
	Metrics  MetricsSection  `koanf:"metrics"`
	Sampler  SamplerSection  `koanf:"sampler"`
	Simulate SimulateSection `koanf:"simulate"`
	Trace    TraceSection    `koanf:"trace"`
}

// ServerSection configures the HTTP endpoint.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// RateLimit is the per-client-IP limit in requests/second (0 = off).
	RateLimit int `koanf:"rate_limit"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// Port returns the numeric port of Addr, or 0 if it has none.
func (c HTTPConfig) Port() int {
	_, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(port)
	return p
}

// LogSection configures logging.
type LogSection struct {
	// Path is the log file; its parent directory is created at startup.
	Path      string `koanf:"path"`
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	QueueSize int    `koanf:"queue_size"`
	// Console mirrors records to stdout.
	Console bool `koanf:"console"`
}

// MetricsSection configures the /metrics exposition.
type MetricsSection struct {
	// RuntimeCollectors adds the go_* and process_* families.
	RuntimeCollectors bool `koanf:"runtime_collectors"`
}

// SamplerSection configures the gauge sampler.
type SamplerSection struct {
	Interval time.Duration `koanf:"interval"`
}

// SimulateSection bounds the simulated route delays.
type SimulateSection struct {
	SlowMax  time.Duration `koanf:"slow_max"`
	DBMax    time.Duration `koanf:"db_max"`
	CacheMax time.Duration `koanf:"cache_max"`
}

// TraceSection configures request tracing.
type TraceSection struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}
