package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Sampler.Interval <= 0 {
		return invalid("sampler.interval must be positive, got %v", cfg.Sampler.Interval)
	}
	if err := verifySimulate(&cfg.Simulate); err != nil {
		return err
	}
	if cfg.Trace.Enabled && cfg.Trace.ServiceName == "" {
		return invalid("trace.service_name is required when tracing is enabled")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return invalid("server.http.addr %q: %v", cfg.HTTP.Addr, err)
	}
	if cfg.HTTP.ReadHeaderTimeout <= 0 {
		return invalid("server.http.read_header_timeout must be positive")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return invalid("server.http.shutdown_timeout must be positive")
	}
	if cfg.RateLimit < 0 {
		return invalid("server.rate_limit must not be negative, got %d", cfg.RateLimit)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if cfg.Path == "" {
		return invalid("log.path is required")
	}
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	switch cfg.Format {
	case "json", "console":
	default:
		return invalid("log.format must be json or console, got %q", cfg.Format)
	}
	if cfg.QueueSize < 1 {
		return invalid("log.queue_size must be at least 1, got %d", cfg.QueueSize)
	}
	return nil
}

func verifySimulate(cfg *SimulateSection) error {
	switch {
	case cfg.SlowMax < 0:
		return invalid("simulate.slow_max must not be negative")
	case cfg.DBMax < 0:
		return invalid("simulate.db_max must not be negative")
	case cfg.CacheMax < 0:
		return invalid("simulate.cache_max must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
