package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr          = "0.0.0.0:3000"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 15 * time.Second

	DefaultLogPath      = "/logs/app.log"
	DefaultLogLevel     = "debug"
	DefaultLogFormat    = "json"
	DefaultLogQueueSize = 1024

	DefaultSampleInterval = 5 * time.Second

	DefaultSlowMax  = 2 * time.Second
	DefaultDBMax    = 200 * time.Millisecond
	DefaultCacheMax = 50 * time.Millisecond

	DefaultServiceName = "monitored-app"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:              DefaultHTTPAddr,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				ShutdownTimeout:   DefaultShutdownTimeout,
			},
		},
		Log: LogSection{
			Path:      DefaultLogPath,
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			QueueSize: DefaultLogQueueSize,
		},
		Sampler: SamplerSection{
			Interval: DefaultSampleInterval,
		},
		Simulate: SimulateSection{
			SlowMax:  DefaultSlowMax,
			DBMax:    DefaultDBMax,
			CacheMax: DefaultCacheMax,
		},
		Trace: TraceSection{
			ServiceName: DefaultServiceName,
		},
	}
}
