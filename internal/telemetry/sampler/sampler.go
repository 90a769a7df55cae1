// Package sampler periodically writes process and simulated gauges into the
// metric registry.
package sampler

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
	"github.com/yndnr/monitored-app/internal/telemetry/metric"
)

// DefaultInterval is the sampling period.
const DefaultInterval = 5 * time.Second

// Gauges is the part of the metric registry the sampler writes to.
type Gauges interface {
	SetGauge(name string, value float64, labelValues ...string) error
}

// Config holds sampler configuration.
type Config struct {
	Interval time.Duration
}

// Sampler sets the memory, DB connection and cache hit rate gauges on a
// fixed interval.
type Sampler struct {
	cfg    Config
	gauges Gauges
	log    logger.Logger

	now     func() time.Time
	readMem func() uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock replaces the wall clock used for the simulated gauges.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// WithMemReader replaces the heap usage reader.
func WithMemReader(read func() uint64) Option {
	return func(s *Sampler) {
		s.readMem = read
	}
}

// New creates a Sampler. It does not start sampling until Start is called.
func New(cfg Config, gauges Gauges, log logger.Logger, opts ...Option) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if log == nil {
		log = logger.Default()
	}

	s := &Sampler{
		cfg:     cfg,
		gauges:  gauges,
		log:     log,
		now:     time.Now,
		readMem: heapAlloc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start samples once immediately, then on every interval until ctx is
// cancelled or Stop is called. Only the first call starts a loop.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run(ctx)

	s.log.Debug("sampler_started", "interval", s.cfg.Interval.Seconds())
}

// Stop halts the sampling loop and waits for it to exit, or for ctx to
// expire.
func (s *Sampler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sampler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.Tick(s.now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(s.now())
		}
	}
}

// Tick performs one sampling pass at now. The first failing gauge write is
// logged and ends the pass.
func (s *Sampler) Tick(now time.Time) {
	values := []struct {
		name  string
		value float64
	}{
		{metric.MemoryUsageBytes, float64(s.readMem())},
		{metric.DBConnectionsActive, DBConnections(now)},
		{metric.CacheHitRate, CacheHitRate(now)},
	}

	for _, v := range values {
		if err := s.gauges.SetGauge(v.name, v.value); err != nil {
			s.log.Error("sampler_tick_failed", "metric", v.name, "error", err.Error())
			return
		}
	}
}

// DBConnections is the simulated number of active database connections.
func DBConnections(now time.Time) float64 {
	return 10 + 8*math.Sin(float64(now.UnixMilli())/10000)
}

// CacheHitRate is the simulated cache hit rate in percent.
func CacheHitRate(now time.Time) float64 {
	return 75 + 20*math.Sin(float64(now.UnixMilli())/5000)
}

func heapAlloc() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}
