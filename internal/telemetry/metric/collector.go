package metric

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// runtimeCollectors returns the Go runtime and process collectors.
func runtimeCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
}

// RegisterCounterFunc registers a read-only counter whose value is read from
// fn at scrape time. fn must be safe for concurrent use and non-decreasing.
//
// The metric shows up in the exposition like any other counter, but
// IncrementCounter on it fails with ErrKindMismatch.
func (r *Registry) RegisterCounterFunc(name, help string, fn func() float64) error {
	def := Definition{Name: name, Help: help, Kind: KindCounter}
	if err := def.validate(); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: %s: nil value function", ErrInvalidDefinition, name)
	}

	c := prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, fn)
	return r.add(&entry{def: def}, c)
}

// RegisterGaugeFunc registers a read-only gauge whose value is read from fn
// at scrape time.
func (r *Registry) RegisterGaugeFunc(name, help string, fn func() float64) error {
	def := Definition{Name: name, Help: help, Kind: KindGauge}
	if err := def.validate(); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: %s: nil value function", ErrInvalidDefinition, name)
	}

	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	return r.add(&entry{def: def}, g)
}
