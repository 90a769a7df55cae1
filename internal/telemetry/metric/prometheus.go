package metric

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds named metric instruments and their accumulated state.
//
// Instruments are prometheus vectors; client_golang guards each child with
// atomics, and the name table is guarded by mu.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	reg     *prometheus.Registry
	// runtime marks a registry that also exposes process and scrape metrics.
	runtime bool
}

// entry is a registered metric. Exactly one of the instrument fields is set,
// except for function-backed metrics where all are nil.
type entry struct {
	def       Definition
	counter   *prometheus.CounterVec
	gauge     *prometheus.GaugeVec
	histogram *prometheus.HistogramVec
}

// Option configures a Registry.
type Option func(*Registry)

// WithRuntimeCollectors adds the Go runtime and process collectors
// (go_* and process_* families) to the exposition, and makes Handler count
// its own scrapes. These families change on every render.
func WithRuntimeCollectors() Option {
	return func(r *Registry) {
		r.reg.MustRegister(runtimeCollectors()...)
		r.runtime = true
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		reg:     prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a metric definition.
// It fails with ErrDuplicateMetric if the name is taken.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}
	def = def.clone()

	e := &entry{def: def}
	var c prometheus.Collector
	switch def.Kind {
	case KindCounter:
		e.counter = prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.Name, Help: def.Help}, def.Labels)
		c = e.counter
	case KindGauge:
		e.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: def.Name, Help: def.Help}, def.Labels)
		c = e.gauge
	case KindHistogram:
		e.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    def.Name,
			Help:    def.Help,
			Buckets: def.Buckets,
		}, def.Labels)
		c = e.histogram
	}

	if err := r.add(e, c); err != nil {
		return err
	}

	// Unlabeled metrics expose their zero value before the first update.
	if len(def.Labels) == 0 {
		switch def.Kind {
		case KindCounter:
			e.counter.WithLabelValues()
		case KindGauge:
			e.gauge.WithLabelValues()
		case KindHistogram:
			e.histogram.WithLabelValues()
		}
	}

	return nil
}

// MustRegister registers definitions and panics on the first error.
// It is meant for fixed definitions at process start.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// add stores the entry and registers its collector under one lock, so a
// failed prometheus registration leaves no trace in the name table.
func (r *Registry) add(e *entry, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMetric, e.def.Name)
	}

	if err := r.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return fmt.Errorf("%w: %s", ErrDuplicateMetric, e.def.Name)
		}
		return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, e.def.Name, err)
	}

	r.entries[e.def.Name] = e
	return nil
}

// IncrementCounter adds delta to the counter identified by name and label values.
// delta must be >= 0.
func (r *Registry) IncrementCounter(name string, labelValues []string, delta float64) error {
	if delta < 0 || math.IsNaN(delta) {
		return fmt.Errorf("%w: %s: counter delta %v", ErrInvalidValue, name, delta)
	}

	e, err := r.lookup(name, KindCounter)
	if err != nil {
		return err
	}
	if e.counter == nil {
		return fmt.Errorf("%w: %s is read-only", ErrKindMismatch, name)
	}
	if err := e.checkLabels(labelValues); err != nil {
		return err
	}

	c, err := e.counter.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLabelMismatch, name, err)
	}
	c.Add(delta)
	return nil
}

// Inc increments a counter by one.
func (r *Registry) Inc(name string, labelValues ...string) error {
	return r.IncrementCounter(name, labelValues, 1)
}

// SetGauge overwrites the gauge identified by name and label values.
func (r *Registry) SetGauge(name string, value float64, labelValues ...string) error {
	e, err := r.lookup(name, KindGauge)
	if err != nil {
		return err
	}
	if e.gauge == nil {
		return fmt.Errorf("%w: %s is read-only", ErrKindMismatch, name)
	}
	if err := e.checkLabels(labelValues); err != nil {
		return err
	}

	g, err := e.gauge.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLabelMismatch, name, err)
	}
	g.Set(value)
	return nil
}

// ObserveHistogram records value into the histogram identified by name and
// label values: every bucket with an upper bound >= value, the count and the
// sum all advance.
func (r *Registry) ObserveHistogram(name string, labelValues []string, value float64) error {
	if math.IsNaN(value) {
		return fmt.Errorf("%w: %s: NaN observation", ErrInvalidValue, name)
	}

	e, err := r.lookup(name, KindHistogram)
	if err != nil {
		return err
	}
	if err := e.checkLabels(labelValues); err != nil {
		return err
	}

	h, err := e.histogram.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLabelMismatch, name, err)
	}
	h.Observe(value)
	return nil
}

// Definition returns a copy of the registered definition for name.
func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Definition{}, false
	}
	return e.def.clone(), true
}

// Names returns the registered metric names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

func (r *Registry) lookup(name string, kind Kind) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	if e.def.Kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrKindMismatch, name, e.def.Kind, kind)
	}
	return e, nil
}

func (e *entry) checkLabels(values []string) error {
	if len(values) != len(e.def.Labels) {
		return fmt.Errorf("%w: %s expects %d label values %v, got %d",
			ErrLabelMismatch, e.def.Name, len(e.def.Labels), e.def.Labels, len(values))
	}
	for i, v := range values {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: %s: label %s value %q is not valid UTF-8",
				ErrInvalidValue, e.def.Name, e.def.Labels[i], v)
		}
	}
	return nil
}
