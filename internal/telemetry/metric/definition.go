package metric

import (
	"fmt"
	"math"
	"slices"
)

// Kind is the type of a metric instrument.
type Kind int

const (
	KindCounter Kind = iota + 1
	KindGauge
	KindHistogram
)

// String returns the exposition type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Definition describes a metric. It is copied on registration and never
// changes afterwards.
type Definition struct {
	// Name is the unique metric name, e.g. http_requests_total.
	Name string

	// Help is the human-readable description written to # HELP.
	Help string

	// Kind selects counter, gauge or histogram semantics.
	Kind Kind

	// Labels are the ordered label names. Observations must supply
	// exactly one value per name, in this order.
	Labels []string

	// Buckets are the ascending upper bounds of a histogram. The +Inf
	// bucket is implicit. Empty means the client library defaults.
	Buckets []float64
}

// clone returns a deep copy so callers cannot mutate registered state.
func (d Definition) clone() Definition {
	d.Labels = slices.Clone(d.Labels)
	d.Buckets = slices.Clone(d.Buckets)
	return d
}

// validate rejects definitions the client library would panic on.
func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}

	switch d.Kind {
	case KindCounter, KindGauge:
		if len(d.Buckets) > 0 {
			return fmt.Errorf("%w: %s: buckets are only valid for histograms", ErrInvalidDefinition, d.Name)
		}
	case KindHistogram:
		for i, b := range d.Buckets {
			if math.IsNaN(b) {
				return fmt.Errorf("%w: %s: NaN bucket", ErrInvalidDefinition, d.Name)
			}
			if i > 0 && b <= d.Buckets[i-1] {
				return fmt.Errorf("%w: %s: buckets must be strictly ascending", ErrInvalidDefinition, d.Name)
			}
		}
		if slices.Contains(d.Labels, "le") {
			return fmt.Errorf("%w: %s: label \"le\" is reserved for histograms", ErrInvalidDefinition, d.Name)
		}
	default:
		return fmt.Errorf("%w: %s: unknown kind %d", ErrInvalidDefinition, d.Name, d.Kind)
	}

	seen := make(map[string]struct{}, len(d.Labels))
	for _, l := range d.Labels {
		if _, dup := seen[l]; dup {
			return fmt.Errorf("%w: %s: duplicate label %q", ErrInvalidDefinition, d.Name, l)
		}
		seen[l] = struct{}{}
	}

	return nil
}
