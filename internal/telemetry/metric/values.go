package metric

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	UpperBound float64
	Count      uint64
}

// HistogramSnapshot is a point-in-time copy of one histogram series.
// The last bucket is always +Inf and equals Count.
type HistogramSnapshot struct {
	Buckets []Bucket
	Sum     float64
	Count   uint64
}

// CounterValue returns the current value of a counter series.
// A series that was never incremented reads as zero.
func (r *Registry) CounterValue(name string, labelValues ...string) (float64, error) {
	m, err := r.series(name, KindCounter, labelValues)
	if err != nil || m == nil {
		return 0, err
	}
	return m.GetCounter().GetValue(), nil
}

// GaugeValue returns the last value set on a gauge series.
// A series that was never set reads as zero.
func (r *Registry) GaugeValue(name string, labelValues ...string) (float64, error) {
	m, err := r.series(name, KindGauge, labelValues)
	if err != nil || m == nil {
		return 0, err
	}
	return m.GetGauge().GetValue(), nil
}

// HistogramValue returns a snapshot of a histogram series.
func (r *Registry) HistogramValue(name string, labelValues ...string) (HistogramSnapshot, error) {
	m, err := r.series(name, KindHistogram, labelValues)
	if err != nil {
		return HistogramSnapshot{}, err
	}

	var snap HistogramSnapshot
	if m == nil {
		def, _ := r.Definition(name)
		bounds := def.Buckets
		if len(bounds) == 0 {
			bounds = prometheus.DefBuckets
		}
		for _, ub := range bounds {
			snap.Buckets = append(snap.Buckets, Bucket{UpperBound: ub})
		}
		snap.Buckets = append(snap.Buckets, Bucket{UpperBound: math.Inf(1)})
		return snap, nil
	}

	h := m.GetHistogram()
	for _, b := range h.GetBucket() {
		if math.IsInf(b.GetUpperBound(), 1) {
			continue
		}
		snap.Buckets = append(snap.Buckets, Bucket{UpperBound: b.GetUpperBound(), Count: b.GetCumulativeCount()})
	}
	snap.Sum = h.GetSampleSum()
	snap.Count = h.GetSampleCount()
	snap.Buckets = append(snap.Buckets, Bucket{UpperBound: math.Inf(1), Count: snap.Count})
	return snap, nil
}

// series gathers the registry and returns the series matching the label
// values, or nil when the series does not exist yet. Reads never create
// series, so they do not change the exposition.
func (r *Registry) series(name string, kind Kind, labelValues []string) (*dto.Metric, error) {
	e, err := r.lookup(name, kind)
	if err != nil {
		return nil, err
	}
	if err := e.checkLabels(labelValues); err != nil {
		return nil, err
	}

	families, err := r.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m.GetLabel(), e.def.Labels, labelValues) {
				return m, nil
			}
		}
	}
	return nil, nil
}

// labelsMatch compares prometheus label pairs (sorted by name) with values
// given in declaration order.
func labelsMatch(pairs []*dto.LabelPair, names, values []string) bool {
	if len(pairs) != len(names) {
		return false
	}
	got := make(map[string]string, len(pairs))
	for _, p := range pairs {
		got[p.GetName()] = p.GetValue()
	}
	for i, n := range names {
		if v, ok := got[n]; !ok || v != values[i] {
			return false
		}
	}
	return true
}
