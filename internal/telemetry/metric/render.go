package metric

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// ContentType identifies the Prometheus text exposition format, version 0.0.4.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

// Render writes the text exposition of every registered metric to w.
//
// Families are sorted by name and series by label values, so two renders
// without an intervening update produce identical output. Registered
// metrics that have no series yet still get their # HELP and # TYPE lines.
func (r *Registry) Render(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	present := make(map[string]struct{}, len(families))
	for _, mf := range families {
		present[mf.GetName()] = struct{}{}
	}

	r.mu.RLock()
	var empty []Definition
	for name, e := range r.entries {
		if _, ok := present[name]; !ok {
			empty = append(empty, e.def)
		}
	}
	r.mu.RUnlock()
	sort.Slice(empty, func(i, j int) bool { return empty[i].Name < empty[j].Name })

	i := 0
	for _, mf := range families {
		for ; i < len(empty) && empty[i].Name < mf.GetName(); i++ {
			if err := writeHeader(w, empty[i]); err != nil {
				return err
			}
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	for ; i < len(empty); i++ {
		if err := writeHeader(w, empty[i]); err != nil {
			return err
		}
	}

	return nil
}

// RenderString returns the exposition as a string.
func (r *Registry) RenderString() (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeHeader(w io.Writer, def Definition) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n",
		def.Name, helpEscaper.Replace(def.Help), def.Name, def.Kind)
	return err
}

// Handler returns an HTTP handler serving the exposition.
//
// With WithRuntimeCollectors, scrapes of the handler itself are counted in
// promhttp_metric_handler_requests_total.
func (r *Registry) Handler() http.Handler {
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var buf bytes.Buffer
		if err := r.Render(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	})

	if !r.runtime {
		return h
	}
	return promhttp.InstrumentMetricHandler(r.reg, h)
}
