package command

import (
	"sort"
	"strconv"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/urfave/cli/v2"
)

// ScrapeCommand fetches and prints the server's metrics.
func ScrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Fetch /metrics and print the parsed samples",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "prefix",
				Aliases: []string{"p"},
				Usage:   "Only show families whose name starts with prefix, repeatable",
			},
		},
		Action: scrape,
	}
}

// Sample is one exposed value. Histograms and summaries contribute their
// _sum and _count samples; buckets are omitted.
type Sample struct {
	Name   string  `json:"name" yaml:"name" table:"name"`
	Type   string  `json:"type" yaml:"type" table:"type"`
	Labels string  `json:"labels,omitempty" yaml:"labels,omitempty" table:"labels"`
	Value  float64 `json:"value" yaml:"value" table:"value"`
}

// Samples flattens families into samples, keeping only names that match one
// of prefixes (all when prefixes is empty).
func Samples(families []*dto.MetricFamily, prefixes []string) []Sample {
	var out []Sample
	for _, mf := range families {
		if !matchPrefix(mf.GetName(), prefixes) {
			continue
		}
		typ := strings.ToLower(mf.GetType().String())

		var rows []Sample
		for _, m := range mf.GetMetric() {
			labels := formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				rows = append(rows, Sample{mf.GetName(), typ, labels, m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				rows = append(rows, Sample{mf.GetName(), typ, labels, m.GetGauge().GetValue()})
			case dto.MetricType_UNTYPED:
				rows = append(rows, Sample{mf.GetName(), typ, labels, m.GetUntyped().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				rows = append(rows,
					Sample{mf.GetName() + "_count", typ, labels, float64(h.GetSampleCount())},
					Sample{mf.GetName() + "_sum", typ, labels, h.GetSampleSum()},
				)
			case dto.MetricType_SUMMARY:
				s := m.GetSummary()
				rows = append(rows,
					Sample{mf.GetName() + "_count", typ, labels, float64(s.GetSampleCount())},
					Sample{mf.GetName() + "_sum", typ, labels, s.GetSampleSum()},
				)
			}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Labels != rows[j].Labels {
				return rows[i].Labels < rows[j].Labels
			}
			return rows[i].Name < rows[j].Name
		})
		out = append(out, rows...)
	}
	return out
}

func matchPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+strconv.Quote(p.GetValue()))
	}
	return strings.Join(parts, ",")
}

func scrape(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	client, err := flags.client()
	if err != nil {
		return err
	}

	families, err := client.Metrics(c.Context)
	if err != nil {
		return err
	}

	samples := Samples(families, c.StringSlice("prefix"))
	if samples == nil {
		samples = []Sample{}
	}
	return flags.render(c, samples)
}
