package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/monitored-app/internal/cli/connection"
	"github.com/yndnr/monitored-app/internal/cli/output"
)

// DefaultRoutes are requested by loadgen when no --route is given.
var DefaultRoutes = []string{"/", "/db", "/cache"}

// LoadgenCommand sends a fixed number of requests at the server.
func LoadgenCommand() *cli.Command {
	return &cli.Command{
		Name:  "loadgen",
		Usage: "Send requests to the server and summarize the responses",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "requests",
				Aliases: []string{"n"},
				Usage:   "Total number of requests",
				Value:   100,
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"c"},
				Usage:   "Number of concurrent workers",
				Value:   10,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Maximum requests per second, 0 for unlimited",
			},
			&cli.StringSliceFlag{
				Name:    "route",
				Aliases: []string{"r"},
				Usage:   "Route to request, repeatable; requests are spread round-robin",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar on stderr",
			},
		},
		Action: loadgen,
	}
}

// LoadConfig configures one load run.
type LoadConfig struct {
	Requests    int
	Concurrency int
	Rate        float64
	Routes      []string
	// OnDone is called after every request, from worker goroutines.
	OnDone func()
}

// RouteSummary aggregates the responses of one route.
type RouteSummary struct {
	Route     string  `json:"route" yaml:"route"`
	Requests  int     `json:"requests" yaml:"requests"`
	Status2xx int     `json:"status_2xx" yaml:"status_2xx"`
	Status4xx int     `json:"status_4xx" yaml:"status_4xx"`
	Status5xx int     `json:"status_5xx" yaml:"status_5xx"`
	Errors    int     `json:"errors" yaml:"errors"`
	AvgMs     float64 `json:"avg_ms" yaml:"avg_ms"`
	MaxMs     float64 `json:"max_ms" yaml:"max_ms"`

	totalMs float64
}

func (s *RouteSummary) add(status int, elapsed time.Duration, err error) {
	s.Requests++
	ms := float64(elapsed.Microseconds()) / 1000
	s.totalMs += ms
	s.AvgMs = s.totalMs / float64(s.Requests)
	if ms > s.MaxMs {
		s.MaxMs = ms
	}

	switch {
	case err != nil:
		s.Errors++
	case status >= 500:
		s.Status5xx++
	case status >= 400:
		s.Status4xx++
	case status >= 200 && status < 300:
		s.Status2xx++
	}
}

func (cfg *LoadConfig) validate() error {
	if cfg.Requests < 1 {
		return errors.New("requests must be at least 1")
	}
	if cfg.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if cfg.Rate < 0 {
		return errors.New("rate must not be negative")
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultRoutes
	}
	return nil
}

// RunLoad sends cfg.Requests requests spread over cfg.Routes and returns one
// summary per route, sorted by route. Transport failures are counted, not
// returned; only ctx cancellation aborts the run.
func RunLoad(ctx context.Context, client *connection.HTTPClient, cfg LoadConfig) ([]RouteSummary, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	jobs := make(chan string)
	var (
		mu      sync.Mutex
		byRoute = make(map[string]*RouteSummary, len(cfg.Routes))
		wg      sync.WaitGroup
	)
	for _, r := range cfg.Routes {
		byRoute[r] = &RouteSummary{Route: r}
	}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for route := range jobs {
				start := time.Now()
				status, err := hit(ctx, client, route)
				elapsed := time.Since(start)

				mu.Lock()
				byRoute[route].add(status, elapsed, err)
				mu.Unlock()

				if cfg.OnDone != nil {
					cfg.OnDone()
				}
			}
		}()
	}

	var runErr error
send:
	for i := 0; i < cfg.Requests; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				runErr = err
				break
			}
		}
		select {
		case jobs <- cfg.Routes[i%len(cfg.Routes)]:
		case <-ctx.Done():
			runErr = ctx.Err()
			break send
		}
	}
	close(jobs)
	wg.Wait()

	summaries := make([]RouteSummary, 0, len(byRoute))
	for _, s := range byRoute {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Route < summaries[j].Route })

	return summaries, runErr
}

func hit(ctx context.Context, client *connection.HTTPClient, route string) (int, error) {
	resp, err := client.Get(ctx, route)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}

func loadgen(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	cfg := LoadConfig{
		Requests:    c.Int("requests"),
		Concurrency: c.Int("concurrency"),
		Rate:        c.Float64("rate"),
		Routes:      c.StringSlice("route"),
	}

	var bar *output.ProgressBar
	if c.Bool("progress") {
		bar = output.NewProgressBar(c.App.ErrWriter, "loadgen", int64(cfg.Requests))
		cfg.OnDone = func() { bar.Increment(1) }
	}

	client, err := flags.client()
	if err != nil {
		return err
	}

	summaries, err := RunLoad(c.Context, client, cfg)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		if summaries == nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "loadgen stopped early: %v\n", err)
	}

	if flags.Output != output.FormatTable {
		return flags.render(c, summaries)
	}
	return flags.render(c, summaryTable(summaries))
}

func summaryTable(summaries []RouteSummary) *output.Table {
	t := &output.Table{}
	t.SetHeaders("ROUTE", "REQUESTS", "2XX", "4XX", "5XX", "ERRORS", "AVG_MS", "MAX_MS")
	for _, s := range summaries {
		t.AddRow(s.Route,
			fmt.Sprint(s.Requests),
			fmt.Sprint(s.Status2xx),
			fmt.Sprint(s.Status4xx),
			fmt.Sprint(s.Status5xx),
			fmt.Sprint(s.Errors),
			fmt.Sprintf("%.1f", s.AvgMs),
			fmt.Sprintf("%.1f", s.MaxMs),
		)
	}
	return t
}
