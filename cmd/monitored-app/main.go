// Command monitored-app serves the simulated routes together with their
// Prometheus metrics.
//
// Configuration comes from defaults, an optional YAML file, MONITORED_*
// environment variables and finally command line flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/monitored-app/internal/infra/buildinfo"
	"github.com/yndnr/monitored-app/internal/infra/confloader"
	"github.com/yndnr/monitored-app/internal/infra/shutdown"
	"github.com/yndnr/monitored-app/internal/server/config"
	"github.com/yndnr/monitored-app/internal/server/httpserver"
	"github.com/yndnr/monitored-app/internal/server/httpserver/handler"
	"github.com/yndnr/monitored-app/internal/telemetry/logger"
	"github.com/yndnr/monitored-app/internal/telemetry/metric"
	"github.com/yndnr/monitored-app/internal/telemetry/sampler"
	"github.com/yndnr/monitored-app/internal/telemetry/tracer"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "monitored-app",
		Usage:   "HTTP service with simulated latency and Prometheus metrics",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"MONITORED_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "log-path",
				Usage: "Log file path (overrides log.path)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides log.level)",
			},
		},
		Action: run,
	}
}

// flagOverrides maps flags that were set on the command line to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"addr":      "server.http.addr",
		"log-path":  "log.path",
		"log-level": "log.level",
	}

	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

// loadConfig loads and verifies the configuration.
func loadConfig(opts []confloader.Option) (*config.ServerConfig, error) {
	cfg := config.Default()

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	ctx := c.Context
	configFile := c.String("config")

	loaderOpts := []confloader.Option{confloader.WithOverrides(flagOverrides(c))}
	if configFile != "" {
		loaderOpts = append(loaderOpts, confloader.WithConfigFile(configFile))
	}

	cfg, err := loadConfig(loaderOpts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logWriter, err := logger.OpenFile(cfg.Log.Path, cfg.Log.QueueSize)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  logWriter,
		Console: cfg.Log.Console,
	})
	if err != nil {
		_ = logWriter.Close()
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	sh := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)
	sh.OnShutdown("log_writer", func(context.Context) error {
		log.Info("app_stopped")
		_ = log.Sync()
		return logWriter.Close()
	})

	if err := serve(ctx, cfg, configFile, loaderOpts, log, logWriter, sh); err != nil {
		// Release whatever was started before the failure.
		_ = sh.Run()
		return err
	}
	return nil
}

func serve(
	ctx context.Context,
	cfg *config.ServerConfig,
	configFile string,
	loaderOpts []confloader.Option,
	log logger.Logger,
	logWriter *logger.AsyncWriter,
	sh *shutdown.Handler,
) error {
	var regOpts []metric.Option
	if cfg.Metrics.RuntimeCollectors {
		regOpts = append(regOpts, metric.WithRuntimeCollectors())
	}
	reg := metric.NewRegistry(regOpts...)
	if err := metric.RegisterApp(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if err := metric.RegisterLogDrops(reg, logWriter.Dropped); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	if configFile != "" {
		w, err := watchConfig(configFile, loaderOpts, log)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		sh.OnShutdown("config_watcher", func(context.Context) error { return w.Stop() })
	}

	tp, err := tracer.New(tracer.Config{
		Enabled:        cfg.Trace.Enabled,
		ServiceName:    cfg.Trace.ServiceName,
		ServiceVersion: buildinfo.Version,
	}, tracer.WithLogger(log))
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	sh.OnShutdown("tracer", tp.Shutdown)

	smp := sampler.New(sampler.Config{Interval: cfg.Sampler.Interval}, reg, log)
	smp.Start(ctx)
	sh.OnShutdown("sampler", smp.Stop)

	routerCfg := &httpserver.RouterConfig{
		Metrics: reg,
		Logger:  log,
		Delays: handler.Delays{
			Slow:  cfg.Simulate.SlowMax,
			DB:    cfg.Simulate.DBMax,
			Cache: cfg.Simulate.CacheMax,
		},
		RateLimit: cfg.Server.RateLimit,
	}
	if tp.Enabled() {
		routerCfg.Tracer = tp.Tracer()
	}

	srv := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(routerCfg),
		httpserver.WithReadHeaderTimeout(cfg.Server.HTTP.ReadHeaderTimeout))

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.HTTP.Addr, err)
	}
	sh.OnShutdown("http_server", srv.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_failed", "error", err)
			serveErr <- err
			sh.Trigger()
		}
	}()

	log.Info("app_started",
		"port", ln.Addr().(*net.TCPAddr).Port,
		"addr", ln.Addr().String(),
		"version", buildinfo.Version)

	shutdownErr := sh.Wait(ctx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	default:
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings need a restart.
func watchConfig(path string, loaderOpts []confloader.Option, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(loaderOpts)
		if err != nil {
			log.Warn("config_reload_failed", "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config_reload_failed", "error", err)
			return
		}
		log.Info("config_reloaded", "log_level", logger.GetLevel())
	})
	w.StartAsync()

	return w, nil
}
