package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/monitored-app/internal/cli/connection"
	"github.com/yndnr/monitored-app/internal/cli/output"
	"github.com/yndnr/monitored-app/internal/infra/buildinfo"
	"github.com/yndnr/monitored-app/internal/infra/tlsroots"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "monitored-cli",
		Usage:   "Drive and inspect a running monitored-app",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoadgenCommand(),
			ScrapeCommand(),
			HealthCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "monitored-app address (e.g., localhost:3000)",
			EnvVars: []string{"MONITORED_SERVER"},
			Value:   "localhost:3000",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM file with extra CA certificates for https servers",
			EnvVars: []string{"MONITORED_CA_FILE"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
			Value: connection.DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Timeout time.Duration
	CAFile  string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return &GlobalFlags{
		Server:  c.String("server"),
		Output:  format,
		Timeout: c.Duration("timeout"),
		CAFile:  c.String("ca-file"),
	}, nil
}

// client builds the HTTP client for the selected server.
func (f *GlobalFlags) client() (*connection.HTTPClient, error) {
	var opts []connection.ClientOption
	if f.CAFile != "" {
		tlsCfg, err := tlsroots.ClientConfig(f.CAFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}
	return connection.NewHTTPClient(f.Server, f.Timeout, opts...), nil
}

// render writes data to the app writer in the selected format.
func (f *GlobalFlags) render(c *cli.Context, data any) error {
	if err := output.NewFormatter(f.Output).Format(c.App.Writer, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
