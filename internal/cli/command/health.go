package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/monitored-app/internal/cli/connection"
)

// HealthCommand checks the liveness endpoint.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health",
		Action: health,
	}
}

type healthResult struct {
	Server string `json:"server" yaml:"server"`
	Status string `json:"status" yaml:"status"`
}

func health(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	client, err := flags.client()
	if err != nil {
		return err
	}

	resp, err := client.Get(c.Context, "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	var result healthResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	result.Server = client.BaseURL()

	if result.Status != "ok" {
		return fmt.Errorf("server unhealthy: %s", result.Status)
	}
	return flags.render(c, []healthResult{result})
}
