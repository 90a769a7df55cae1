// Command monitored-cli drives load at a running monitored-app and reads
// back its metrics.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/monitored-app/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
