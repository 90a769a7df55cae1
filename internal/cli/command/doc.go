// Package command defines the monitored-cli commands.
//
// loadgen drives traffic at a running server and summarizes responses per
// route. scrape reads /metrics and prints the parsed samples. health checks
// the liveness endpoint.
package command
