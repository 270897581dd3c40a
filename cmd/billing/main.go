/*
main.go - Application entry point

PURPOSE:
  Starts the billing engine, either as an HTTP server (serve) or as a
  one-shot file processor (process).

COMMANDS:
  billing serve                      Run the HTTP API
  billing process <allocations>      Compute a report from a file

ENVIRONMENT (serve):
  HTTP_ADDR    Listen address (default :8080)
  LOG_LEVEL    zap level (default info)
  ENV          dev|prod, switches log encoding (default dev)
  PROFILE_DIR  Directory of TOML format profiles (default ./profiles)
  A .env file in the working directory is loaded when present.

SEE ALSO:
  - serve.go: HTTP server command
  - process.go: Offline processing command
*/
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Billing and utilization engine",
	Long:  "Compute billing amounts, utilization, and monthly schedules from allocation tables.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
