package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "syslog",
		Short:        "System logs service: ingestion, dashboard aggregations and log queries",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path (default configs/{APP_ENV}/syslog.yaml)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newCleanupCommand())
	root.AddCommand(newResolveStaleCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
