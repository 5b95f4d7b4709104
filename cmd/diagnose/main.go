// Command threatfeed-diagnose checks the configured feed sources from the
// command line without starting the server.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"threatfeed/internal/observability/logging"
)

func main() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	slog.SetDefault(logging.NewTextLogger(level))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "threatfeed-diagnose",
		Short:        "Diagnose threat feed sources",
		Long:         "Fetches and parses the configured security feeds and reports which ones work.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "YAML feeds file (defaults to FEEDS_CONFIG or the built-in list)")

	root.AddCommand(
		feedsCmd(),
		sourcesCmd(),
	)
	return root
}
