// Package main provides the bibflow CLI entry point.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// verbose raises the log level to debug
var verbose bool

func main() {
	cobra.OnInitialize(setupLogging)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibflow",
	Short: "Accumulate, normalize, and export bibliographic records",
	Long: `bibflow collects bibliographic records from web metadata services,
local bibliography files, and your own document library, normalizes them
into one canonical schema, and lets you chain sources, filters, and
exporters into a single command:

  bibflow explore crossref -a 'Schroedinger' pick export -f bibtex -o lib.bib`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}

// setupLogging configures the process-wide logger on stderr.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
