package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jherman/bibflow/internal/config"
	"github.com/jherman/bibflow/internal/pipeline"
	"github.com/jherman/bibflow/internal/stages"
)

func init() {
	rootCmd.AddCommand(exploreCmd)
}

var exploreCmd = &cobra.Command{
	Use:   "explore <stage> [options] [<stage> [options] ...]",
	Short: "Chain sources, filters, and exporters into one pipeline",
	Long: `Explore chains stages into a single pipeline sharing one growing set of
documents. Producer stages (crossref, arxiv, isbn, libgen, url, pdf,
bibtex, yaml, json, lib, citations) add records; transformer stages
(pick, filter, head) narrow them; consumer stages (export, save, cmd)
act on the result without changing it.

Examples:
  bibflow explore crossref -a 'Schroedinger' pick export -f bibtex -o lib.bib
  bibflow explore crossref -a Einstein arxiv -a 'Felix Hummel' export -f yaml -o docs.yaml
  bibflow explore yaml docs.yaml pick cmd 'firefox {doc[url]}'
  bibflow explore lib heisenberg citations -m 20 save`,
	// Stage options are parsed by the chain parser, not by cobra.
	DisableFlagParsing: true,
	RunE:               runExplore,
}

func runExplore(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h") {
		return cmd.Help()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitConfigError)
	}

	registry := stages.NewRegistry(stages.Deps{Config: cfg, Log: slog.Default()})

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: no stages given")
		fmt.Fprintf(os.Stderr, "known stages: %v\n", registry.Names())
		os.Exit(ExitConfigError)
	}

	invs, err := pipeline.ParseChain(registry, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitConfigError)
	}

	engine := pipeline.NewEngine(slog.Default())
	if _, err := engine.Run(cmd.Context(), invs); err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			fmt.Fprintf(os.Stderr, "error: pipeline aborted at %v\n", stageErr)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(ExitError)
	}

	return nil
}
