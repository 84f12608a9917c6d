package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jherman/bibflow/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  bibflow config                                  # Show all config
  bibflow config ref-format                      # Get specific value
  bibflow config ref-format '{doc[author]}{doc[year]}'   # Set value

Keys:
  multiple-authors-separator  Joins formatted authors in the author field
  multiple-authors-format     Per-author template, e.g. '{au[family]}, {au[given]}'
  ref-format                  Citation key template
  library                     Path to the local document library
  editor                      Editor for interactive editing
  crossref-mailto             Contact address sent with crossref requests`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(ExitConfigError)
	}

	// No args: show all config.
	if len(args) == 0 {
		fmt.Printf("multiple-authors-separator: %s\n", cfg.AuthorSeparator)
		fmt.Printf("multiple-authors-format:    %s\n", cfg.AuthorFormat)
		fmt.Printf("ref-format:                 %s\n", cfg.RefFormat)
		fmt.Printf("library:                    %s\n", cfg.LibraryPath())
		fmt.Printf("editor:                     %s\n", cfg.Editor)
		fmt.Printf("crossref-mailto:            %s\n", cfg.CrossrefMailto)
		return nil
	}

	key := args[0]

	// One arg: get specific value.
	if len(args) == 1 {
		value, ok := configValue(cfg, key)
		if !ok {
			fmt.Fprintf(os.Stderr, "error: unknown configuration key: %s\n", key)
			os.Exit(ExitError)
		}
		fmt.Println(value)
		return nil
	}

	// Two args: set value.
	if !setConfigValue(cfg, key, args[1]) {
		fmt.Fprintf(os.Stderr, "error: unknown configuration key: %s\n", key)
		os.Exit(ExitError)
	}

	path := config.Path()
	if err := cfg.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	fmt.Printf("set %s in %s\n", key, path)
	return nil
}

func configValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "multiple-authors-separator":
		return cfg.AuthorSeparator, true
	case "multiple-authors-format":
		return cfg.AuthorFormat, true
	case "ref-format":
		return cfg.RefFormat, true
	case "library":
		return cfg.LibraryPath(), true
	case "editor":
		return cfg.Editor, true
	case "crossref-mailto":
		return cfg.CrossrefMailto, true
	}
	return "", false
}

func setConfigValue(cfg *config.Config, key, value string) bool {
	switch key {
	case "multiple-authors-separator":
		cfg.AuthorSeparator = value
	case "multiple-authors-format":
		cfg.AuthorFormat = value
	case "ref-format":
		cfg.RefFormat = value
	case "library":
		cfg.Library = config.ExpandPath(value)
	case "editor":
		cfg.Editor = value
	case "crossref-mailto":
		cfg.CrossrefMailto = value
	default:
		return false
	}
	return true
}
