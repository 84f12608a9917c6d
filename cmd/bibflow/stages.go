package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jherman/bibflow/internal/config"
	"github.com/jherman/bibflow/internal/stages"
)

var stagesJSON bool

func init() {
	stagesCmd.Flags().BoolVar(&stagesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(stagesCmd)
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the registered pipeline stages",
	RunE:  runStages,
}

// StageInfo describes one registered stage in JSON output.
type StageInfo struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Summary string `json:"summary"`
}

func runStages(cmd *cobra.Command, args []string) error {
	registry := stages.NewRegistry(stages.Deps{Config: config.Default()})

	if stagesJSON {
		var infos []StageInfo
		for _, s := range registry.Stages() {
			infos = append(infos, StageInfo{Name: s.Name, Role: s.Role.String(), Summary: s.Summary})
		}
		return outputJSON(infos)
	}

	for _, s := range registry.Stages() {
		fmt.Printf("%-12s %-12s %s\n", s.Name, s.Role, s.Summary)
	}
	return nil
}
