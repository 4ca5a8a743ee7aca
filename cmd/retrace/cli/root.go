// Package cli implements the retrace command-line interface using Cobra.
// It provides commands for tracing program executions, inspecting the
// resulting provenance database, and packing traced experiments.
package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/log"
)

// DefaultDir is where trace output lands unless --dir says otherwise.
const DefaultDir = ".retrace"

var (
	verbose  bool
	jsonOut  bool
	traceDir string
)

var rootCmd = &cobra.Command{
	Use:   "retrace",
	Short: "Retrace - execution provenance tracing for reproducible runs",
	Long: `Retrace records everything a command does: the processes it spawns,
the programs it executes, and the files it reads and writes. The recorded
provenance can be inspected, turned into a reproducibility configuration,
and packed into a self-contained bundle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debugDir := filepath.Join(traceDir, "debug")
		if err := log.Init(log.Options{
			Verbose:       verbose,
			JSONFormat:    jsonOut,
			DebugDir:      debugDir,
			RetentionDays: 7,
		}); err != nil {
			// Log init failure is non-fatal; continue with default logger.
			cmd.PrintErrf("Warning: failed to initialize debug logging: %v\n", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output logs in JSON format")
	rootCmd.PersistentFlags().StringVarP(&traceDir, "dir", "d", DefaultDir, "trace output directory")
}
