package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/session"
	"github.com/retracehq/retrace/internal/ui"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Regenerate config.yml from the trace database",
	Long: `Reset rebuilds the reproducibility configuration from the recorded
trace, discarding any manual edits to config.yml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Lstat(session.DatabasePath(traceDir)); err != nil {
			return fmt.Errorf("no trace found in %s (run 'retrace trace' first)", traceDir)
		}
		if err := writeConfig(traceDir, true); err != nil {
			return err
		}
		ui.Infof("configuration written to %s", config.Path(traceDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
