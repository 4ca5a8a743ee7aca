package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/session"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the contents of a trace database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := session.DatabasePath(traceDir)
		if _, err := os.Lstat(dbPath); err != nil {
			return fmt.Errorf("no trace found in %s (run 'retrace trace' first)", traceDir)
		}
		return printDatabase(dbPath)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
