package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/pack"
	"github.com/retracehq/retrace/internal/session"
	"github.com/retracehq/retrace/internal/ui"
)

var packCmd = &cobra.Command{
	Use:   "pack [target]",
	Short: "Bundle the trace and its files into a portable archive",
	Long: `Pack collects the trace database, the configuration, and every file
listed in config.yml into a single gzipped bundle (default: experiment.rpz)
that can be unpacked and replayed elsewhere.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		target, changed := pack.FixTarget(target)
		if changed {
			ui.Warnf("changing output filename to %s", target)
		}

		dbPath := session.DatabasePath(traceDir)
		confPath := config.Path(traceDir)
		if _, err := os.Lstat(dbPath); err != nil {
			return fmt.Errorf("no trace found in %s (run 'retrace trace' first)", traceDir)
		}
		if _, err := os.Lstat(confPath); err != nil {
			return fmt.Errorf("no configuration in %s (run 'retrace reset' first)", traceDir)
		}

		err := pack.Create(pack.Options{
			Target:       target,
			DatabasePath: dbPath,
			ConfigPath:   confPath,
		})
		if err != nil {
			return err
		}
		ui.Infof("bundle written to %s", target)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
}
