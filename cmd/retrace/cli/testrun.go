package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/session"
)

var testrunCmd = &cobra.Command{
	Use:   "testrun command [args...]",
	Short: "Trace a command into a scratch directory and dump the results",
	Long: `Testrun traces the command like 'retrace trace' but writes into a
temporary directory, prints the recorded database, and throws everything
away. Useful for checking what a trace would capture.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scratch, err := os.MkdirTemp("", "retrace-testrun-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(scratch)

		exit, err := traceInto(scratch, args, arg0Flag, false)
		if err != nil {
			return err
		}
		reportExit(exit)
		return printDatabase(session.DatabasePath(scratch))
	},
}

func init() {
	rootCmd.AddCommand(testrunCmd)
	testrunCmd.Flags().StringVarP(&arg0Flag, "arg0", "a", "", "argv[0] to pass to the program (default: the program path)")
	testrunCmd.Flags().SetInterspersed(false)
}
