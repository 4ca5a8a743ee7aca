package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/session"
	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/ui"
)

var (
	arg0Flag     string
	continueFlag bool
)

var traceCmd = &cobra.Command{
	Use:   "trace [flags] command [args...]",
	Short: "Trace a command and record its execution provenance",
	Long: `Trace runs the given command under ptrace supervision, recording every
process it creates, every program it executes, and every file it touches.
The provenance lands in a SQLite database inside the trace directory, and a
reproducibility configuration is derived from it.

Examples:
  # Trace a script
  retrace trace ./run-experiment.sh

  # Trace with arguments
  retrace trace python analyze.py --fast

  # Append a second run to an existing trace
  retrace trace -c python analyze.py --thorough

  # Override the argv[0] the program sees
  retrace trace -a sh /bin/dash -c 'echo hi'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().StringVarP(&arg0Flag, "arg0", "a", "", "argv[0] to pass to the program (default: the program path)")
	traceCmd.Flags().BoolVarP(&continueFlag, "continue", "c", false, "append to an existing trace instead of starting fresh")
	traceCmd.Flags().SetInterspersed(false)
}

func runTrace(cmd *cobra.Command, args []string) error {
	exit, err := traceInto(traceDir, args, arg0Flag, continueFlag)
	if err != nil {
		return err
	}
	reportExit(exit)

	confPath := config.Path(traceDir)
	if _, statErr := os.Lstat(confPath); statErr == nil {
		ui.Warnf("%s already exists, not overwriting (use 'retrace reset' to regenerate)", confPath)
		return nil
	}
	if err := writeConfig(traceDir, false); err != nil {
		return err
	}
	ui.Infof("configuration written to %s", confPath)
	return nil
}

// traceInto runs one traced session with output in dir and returns the root
// process exit encoding.
func traceInto(dir string, args []string, arg0 string, appendRun bool) (int, error) {
	argv := make([]string, len(args))
	copy(argv, args)
	if arg0 != "" {
		argv[0] = arg0
	}

	exit, err := session.Run(session.Options{
		Program: args[0],
		Argv:    argv,
		Dir:     dir,
		Append:  appendRun,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if errors.Is(err, session.ErrAborted) {
		ui.Warn("trace interrupted; partial results were kept")
		return exit, nil
	}
	return exit, err
}

// reportExit warns when the traced program did not exit cleanly.
func reportExit(code int) {
	value, signaled := store.DecodeExit(code)
	switch {
	case signaled:
		ui.Warnf("program was terminated by signal %d", value)
	case value != 0:
		ui.Warnf("program exited with code %d", value)
	}
}

// writeConfig derives config.yml from the trace database in dir.
func writeConfig(dir string, overwrite bool) error {
	r, err := store.OpenReader(session.DatabasePath(dir))
	if err != nil {
		return err
	}
	defer r.Close()

	cfg, err := config.Build(r)
	if err != nil {
		return fmt.Errorf("building configuration: %w", err)
	}
	return config.Write(config.Path(dir), cfg, overwrite)
}
