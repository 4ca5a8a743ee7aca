package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/syscalls"
	"github.com/retracehq/retrace/internal/ui"
)

// printDatabase dumps the three provenance tables in id order.
func printDatabase(dbPath string) error {
	r, err := store.OpenReader(dbPath)
	if err != nil {
		return err
	}
	defer r.Close()

	procs, err := r.Processes()
	if err != nil {
		return err
	}
	execs, err := r.ExecutedFiles()
	if err != nil {
		return err
	}
	opens, err := r.OpenedFiles()
	if err != nil {
		return err
	}

	ui.Section("Processes")
	for _, p := range procs {
		parent := "-"
		if p.Parent != nil {
			parent = fmt.Sprintf("%d", *p.Parent)
		}
		exit := "running"
		if p.ExitCode != nil {
			exit = formatExit(*p.ExitCode)
		}
		fmt.Printf("  %4d  parent %-4s  %s  %s\n", p.ID, parent, formatTime(p.Timestamp), exit)
	}

	ui.Section("Executed files")
	for _, e := range execs {
		fmt.Printf("  %4d  %s  process %d\n        %s\n        argv: %s\n",
			e.ID, formatTime(e.Timestamp), e.Process, e.Name, strings.Join(e.Argv, " "))
	}

	ui.Section("Opened files")
	for _, o := range opens {
		fmt.Printf("  %4d  %s  process %-4d  %-22s  %s\n",
			o.ID, formatTime(o.Timestamp), o.Process, syscalls.FileMode(o.Mode).String(), o.Name)
	}

	return nil
}

func formatExit(code int) string {
	value, signaled := store.DecodeExit(code)
	if signaled {
		return fmt.Sprintf("signal %d", value)
	}
	return fmt.Sprintf("exit %d", value)
}

func formatTime(ns int64) string {
	return time.Unix(0, ns).Format("15:04:05.000")
}
