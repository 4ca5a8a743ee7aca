//go:build linux && (amd64 || arm64)

package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/syscalls"
	"github.com/retracehq/retrace/internal/tracer"
)

// traceOrSkip runs one traced session, skipping the test where ptrace is
// unavailable (locked-down CI, containers with a restrictive seccomp policy).
func traceOrSkip(t *testing.T, dir string, argv ...string) int {
	t.Helper()
	exit, err := Run(Options{
		Program: argv[0],
		Argv:    argv,
		Dir:     dir,
	})
	if err != nil {
		var attach *tracer.AttachError
		if errors.As(err, &attach) || strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("ptrace unavailable: %v", err)
		}
		t.Fatal(err)
	}
	return exit
}

func openTrace(t *testing.T, dir string) *store.Reader {
	t.Helper()
	r, err := store.OpenReader(DatabasePath(dir))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestTraceSingleProcess(t *testing.T) {
	dir := t.TempDir()
	exit := traceOrSkip(t, dir, "/bin/true")
	if exit != store.EncodeExit(0) {
		t.Errorf("exit = %#x, want 0", exit)
	}

	r := openTrace(t, dir)
	procs, err := r.Processes()
	if err != nil {
		t.Fatal(err)
	}
	if len(procs) != 1 {
		t.Fatalf("processes = %d, want 1", len(procs))
	}
	if procs[0].Parent != nil {
		t.Error("root process has a parent")
	}
	if procs[0].ExitCode == nil || *procs[0].ExitCode != 0 {
		t.Errorf("root exitcode = %v, want 0", procs[0].ExitCode)
	}

	execs, err := r.ExecutedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) == 0 || execs[0].Name != "/bin/true" {
		t.Errorf("executed files = %+v", execs)
	}
}

func TestTraceRecordsFileOpen(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(input, []byte("data\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	traceOrSkip(t, dir, "/bin/cat", input)

	r := openTrace(t, dir)
	opens, err := r.OpenedFiles()
	if err != nil {
		t.Fatal(err)
	}
	// The path can show up more than once (cat also stats its input); at
	// least one row must be the read-mode open.
	found := false
	for _, o := range opens {
		if o.Name == input && o.Mode&int(syscalls.ModeRead) != 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("no read-mode row for %s in opened_files:\n%+v", input, opens)
	}
}

func TestTraceFollowsChildren(t *testing.T) {
	dir := t.TempDir()
	exit := traceOrSkip(t, dir, "/bin/sh", "-c", "/bin/sh -c 'exit 3'; exit 5")
	if exit != store.EncodeExit(5) {
		t.Errorf("root exit = %#x, want 5", exit)
	}

	r := openTrace(t, dir)
	procs, err := r.Processes()
	if err != nil {
		t.Fatal(err)
	}
	if len(procs) < 2 {
		t.Fatalf("processes = %d, want at least 2", len(procs))
	}

	var sawThree, sawFive bool
	for _, p := range procs {
		if p.ExitCode == nil {
			t.Errorf("process %d has no exit code", p.ID)
			continue
		}
		switch *p.ExitCode {
		case store.EncodeExit(3):
			sawThree = true
		case store.EncodeExit(5):
			sawFive = true
		}
	}
	if !sawThree || !sawFive {
		t.Errorf("exit codes 3 and 5 not both recorded: %+v", procs)
	}

	// Every non-root process must link to a recorded parent.
	ids := make(map[int64]bool)
	for _, p := range procs {
		ids[p.ID] = true
	}
	for _, p := range procs {
		if p.Parent != nil && !ids[*p.Parent] {
			t.Errorf("process %d has unknown parent %d", p.ID, *p.Parent)
		}
	}
}

func TestTraceRecordsSignalDeath(t *testing.T) {
	dir := t.TempDir()
	exit := traceOrSkip(t, dir, "/bin/sh", "-c", "kill -9 $$")
	if exit != store.EncodeSignal(9) {
		t.Errorf("exit = %#x, want %#x", exit, store.EncodeSignal(9))
	}

	r := openTrace(t, dir)
	procs, err := r.Processes()
	if err != nil {
		t.Fatal(err)
	}
	if procs[0].ExitCode == nil {
		t.Fatal("no exit code recorded")
	}
	value, signaled := store.DecodeExit(*procs[0].ExitCode)
	if !signaled || value != 9 {
		t.Errorf("exitcode = %#x, want signal 9", *procs[0].ExitCode)
	}
}

func TestTraceResolvesRelativePathsAfterChdir(t *testing.T) {
	dir := t.TempDir()
	workdir := filepath.Join(dir, "work")
	if err := os.Mkdir(workdir, 0o755); err != nil {
		t.Fatal(err)
	}
	rel := filepath.Join(workdir, "rel.txt")
	if err := os.WriteFile(rel, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	traceOrSkip(t, dir, "/bin/sh", "-c", "cd "+workdir+" && cat rel.txt")

	r := openTrace(t, dir)
	opens, err := r.OpenedFiles()
	if err != nil {
		t.Fatal(err)
	}
	var sawChdir, sawFile bool
	for _, o := range opens {
		if o.Name == workdir && o.Mode&int(syscalls.ModeWorkingDir) != 0 {
			sawChdir = true
		}
		if o.Name == rel {
			sawFile = true
		}
	}
	if !sawChdir {
		t.Errorf("chdir to %s not recorded:\n%+v", workdir, opens)
	}
	if !sawFile {
		t.Errorf("relative open of %s not resolved:\n%+v", rel, opens)
	}
}

func TestLaunchErrorLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(Options{
		Program: "/nonexistent/program",
		Argv:    []string{"nope"},
		Dir:     dir,
	})
	if err == nil {
		t.Fatal("expected error for missing program")
	}
	if _, statErr := os.Lstat(DatabasePath(dir)); statErr == nil {
		t.Error("failed launch left a trace database behind")
	}
}
