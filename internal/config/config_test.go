package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/syscalls"
)

func buildTrace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "trace.sqlite3")
	s, err := store.Open(db, store.Fresh)
	if err != nil {
		t.Fatal(err)
	}
	root, err := s.RecordProcess(nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordExec("/bin/sh", 101, root, []string{"sh", "-c", "true"}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordOpen("/tmp", 102, int(syscalls.ModeWorkingDir), root); err != nil {
		t.Fatal(err)
	}
	// A path that exists and one that certainly does not.
	if err := s.RecordOpen(os.Args[0], 103, int(syscalls.ModeRead), root); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordOpen(filepath.Join(dir, "gone"), 104, int(syscalls.ModeRead), root); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateExit(root, store.EncodeExit(2)); err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestBuild(t *testing.T) {
	db := buildTrace(t)
	r, err := store.OpenReader(db)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	cfg, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(cfg.Runs))
	}
	run := cfg.Runs[0]
	if run.Binary != "/bin/sh" {
		t.Errorf("binary = %q", run.Binary)
	}
	if len(run.Argv) != 3 || run.Argv[0] != "sh" {
		t.Errorf("argv = %v", run.Argv)
	}
	if run.WorkingDir != "/tmp" {
		t.Errorf("workingdir = %q", run.WorkingDir)
	}
	if run.ExitCode != 2 || run.Signal != 0 {
		t.Errorf("exitcode = %d signal = %d", run.ExitCode, run.Signal)
	}

	found := false
	for _, f := range cfg.OtherFiles {
		if f == os.Args[0] {
			found = true
		}
	}
	if !found {
		t.Errorf("other_files missing %s: %v", os.Args[0], cfg.OtherFiles)
	}
	if len(cfg.MissingFiles) != 1 {
		t.Errorf("missing_files = %v", cfg.MissingFiles)
	}
}

func TestBuild_SignaledRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "trace.sqlite3")
	s, err := store.Open(db, store.Fresh)
	if err != nil {
		t.Fatal(err)
	}
	root, err := s.RecordProcess(nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordExec("/bin/sleep", 101, root, []string{"sleep", "60"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateExit(root, store.EncodeSignal(9)); err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}

	r, err := store.OpenReader(db)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	cfg, err := Build(r)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Runs[0].Signal != 9 {
		t.Errorf("signal = %d, want 9", cfg.Runs[0].Signal)
	}
	if cfg.Runs[0].ExitCode != 0 {
		t.Errorf("exitcode = %d, want 0", cfg.Runs[0].ExitCode)
	}
}

func TestWriteRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	cfg := &Config{Version: Version}
	if err := Write(path, cfg, false); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, cfg, false); err == nil {
		t.Fatal("expected error on second write")
	}
	if err := Write(path, cfg, true); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	cfg := &Config{
		Version:    Version,
		Runs:       []Run{{Binary: "/bin/true", Argv: []string{"true"}, ExitCode: 0}},
		OtherFiles: []string{"/bin/true"},
	}
	if err := Write(path, cfg, false); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != Version {
		t.Errorf("version = %q", got.Version)
	}
	if len(got.Runs) != 1 || got.Runs[0].Binary != "/bin/true" {
		t.Errorf("runs = %+v", got.Runs)
	}
}
