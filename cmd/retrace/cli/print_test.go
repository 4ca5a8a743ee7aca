package cli

import (
	"testing"

	"github.com/retracehq/retrace/internal/store"
)

func TestFormatExit(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{store.EncodeExit(0), "exit 0"},
		{store.EncodeExit(2), "exit 2"},
		{store.EncodeSignal(9), "signal 9"},
		{store.EncodeSignal(11), "signal 11"},
	}
	for _, tt := range tests {
		if got := formatExit(tt.code); got != tt.want {
			t.Errorf("formatExit(%#x) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir+"/trace.sqlite3", store.Fresh)
	if err != nil {
		t.Fatal(err)
	}
	root, err := s.RecordProcess(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordExec("/bin/true", 2, root, []string{"true"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateExit(root, store.EncodeExit(0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}

	if err := writeConfig(dir, false); err != nil {
		t.Fatal(err)
	}
	// Refuses to clobber without overwrite.
	if err := writeConfig(dir, false); err == nil {
		t.Fatal("expected error on second write")
	}
	if err := writeConfig(dir, true); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
}
