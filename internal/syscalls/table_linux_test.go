//go:build linux && (amd64 || arm64)

package syscalls

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestLookupClassification(t *testing.T) {
	tests := []struct {
		nr    uint64
		name  string
		class Class
	}{
		{unix.SYS_OPENAT, "openat", ClassOpen},
		{unix.SYS_EXECVE, "execve", ClassExec},
		{unix.SYS_CHDIR, "chdir", ClassChdir},
		{unix.SYS_FCHDIR, "fchdir", ClassFchdir},
		{unix.SYS_CLOSE, "close", ClassClose},
		{unix.SYS_UNLINKAT, "unlinkat", ClassUnlink},
		{unix.SYS_RENAMEAT, "renameat", ClassRename},
		{unix.SYS_MKDIRAT, "mkdirat", ClassCreate},
		{unix.SYS_READLINKAT, "readlinkat", ClassReadlink},
		{unix.SYS_NEWFSTATAT, "newfstatat", ClassStat},
		{unix.SYS_CLONE, "clone", ClassFork},
		{unix.SYS_EXIT_GROUP, "exit_group", ClassExit},
		{unix.SYS_DUP3, "dup3", ClassDup},
	}
	for _, tt := range tests {
		spec, ok := Lookup(tt.nr)
		if !ok {
			t.Errorf("Lookup(%s) missing", tt.name)
			continue
		}
		if spec.Name != tt.name {
			t.Errorf("Lookup(%d).Name = %q, want %q", tt.nr, spec.Name, tt.name)
		}
		if spec.Class != tt.class {
			t.Errorf("Lookup(%s).Class = %v, want %v", tt.name, spec.Class, tt.class)
		}
	}
}

func TestLookupIgnoresUninterestingSyscalls(t *testing.T) {
	for _, nr := range []uint64{unix.SYS_GETPID, unix.SYS_NANOSLEEP, unix.SYS_MMAP} {
		if _, ok := Lookup(nr); ok {
			t.Errorf("Lookup(%d) should not be in the provenance set", nr)
		}
	}
}

func TestNameFallback(t *testing.T) {
	if got := Name(99999); got != "syscall_99999" {
		t.Errorf("Name(99999) = %q", got)
	}
	if got := Name(unix.SYS_OPENAT); got != "openat" {
		t.Errorf("Name(openat) = %q", got)
	}
}
