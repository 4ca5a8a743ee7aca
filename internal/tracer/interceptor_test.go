//go:build linux && (amd64 || arm64)

package tracer

import (
	"testing"

	"github.com/retracehq/retrace/internal/syscalls"
)

func dupPending(fd int) *pending {
	return &pending{
		spec: syscalls.Spec{Name: "dup2", Class: syscalls.ClassDup},
		fd:   fd,
	}
}

func TestDupOverwritesTargetEntry(t *testing.T) {
	ic := &interceptor{}
	p := &proc{
		fs: &fsState{cwd: "/"},
		fds: map[int]fdInfo{
			3: {path: "/var/data/in.txt"},
			4: {path: "/var/data/out.txt"},
		},
	}

	// dup2(3, 4): the target's old entry must be replaced, not merged.
	p.pend = dupPending(3)
	if err := ic.onExit(p, 4); err != nil {
		t.Fatal(err)
	}
	if got := p.fds[4].path; got != "/var/data/in.txt" {
		t.Errorf("fd 4 = %q, want source path", got)
	}
}

func TestDupFromUntrackedSourceClearsTarget(t *testing.T) {
	ic := &interceptor{}
	p := &proc{
		fs:  &fsState{cwd: "/"},
		fds: map[int]fdInfo{4: {path: "/var/data/stale.txt"}},
	}

	// dup2(9, 4) with fd 9 untracked: fd 4 was implicitly closed, so its
	// stale shadow entry must go away.
	p.pend = dupPending(9)
	if err := ic.onExit(p, 4); err != nil {
		t.Fatal(err)
	}
	if info, ok := p.fds[4]; ok {
		t.Errorf("fd 4 still maps to %q after being duplicated over", info.path)
	}
}

func TestDupOntoItselfKeepsEntry(t *testing.T) {
	ic := &interceptor{}
	p := &proc{
		fs:  &fsState{cwd: "/"},
		fds: map[int]fdInfo{4: {path: "/var/data/in.txt"}},
	}

	// dup2(4, 4) succeeds without closing anything.
	p.pend = dupPending(4)
	if err := ic.onExit(p, 4); err != nil {
		t.Fatal(err)
	}
	if got := p.fds[4].path; got != "/var/data/in.txt" {
		t.Errorf("fd 4 = %q, want original path", got)
	}
}

func TestDupFailureLeavesTableAlone(t *testing.T) {
	ic := &interceptor{}
	p := &proc{
		fs:  &fsState{cwd: "/"},
		fds: map[int]fdInfo{4: {path: "/var/data/in.txt"}},
	}

	p.pend = dupPending(9)
	if err := ic.onExit(p, -int64(9) /* EBADF */); err != nil {
		t.Fatal(err)
	}
	if got := p.fds[4].path; got != "/var/data/in.txt" {
		t.Errorf("fd 4 = %q, want original path", got)
	}
}
