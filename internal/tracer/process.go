//go:build linux && (amd64 || arm64)

package tracer

import (
	"github.com/retracehq/retrace/internal/resolve"
	"github.com/retracehq/retrace/internal/syscalls"
)

// fdInfo is one entry in a process's shadow descriptor table.
type fdInfo struct {
	path    string
	cloexec bool
}

// fsState is the shadow filesystem state a process can share with others
// (clone with CLONE_FS shares the working directory).
type fsState struct {
	cwd string
}

// pending is the syscall-entry snapshot kept until the matching exit stop.
type pending struct {
	nr   uint64
	spec syscalls.Spec

	path  resolve.Resolution
	path2 resolve.Resolution
	mode  syscalls.FileMode

	fd      int    // dup source / close target / fchdir anchor
	flags   uint64 // clone flags
	cloexec bool

	execPath string
	argv     []string
}

// proc is the supervisor's mutable record for one tracee. Entries live in
// the supervisor's pid-indexed arena; parent linkage is by store id, never
// by pointer.
type proc struct {
	id  int64 // provenance store id; -1 while parked
	pid int

	fs  *fsState      // shared with the parent under CLONE_FS
	fds map[int]fdInfo // shared with the parent under CLONE_FILES

	pend      *pending
	inSyscall bool

	// parked marks a tracee whose first stop arrived before its parent's
	// fork notification; it stays suspended until the link is known.
	parked bool
	// newborn suppresses the SIGSTOP a freshly-attached child delivers.
	newborn bool
}

// fdPaths exposes the descriptor table in the form the path resolver takes.
func (p *proc) fdPaths() map[int]string {
	out := make(map[int]string, len(p.fds))
	for fd, info := range p.fds {
		out[fd] = info.path
	}
	return out
}

// copyFDs deep-copies the descriptor table for a child that does not share
// it with its parent.
func copyFDs(src map[int]fdInfo) map[int]fdInfo {
	out := make(map[int]fdInfo, len(src))
	for fd, info := range src {
		out[fd] = info
	}
	return out
}
