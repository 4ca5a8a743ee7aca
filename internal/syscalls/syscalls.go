// Package syscalls carries the static per-architecture syscall metadata the
// tracer consults: which syscalls matter for provenance, how their arguments
// are laid out, and what kind of file access they represent.
package syscalls

import "fmt"

// Class is the closed classification of syscalls the tracer understands.
// Everything not in the table is ClassOther and ignored for provenance.
type Class int

const (
	ClassOther Class = iota
	ClassOpen        // open-family: returns a descriptor for a path
	ClassStat        // metadata-only access (stat, access, statx)
	ClassReadlink
	ClassExec
	ClassChdir
	ClassFchdir
	ClassDup
	ClassClose
	ClassUnlink // deletion (unlink, rmdir, unlinkat)
	ClassRename
	ClassCreate // node creation without a returned descriptor (mkdir, symlink, link)
	ClassFork
	ClassExit
)

// FileMode is the access-mode bitmask persisted in opened_files.mode.
type FileMode int

const (
	ModeRead       FileMode = 0x01
	ModeWrite      FileMode = 0x02
	ModeWorkingDir FileMode = 0x04 // directory access (chdir target, O_DIRECTORY, exec cwd)
	ModeStat       FileMode = 0x08 // metadata-only
	ModeLink       FileMode = 0x10 // symlink/hardlink referenced by name
	ModeDelete     FileMode = 0x20 // removal or rename source
)

// Spec describes one syscall's argument shape. Argument indexes refer to the
// six-register syscall ABI slots; -1 marks an absent argument.
type Spec struct {
	Name     string
	Class    Class
	Mode     FileMode // base mode for classes with a fixed access kind
	PathArg  int      // primary path argument
	DirfdArg int      // anchor descriptor for the primary path
	FlagsArg int      // open flags (ClassOpen only)
	Path2Arg int      // secondary path (ClassRename)
	Dirfd2Av int      // anchor descriptor for the secondary path
}

// Lookup returns the spec for a syscall number on this architecture.
// The second result is false for syscalls outside the provenance set.
func Lookup(nr uint64) (Spec, bool) {
	s, ok := table[nr]
	return s, ok
}

// Name returns the syscall's name when known, else a numeric placeholder.
func Name(nr uint64) string {
	if s, ok := table[nr]; ok {
		return s.Name
	}
	return fmt.Sprintf("syscall_%d", nr)
}

func (m FileMode) String() string {
	names := []struct {
		bit  FileMode
		name string
	}{
		{ModeRead, "read"},
		{ModeWrite, "write"},
		{ModeWorkingDir, "wdir"},
		{ModeStat, "stat"},
		{ModeLink, "link"},
		{ModeDelete, "delete"},
	}
	out := ""
	for _, n := range names {
		if m&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}
