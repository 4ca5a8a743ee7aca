// Package resolve turns raw syscall path arguments into canonical absolute
// paths using the tracer's shadow view of a process (cwd, descriptor table).
//
// Paths are cleaned but never symlink-resolved: provenance records the name
// the program referenced, not the target it ended up at.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrUnresolvable is returned when no reasonable base directory can be
// derived for a relative path. Callers drop the single event and continue.
var ErrUnresolvable = errors.New("path not resolvable")

// Resolution is the outcome of resolving one path argument.
type Resolution struct {
	Path string
	// LowConfidence marks paths anchored on a descriptor the tracer never
	// saw opened (inherited before tracing began). The base came from a
	// best-effort /proc lookup instead of shadow state.
	LowConfidence bool
}

// Resolve canonicalizes a raw path argument.
//
// dirfd anchors relative paths: unix.AT_FDCWD means the process's shadow
// working directory, any other value is looked up in the shadow descriptor
// table fds. pid is used only for the /proc fallback when the descriptor is
// untracked.
func Resolve(raw string, dirfd int, cwd string, fds map[int]string, pid int) (Resolution, error) {
	if filepath.IsAbs(raw) {
		return Resolution{Path: filepath.Clean(raw)}, nil
	}

	if dirfd == unix.AT_FDCWD {
		if cwd == "" {
			return Resolution{}, fmt.Errorf("%w: %q with no known working directory", ErrUnresolvable, raw)
		}
		return Resolution{Path: join(cwd, raw)}, nil
	}

	if base, ok := fds[dirfd]; ok {
		// An empty raw path with AT_EMPTY_PATH semantics refers to the
		// descriptor itself.
		if raw == "" {
			return Resolution{Path: filepath.Clean(base)}, nil
		}
		return Resolution{Path: join(base, raw)}, nil
	}

	// Untracked descriptor: best effort via /proc, tagged low-confidence.
	if base, err := os.Readlink(fmt.Sprintf("/proc/%d/fd/%d", pid, dirfd)); err == nil && filepath.IsAbs(base) {
		if raw == "" {
			return Resolution{Path: filepath.Clean(base), LowConfidence: true}, nil
		}
		return Resolution{Path: join(base, raw), LowConfidence: true}, nil
	}

	return Resolution{}, fmt.Errorf("%w: %q anchored on unknown descriptor %d", ErrUnresolvable, raw, dirfd)
}

func join(base, rel string) string {
	return filepath.Clean(filepath.Join(base, rel))
}
