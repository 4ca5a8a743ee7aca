//go:build linux && (amd64 || arm64)

package tracer

import "testing"

func TestCopyFDsIsIndependent(t *testing.T) {
	p := &proc{
		fds: map[int]fdInfo{
			3: {path: "/var/log", cloexec: false},
			4: {path: "/etc/passwd", cloexec: true},
		},
	}
	dup := copyFDs(p.fds)
	dup[5] = fdInfo{path: "/new"}
	delete(dup, 3)

	if _, ok := p.fds[5]; ok {
		t.Error("copy leaked a new descriptor into the original")
	}
	if _, ok := p.fds[3]; !ok {
		t.Error("delete on the copy removed from the original")
	}
}

func TestFdPaths(t *testing.T) {
	p := &proc{
		fds: map[int]fdInfo{
			3: {path: "/var/log"},
			7: {path: "/data", cloexec: true},
		},
	}
	paths := p.fdPaths()
	if paths[3] != "/var/log" || paths[7] != "/data" {
		t.Errorf("fdPaths = %v", paths)
	}
	if len(paths) != 2 {
		t.Errorf("len = %d", len(paths))
	}
}
