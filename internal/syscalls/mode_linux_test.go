package syscalls

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestOpenMode(t *testing.T) {
	tests := []struct {
		name  string
		flags uint64
		want  FileMode
	}{
		{"rdonly", unix.O_RDONLY, ModeRead},
		{"wronly", unix.O_WRONLY, ModeWrite},
		{"rdwr", unix.O_RDWR, ModeRead | ModeWrite},
		{"creat implies write", unix.O_RDONLY | unix.O_CREAT, ModeRead | ModeWrite},
		{"trunc implies write", unix.O_WRONLY | unix.O_TRUNC, ModeWrite},
		{"append implies write", unix.O_RDONLY | unix.O_APPEND, ModeRead | ModeWrite},
		{"directory", unix.O_RDONLY | unix.O_DIRECTORY, ModeRead | ModeWorkingDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OpenMode(tt.flags); got != tt.want {
				t.Errorf("OpenMode(%#x) = %v, want %v", tt.flags, got, tt.want)
			}
		})
	}
}
