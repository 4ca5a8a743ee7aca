package syscalls

import "golang.org/x/sys/unix"

// OpenMode derives the provenance access mode from open(2) flags.
func OpenMode(flags uint64) FileMode {
	var m FileMode
	switch flags & unix.O_ACCMODE {
	case unix.O_RDONLY:
		m = ModeRead
	case unix.O_WRONLY:
		m = ModeWrite
	case unix.O_RDWR:
		m = ModeRead | ModeWrite
	}
	if flags&(unix.O_CREAT|unix.O_TRUNC|unix.O_APPEND) != 0 {
		m |= ModeWrite
	}
	if flags&unix.O_DIRECTORY != 0 {
		m |= ModeWorkingDir
	}
	return m
}
