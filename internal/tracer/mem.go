//go:build linux && (amd64 || arm64)

package tracer

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	// maxPathLen bounds NUL-terminated string reads from tracee memory.
	maxPathLen = 4096
	// maxArgv bounds argument vector reads; anything longer is truncated.
	maxArgv = 1024

	wordSize = 8
)

// readString reads a NUL-terminated string from the tracee's memory.
func readString(pid int, addr uintptr) (string, error) {
	if addr == 0 {
		return "", fmt.Errorf("nil string pointer in process %d", pid)
	}

	var out []byte
	buf := make([]byte, 64)
	for len(out) < maxPathLen {
		n, err := unix.PtracePeekData(pid, addr, buf)
		if n <= 0 {
			if err == nil {
				err = unix.EIO
			}
			return "", fmt.Errorf("reading string at %#x in process %d: %w", addr, pid, err)
		}
		for i := 0; i < n; i++ {
			if buf[i] == 0 {
				return string(append(out, buf[:i]...)), nil
			}
		}
		out = append(out, buf[:n]...)
		addr += uintptr(n)
	}
	return string(out[:maxPathLen]), nil
}

// readStringArray reads a NULL-terminated array of string pointers, such as
// an execve argument vector.
func readStringArray(pid int, addr uintptr) ([]string, error) {
	if addr == 0 {
		return nil, nil
	}

	var out []string
	buf := make([]byte, wordSize)
	for len(out) < maxArgv {
		n, err := unix.PtracePeekData(pid, addr, buf)
		if err != nil || n < wordSize {
			if err == nil {
				err = unix.EIO
			}
			return out, fmt.Errorf("reading pointer array at %#x in process %d: %w", addr, pid, err)
		}
		ptr := binary.LittleEndian.Uint64(buf)
		if ptr == 0 {
			return out, nil
		}
		s, err := readString(pid, uintptr(ptr))
		if err != nil {
			return out, err
		}
		out = append(out, s)
		addr += wordSize
	}
	return out, nil
}
