//go:build !linux || (!amd64 && !arm64)

package syscalls

// Unsupported platforms get an empty table; the tracer itself is
// Linux-only, but mode formatting is used by portable CLI code.
var table = map[uint64]Spec{}
