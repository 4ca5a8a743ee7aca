package store

import "strings"

// SignalBit marks an exitcode value as "terminated by signal": the low byte
// is the signal number. Normal exits occupy [0, 255] with the bit clear, so
// the two spaces never collide.
const SignalBit = 0x0100

// EncodeExit encodes a normal exit status.
func EncodeExit(status int) int {
	return status & 0xFF
}

// EncodeSignal encodes termination by a signal.
func EncodeSignal(sig int) int {
	return SignalBit | (sig & 0xFF)
}

// DecodeExit recovers the (value, signaled) pair from a stored exitcode.
func DecodeExit(code int) (value int, signaled bool) {
	if code&SignalBit != 0 {
		return code & 0xFF, true
	}
	return code & 0xFF, false
}

// JoinArgv serializes an argument vector as NUL-separated segments with a
// trailing separator.
func JoinArgv(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return strings.Join(argv, "\x00") + "\x00"
}

// SplitArgv recovers an argument vector, tolerating a missing trailing
// separator.
func SplitArgv(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\x00")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
