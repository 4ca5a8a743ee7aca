// Package tracer supervises a traced process tree through the kernel's
// ptrace facility and turns syscall activity into provenance events.
//
// # Platform Support
//
// Linux (amd64, arm64): full syscall-boundary tracing.
//
// Other platforms: New returns an error; there is no degraded mode, since a
// partial provenance record would be misleading.
//
// # Threading
//
// ptrace binds a tracee to the OS thread that attached it. Run locks its
// goroutine to one OS thread and performs every ptrace call there; nothing
// else may touch the traced tree. Interrupt is the one exception: it only
// sends a signal to the process group, which is safe from any thread.
package tracer

import (
	"errors"
	"fmt"
	"io"
)

// ErrInterrupted is returned by Run when Interrupt stopped the trace. The
// provenance recorded up to that point is a valid prefix, but the session
// did not complete.
var ErrInterrupted = errors.New("trace interrupted")

// Sink receives provenance events in the exact order the control thread
// produced them. *store.Store satisfies it.
type Sink interface {
	RecordProcess(parent *int64, timestamp int64) (int64, error)
	RecordExec(name string, timestamp int64, process int64, argv []string) error
	RecordOpen(name string, timestamp int64, mode int, process int64) error
	UpdateExit(process int64, code int) error
}

// Options configures one traced run.
type Options struct {
	// Program is the absolute path of the executable to launch.
	Program string
	// Argv is the full argument vector; Argv[0] may differ from Program.
	Argv []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Supervisor drives one traced process tree to completion.
type Supervisor interface {
	// Run launches the program suspended, attaches tracing, and drives the
	// supervision loop until no tracees remain. It returns the root
	// process's exit code in the signal-bit encoding. Blocking.
	Run() (int, error)

	// Interrupt kills the whole traced process group. Run then drains the
	// remaining exit events and returns ErrInterrupted. Safe to call from
	// any goroutine.
	Interrupt()
}

// LaunchError means the target program could not be started at all; no
// trace was recorded.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// AttachError means the program started but the interception facility could
// not be engaged (unsupported kernel, permission denied).
type AttachError struct {
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attaching tracer: %v", e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }
