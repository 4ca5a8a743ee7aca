// Package session wires the supervisor and the provenance store into one
// traced run: the launch interface callers use to produce a trace.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/retracehq/retrace/internal/log"
	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/tracer"
)

// DatabaseName is the trace database filename inside the trace directory.
const DatabaseName = "trace.sqlite3"

// ErrAborted is returned when an interrupt stopped the trace early. The
// store holds a valid prefix of events but the session is not a complete
// reproducibility record.
var ErrAborted = errors.New("trace aborted by interrupt")

// Options configures one traced run.
type Options struct {
	// Program is the command to run; looked up in PATH when not a path.
	Program string
	// Argv is the full argument vector. Argv[0] may differ from Program
	// when the caller overrides it.
	Argv []string
	// Dir is the trace directory; created if missing.
	Dir string
	// Append continues an existing trace instead of replacing it.
	Append bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DatabasePath returns the trace database location for a trace directory.
func DatabasePath(dir string) string {
	return filepath.Join(dir, DatabaseName)
}

// Run traces one command to completion and returns the root process's exit
// code in the signal-bit encoding.
func Run(opts Options) (int, error) {
	prog, err := exec.LookPath(opts.Program)
	if err != nil {
		// Fail before any store exists: a missing program is not a trace.
		return -1, &tracer.LaunchError{Program: opts.Program, Err: err}
	}
	prog, err = filepath.Abs(prog)
	if err != nil {
		return -1, &tracer.LaunchError{Program: opts.Program, Err: err}
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return -1, fmt.Errorf("creating trace directory: %w", err)
	}

	mode := store.Fresh
	if opts.Append {
		mode = store.Append
	}
	dbPath := DatabasePath(opts.Dir)
	st, err := store.Open(dbPath, mode)
	if err != nil {
		return -1, err
	}

	argv := opts.Argv
	if len(argv) == 0 {
		argv = []string{prog}
	}
	sup, err := tracer.New(st, tracer.Options{
		Program: prog,
		Argv:    argv,
		Stdin:   opts.Stdin,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
	})
	if err != nil {
		st.Abort()
		discardIfFresh(dbPath, mode)
		return -1, err
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	// The supervisor loop owns its own locked OS thread; the second
	// goroutine only relays interrupts to the traced process group.
	done := make(chan struct{})
	var exitCode int
	var g errgroup.Group
	g.Go(func() error {
		defer close(done)
		var runErr error
		exitCode, runErr = sup.Run()
		return runErr
	})
	g.Go(func() error {
		for {
			select {
			case <-done:
				return nil
			case sig := <-sigc:
				log.Info("interrupt received, stopping trace", "signal", sig.String())
				sup.Interrupt()
			}
		}
	})

	switch err := g.Wait(); {
	case err == nil:
		if err := st.Finalize(); err != nil {
			discardIfFresh(dbPath, mode)
			return exitCode, err
		}
		return exitCode, nil

	case errors.Is(err, tracer.ErrInterrupted):
		// Everything recorded so far is a consistent prefix; keep it but
		// report the session as aborted.
		if ferr := st.Finalize(); ferr != nil {
			discardIfFresh(dbPath, mode)
			return exitCode, ferr
		}
		return exitCode, ErrAborted

	default:
		st.Abort()
		discardIfFresh(dbPath, mode)
		return exitCode, err
	}
}

// discardIfFresh removes a failed session's database so no half-written
// trace masquerades as a complete record. Append sessions keep the file:
// the rollback already restored the prior contents.
func discardIfFresh(dbPath string, mode store.Mode) {
	if mode != store.Fresh {
		return
	}
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		log.Warn("removing failed trace database", "path", dbPath, "error", err)
	}
}
