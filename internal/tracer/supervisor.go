//go:build linux && (amd64 || arm64)

package tracer

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/retracehq/retrace/internal/log"
	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/syscalls"
)

const traceOptions = unix.PTRACE_O_TRACESYSGOOD |
	unix.PTRACE_O_TRACEFORK |
	unix.PTRACE_O_TRACEVFORK |
	unix.PTRACE_O_TRACECLONE |
	unix.PTRACE_O_TRACEEXEC |
	unix.PTRACE_O_EXITKILL

// syscallStopSig is how syscall stops present once TRACESYSGOOD is set,
// distinguishing them from genuine SIGTRAP deliveries.
const syscallStopSig = unix.SIGTRAP | 0x80

// ptraceSupervisor owns the traced tree. Every ptrace call happens on the
// one OS thread Run locks; Interrupt only signals the process group.
type ptraceSupervisor struct {
	sink Sink
	opts Options
	ic   *interceptor

	procs map[int]*proc
	// deadEarly holds exit codes of children reaped before their parent's
	// fork notification arrived; they are recorded once the link is known.
	deadEarly map[int]int

	rootPid  atomic.Int32
	rootID   int64
	rootExit int

	interrupted atomic.Bool
}

func newPtraceSupervisor(sink Sink, opts Options) (*ptraceSupervisor, error) {
	if opts.Program == "" {
		return nil, errors.New("no program to trace")
	}
	return &ptraceSupervisor{
		sink:      sink,
		opts:      opts,
		ic:        &interceptor{sink: sink},
		procs:     make(map[int]*proc),
		deadEarly: make(map[int]int),
	}, nil
}

func now() int64 { return time.Now().UnixNano() }

func (s *ptraceSupervisor) Interrupt() {
	s.interrupted.Store(true)
	if pid := s.rootPid.Load(); pid > 0 {
		unix.Kill(-int(pid), unix.SIGKILL)
	}
}

func (s *ptraceSupervisor) Run() (int, error) {
	// ptrace binds tracees to the attaching OS thread; the whole lifetime
	// of the tree must stay on this one.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := s.start(); err != nil {
		return -1, err
	}
	code, err := s.loop()
	if err != nil {
		s.killAll()
		s.drain()
		return code, err
	}
	if s.interrupted.Load() {
		return code, ErrInterrupted
	}
	return code, nil
}

// start launches the program suspended before its first instruction,
// attaches tracing, and records the root process.
func (s *ptraceSupervisor) start() error {
	cmd := exec.Command(s.opts.Program)
	if len(s.opts.Argv) > 0 {
		cmd.Args = append([]string(nil), s.opts.Argv...)
	}
	cmd.Stdin = s.opts.Stdin
	cmd.Stdout = s.opts.Stdout
	cmd.Stderr = s.opts.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true, Setpgid: true}

	if err := cmd.Start(); err != nil {
		return &LaunchError{Program: s.opts.Program, Err: err}
	}
	pid := cmd.Process.Pid
	s.rootPid.Store(int32(pid))
	if s.interrupted.Load() {
		unix.Kill(-pid, unix.SIGKILL)
	}

	// The child delivers a SIGTRAP stop once its exec completes.
	var ws unix.WaitStatus
	for {
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
			if err == unix.EINTR {
				continue
			}
			return &AttachError{Err: err}
		}
		break
	}
	if !ws.Stopped() {
		return &LaunchError{
			Program: s.opts.Program,
			Err:     fmt.Errorf("exited before tracing attached (wait status %#x)", uint32(ws)),
		}
	}
	if err := unix.PtraceSetOptions(pid, traceOptions); err != nil {
		unix.Kill(-pid, unix.SIGKILL)
		return &AttachError{Err: err}
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	ts := now()
	id, err := s.sink.RecordProcess(nil, ts)
	if err != nil {
		s.killAll()
		return err
	}
	s.rootID = id

	root := &proc{
		id:  id,
		pid: pid,
		fs:  &fsState{cwd: cwd},
		fds: make(map[int]fdInfo),
	}
	s.procs[pid] = root

	argv := s.opts.Argv
	if len(argv) == 0 {
		argv = []string{s.opts.Program}
	}
	if err := s.sink.RecordExec(s.opts.Program, ts, id, argv); err != nil {
		s.killAll()
		return err
	}
	if err := s.sink.RecordOpen(cwd, ts, int(syscalls.ModeWorkingDir), id); err != nil {
		s.killAll()
		return err
	}

	log.Debug("tracing started", "pid", pid, "program", s.opts.Program)
	s.resume(root, 0)
	return nil
}

// loop blocks on wait events and dispatches them until no tracees remain.
func (s *ptraceSupervisor) loop() (int, error) {
	var ws unix.WaitStatus
	for len(s.procs) > 0 {
		wpid, err := unix.Wait4(-1, &ws, unix.WALL, nil)
		if err == unix.EINTR {
			continue
		}
		if err == unix.ECHILD {
			break
		}
		if err != nil {
			return s.rootExit, fmt.Errorf("waiting for tracees: %w", err)
		}

		p := s.procs[wpid]
		switch {
		case ws.Exited():
			if err := s.handleExit(wpid, p, store.EncodeExit(ws.ExitStatus())); err != nil {
				return s.rootExit, err
			}
		case ws.Signaled():
			if err := s.handleExit(wpid, p, store.EncodeSignal(int(ws.Signal()))); err != nil {
				return s.rootExit, err
			}
		case ws.Stopped():
			if p == nil {
				// First stop of a child whose fork notification has not
				// arrived yet. Keep it suspended until the link is known.
				s.procs[wpid] = &proc{id: -1, pid: wpid, parked: true}
				continue
			}
			if err := s.handleStop(p, ws); err != nil {
				return s.rootExit, err
			}
		}
	}
	return s.rootExit, nil
}

func (s *ptraceSupervisor) handleExit(wpid int, p *proc, code int) error {
	if p != nil {
		delete(s.procs, wpid)
	}
	if p == nil || p.id < 0 {
		// Died before its fork notification; recorded once the event links it.
		s.deadEarly[wpid] = code
		return nil
	}
	if wpid == int(s.rootPid.Load()) {
		s.rootExit = code
	}
	log.Debug("tracee exited", "pid", wpid, "exitcode", code)
	return s.sink.UpdateExit(p.id, code)
}

func (s *ptraceSupervisor) handleStop(p *proc, ws unix.WaitStatus) error {
	sig := ws.StopSignal()
	switch {
	case sig == syscallStopSig:
		if err := s.ic.handleSyscallStop(p); err != nil {
			return err
		}
		s.resume(p, 0)

	case sig == unix.SIGTRAP:
		switch ws.TrapCause() {
		case unix.PTRACE_EVENT_FORK, unix.PTRACE_EVENT_VFORK, unix.PTRACE_EVENT_CLONE:
			msg, err := unix.PtraceGetEventMsg(p.pid)
			if err != nil {
				log.Debug("fork event without child pid", "pid", p.pid, "error", err)
			} else if err := s.adopt(p, int(msg)); err != nil {
				return err
			}
			s.resume(p, 0)
		case unix.PTRACE_EVENT_EXEC:
			if err := s.handleExecEvent(p); err != nil {
				return err
			}
			s.resume(p, 0)
		default:
			s.resume(p, 0)
		}

	case sig == unix.SIGSTOP && p.newborn:
		// The attach stop of a freshly-cloned child; not a real signal.
		p.newborn = false
		s.resume(p, 0)

	default:
		// A signal destined for the traced program. Forward unmodified so
		// its own signal handling is unaffected.
		s.resume(p, int(sig))
	}
	return nil
}

// adopt registers a new tracee reported by its parent's fork notification.
func (s *ptraceSupervisor) adopt(parent *proc, childPid int) error {
	ts := now()
	id, err := s.sink.RecordProcess(&parent.id, ts)
	if err != nil {
		return err
	}
	log.Debug("new tracee", "pid", childPid, "parent", parent.pid, "id", id)

	// The clone flags captured at the parent's syscall entry decide what
	// the child shares with it rather than copies.
	var flags uint64
	if parent.pend != nil && parent.pend.spec.Class == syscalls.ClassFork {
		flags = parent.pend.flags
	}
	fs := &fsState{cwd: parent.fs.cwd}
	if flags&unix.CLONE_FS != 0 {
		fs = parent.fs
	}
	fds := copyFDs(parent.fds)
	if flags&unix.CLONE_FILES != 0 {
		fds = parent.fds
	}

	if code, ok := s.deadEarly[childPid]; ok {
		// Reaped before we could even see it run.
		delete(s.deadEarly, childPid)
		return s.sink.UpdateExit(id, code)
	}

	if child, ok := s.procs[childPid]; ok && child.parked {
		child.id = id
		child.fs = fs
		child.fds = fds
		child.parked = false
		s.resume(child, 0)
		return nil
	}

	s.procs[childPid] = &proc{id: id, pid: childPid, fs: fs, fds: fds, newborn: true}
	return nil
}

// handleExecEvent records the image replacement of an existing tracee. No
// new process row is created: exec replaces the image of the current one.
func (s *ptraceSupervisor) handleExecEvent(p *proc) error {
	ts := now()
	var name string
	var argv []string
	if p.pend != nil && p.pend.spec.Class == syscalls.ClassExec {
		name = p.pend.execPath
		argv = p.pend.argv
	} else {
		// Exec without a captured entry, e.g. reported on a thread-group
		// leader whose sibling made the call. Best effort from /proc.
		if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", p.pid)); err == nil {
			name = exe
		}
		if data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", p.pid)); err == nil {
			argv = store.SplitArgv(string(data))
		}
	}
	if name == "" {
		log.Debug("exec event with unknown image", "pid", p.pid)
		return nil
	}

	if err := s.sink.RecordExec(name, ts, p.id, argv); err != nil {
		return err
	}
	if err := s.sink.RecordOpen(p.fs.cwd, ts, int(syscalls.ModeWorkingDir), p.id); err != nil {
		return err
	}

	// Close-on-exec descriptors do not survive the new image.
	for fd, info := range p.fds {
		if info.cloexec {
			delete(p.fds, fd)
		}
	}
	return nil
}

// resume lets a stopped tracee run to its next syscall boundary, delivering
// sig if nonzero.
func (s *ptraceSupervisor) resume(p *proc, sig int) {
	if err := unix.PtraceSyscall(p.pid, sig); err != nil && err != unix.ESRCH {
		log.Debug("resuming tracee", "pid", p.pid, "error", err)
	}
}

func (s *ptraceSupervisor) killAll() {
	if pid := s.rootPid.Load(); pid > 0 {
		unix.Kill(-int(pid), unix.SIGKILL)
	}
	for pid := range s.procs {
		unix.Kill(pid, unix.SIGKILL)
	}
}

// drain reaps whatever remains after killAll so no zombies outlive the trace.
func (s *ptraceSupervisor) drain() {
	var ws unix.WaitStatus
	for {
		if _, err := unix.Wait4(-1, &ws, 0, nil); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
	}
}
