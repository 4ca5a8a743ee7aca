//go:build linux && (amd64 || arm64)

package tracer

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/retracehq/retrace/internal/log"
	"github.com/retracehq/retrace/internal/resolve"
	"github.com/retracehq/retrace/internal/syscalls"
)

// interceptor turns raw syscall stops into provenance events and keeps each
// process's shadow working directory and descriptor table current. It is
// invoked synchronously on the control thread and borrows the proc only for
// the duration of one stop.
type interceptor struct {
	sink Sink
}

// handleSyscallStop is called at both syscall boundaries; the entry/exit
// toggle lives on the process since the kernel does not label the two stops.
func (ic *interceptor) handleSyscallStop(p *proc) error {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(p.pid, &regs); err != nil {
		// Tracee died under us; the exit event is on its way.
		log.Debug("reading registers", "pid", p.pid, "error", err)
		return nil
	}
	nr, args, ret := decodeRegs(&regs)

	if !p.inSyscall {
		p.inSyscall = true
		ic.onEntry(p, nr, args)
		return nil
	}
	p.inSyscall = false
	return ic.onExit(p, ret)
}

// onEntry snapshots everything the exit handler will need: argument
// registers, tracee-memory strings, and path resolutions against the shadow
// state as it stands right now.
func (ic *interceptor) onEntry(p *proc, nr uint64, args [6]uint64) {
	p.pend = nil

	spec, ok := syscalls.Lookup(nr)
	if !ok {
		// Not provenance-relevant (or genuinely unknown); never stops the trace.
		return
	}

	pend := &pending{nr: nr, spec: spec}
	switch spec.Class {
	case syscalls.ClassOpen, syscalls.ClassStat, syscalls.ClassReadlink,
		syscalls.ClassChdir, syscalls.ClassUnlink, syscalls.ClassCreate:
		res, ok := ic.resolveArg(p, spec, args, spec.PathArg, spec.DirfdArg)
		if !ok {
			return
		}
		pend.path = res
		pend.mode = spec.Mode
		if spec.Class == syscalls.ClassOpen && spec.FlagsArg >= 0 {
			flags := args[spec.FlagsArg]
			pend.mode = syscalls.OpenMode(flags)
			pend.cloexec = flags&unix.O_CLOEXEC != 0
		}
		if spec.Class == syscalls.ClassUnlink && spec.FlagsArg >= 0 &&
			args[spec.FlagsArg]&unix.AT_REMOVEDIR != 0 {
			pend.mode |= syscalls.ModeWorkingDir
		}

	case syscalls.ClassRename:
		res, ok := ic.resolveArg(p, spec, args, spec.PathArg, spec.DirfdArg)
		if !ok {
			return
		}
		res2, ok := ic.resolveArg(p, spec, args, spec.Path2Arg, spec.Dirfd2Av)
		if !ok {
			return
		}
		pend.path = res
		pend.path2 = res2

	case syscalls.ClassExec:
		res, ok := ic.resolveArg(p, spec, args, spec.PathArg, spec.DirfdArg)
		if !ok {
			return
		}
		pend.execPath = res.Path
		argv, err := readStringArray(p.pid, uintptr(args[spec.PathArg+1]))
		if err != nil {
			log.Debug("reading argv", "pid", p.pid, "syscall", spec.Name, "error", err)
		}
		pend.argv = argv

	case syscalls.ClassFchdir, syscalls.ClassClose:
		pend.fd = int(args[spec.DirfdArg])

	case syscalls.ClassDup:
		if spec.Name == "fcntl" {
			cmd := args[spec.FlagsArg]
			if cmd != unix.F_DUPFD && cmd != unix.F_DUPFD_CLOEXEC {
				return
			}
			pend.cloexec = cmd == unix.F_DUPFD_CLOEXEC
		} else if spec.FlagsArg >= 0 {
			pend.cloexec = args[spec.FlagsArg]&unix.O_CLOEXEC != 0
		}
		pend.fd = int(args[spec.DirfdArg])

	case syscalls.ClassFork:
		if spec.FlagsArg >= 0 {
			pend.flags = args[spec.FlagsArg]
		}

	case syscalls.ClassExit:
		// Termination is recorded from the wait status, not from here.
		return
	}

	p.pend = pend
}

// onExit completes the pending syscall using its return value. Events are
// only emitted for successful calls: failed accesses are not provenance.
func (ic *interceptor) onExit(p *proc, ret int64) error {
	pend := p.pend
	p.pend = nil
	if pend == nil {
		return nil
	}
	ts := now()

	switch pend.spec.Class {
	case syscalls.ClassOpen:
		if ret < 0 {
			return nil
		}
		if err := ic.emit(p, pend.path, ts, pend.mode); err != nil {
			return err
		}
		p.fds[int(ret)] = fdInfo{path: pend.path.Path, cloexec: pend.cloexec}

	case syscalls.ClassStat, syscalls.ClassReadlink, syscalls.ClassCreate:
		if ret < 0 {
			return nil
		}
		return ic.emit(p, pend.path, ts, pend.mode)

	case syscalls.ClassUnlink:
		if ret < 0 {
			return nil
		}
		return ic.emit(p, pend.path, ts, pend.mode)

	case syscalls.ClassRename:
		if ret < 0 {
			return nil
		}
		if err := ic.emit(p, pend.path, ts, syscalls.ModeDelete); err != nil {
			return err
		}
		return ic.emit(p, pend.path2, ts, syscalls.ModeWrite)

	case syscalls.ClassChdir:
		if ret < 0 {
			return nil
		}
		p.fs.cwd = pend.path.Path
		return ic.emit(p, pend.path, ts, syscalls.ModeWorkingDir)

	case syscalls.ClassFchdir:
		if ret < 0 {
			return nil
		}
		if info, ok := p.fds[pend.fd]; ok {
			p.fs.cwd = info.path
			return ic.emit(p, resolve.Resolution{Path: info.path}, ts, syscalls.ModeWorkingDir)
		}
		// Untracked descriptor: the process is stopped with the change
		// already applied, so /proc has the authoritative answer.
		if cwd, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", p.pid)); err == nil {
			p.fs.cwd = cwd
			return ic.emit(p, resolve.Resolution{Path: cwd, LowConfidence: true}, ts, syscalls.ModeWorkingDir)
		}
		log.Debug("fchdir on unknown descriptor", "pid", p.pid, "fd", pend.fd)

	case syscalls.ClassDup:
		if ret < 0 {
			return nil
		}
		// dup2/dup3 implicitly close the target; an untracked source must
		// not leave the target's stale entry behind. dup2 with equal
		// descriptors closes nothing.
		if int(ret) != pend.fd {
			delete(p.fds, int(ret))
		}
		if info, ok := p.fds[pend.fd]; ok {
			p.fds[int(ret)] = fdInfo{path: info.path, cloexec: pend.cloexec}
		}

	case syscalls.ClassClose:
		if ret < 0 {
			return nil
		}
		delete(p.fds, pend.fd)

	case syscalls.ClassExec:
		// Success was already handled at the exec notification; a failed
		// exec leaves no trace.
	}
	return nil
}

// resolveArg reads and resolves one path argument. A false result means the
// event is dropped (unreadable memory or unresolvable path), never that the
// trace stops.
func (ic *interceptor) resolveArg(p *proc, spec syscalls.Spec, args [6]uint64, pathArg, dirfdArg int) (resolve.Resolution, bool) {
	raw, err := readString(p.pid, uintptr(args[pathArg]))
	if err != nil {
		log.Debug("reading path argument", "pid", p.pid, "syscall", spec.Name, "error", err)
		return resolve.Resolution{}, false
	}

	dirfd := unix.AT_FDCWD
	if dirfdArg >= 0 {
		dirfd = int(int32(args[dirfdArg]))
	}

	res, err := resolve.Resolve(raw, dirfd, p.fs.cwd, p.fdPaths(), p.pid)
	if err != nil {
		if !errors.Is(err, resolve.ErrUnresolvable) {
			log.Warn("path resolution", "pid", p.pid, "syscall", spec.Name, "error", err)
		} else {
			log.Debug("dropping unresolvable path", "pid", p.pid, "syscall", spec.Name, "path", raw)
		}
		return resolve.Resolution{}, false
	}
	return res, true
}

func (ic *interceptor) emit(p *proc, res resolve.Resolution, ts int64, mode syscalls.FileMode) error {
	if res.LowConfidence {
		log.Debug("low-confidence path", "pid", p.pid, "path", res.Path)
	}
	return ic.sink.RecordOpen(res.Path, ts, int(mode), p.id)
}
