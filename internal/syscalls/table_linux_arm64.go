package syscalls

import "golang.org/x/sys/unix"

// arm64 uses the generic syscall table: only the descriptor-anchored "at"
// forms exist, and process creation is always clone.
var table = map[uint64]Spec{
	unix.SYS_OPENAT: {Name: "openat", Class: ClassOpen, PathArg: 1, DirfdArg: 0, FlagsArg: 2, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_NEWFSTATAT: {Name: "newfstatat", Class: ClassStat, Mode: ModeStat, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_FACCESSAT:  {Name: "faccessat", Class: ClassStat, Mode: ModeStat, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_FACCESSAT2: {Name: "faccessat2", Class: ClassStat, Mode: ModeStat, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_STATX:      {Name: "statx", Class: ClassStat, Mode: ModeStat, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_READLINKAT: {Name: "readlinkat", Class: ClassReadlink, Mode: ModeLink, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_EXECVE:   {Name: "execve", Class: ClassExec, PathArg: 0, DirfdArg: -1, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_EXECVEAT: {Name: "execveat", Class: ClassExec, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_CHDIR:  {Name: "chdir", Class: ClassChdir, Mode: ModeWorkingDir, PathArg: 0, DirfdArg: -1, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_FCHDIR: {Name: "fchdir", Class: ClassFchdir, PathArg: -1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_DUP:   {Name: "dup", Class: ClassDup, PathArg: -1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_DUP3:  {Name: "dup3", Class: ClassDup, PathArg: -1, DirfdArg: 0, FlagsArg: 2, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_FCNTL: {Name: "fcntl", Class: ClassDup, PathArg: -1, DirfdArg: 0, FlagsArg: 1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_CLOSE: {Name: "close", Class: ClassClose, PathArg: -1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_UNLINKAT: {Name: "unlinkat", Class: ClassUnlink, Mode: ModeDelete, PathArg: 1, DirfdArg: 0, FlagsArg: 2, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_RENAMEAT:  {Name: "renameat", Class: ClassRename, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: 3, Dirfd2Av: 2},
	unix.SYS_RENAMEAT2: {Name: "renameat2", Class: ClassRename, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: 3, Dirfd2Av: 2},

	unix.SYS_MKDIRAT:   {Name: "mkdirat", Class: ClassCreate, Mode: ModeWrite | ModeWorkingDir, PathArg: 1, DirfdArg: 0, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_SYMLINKAT: {Name: "symlinkat", Class: ClassCreate, Mode: ModeWrite | ModeLink, PathArg: 2, DirfdArg: 1, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_LINKAT:    {Name: "linkat", Class: ClassCreate, Mode: ModeWrite | ModeLink, PathArg: 3, DirfdArg: 2, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_CLONE:  {Name: "clone", Class: ClassFork, PathArg: -1, DirfdArg: -1, FlagsArg: 0, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_CLONE3: {Name: "clone3", Class: ClassFork, PathArg: -1, DirfdArg: -1, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},

	unix.SYS_EXIT:       {Name: "exit", Class: ClassExit, PathArg: -1, DirfdArg: -1, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
	unix.SYS_EXIT_GROUP: {Name: "exit_group", Class: ClassExit, PathArg: -1, DirfdArg: -1, FlagsArg: -1, Path2Arg: -1, Dirfd2Av: -1},
}
