package tracer

import "golang.org/x/sys/unix"

// x86_64 syscall ABI: number in orig_rax, arguments in rdi/rsi/rdx/r10/r8/r9,
// return value in rax (negative errno on failure).
func decodeRegs(r *unix.PtraceRegs) (nr uint64, args [6]uint64, ret int64) {
	return r.Orig_rax,
		[6]uint64{r.Rdi, r.Rsi, r.Rdx, r.R10, r.R8, r.R9},
		int64(r.Rax)
}
