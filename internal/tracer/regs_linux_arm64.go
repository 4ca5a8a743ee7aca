package tracer

import "golang.org/x/sys/unix"

// arm64 syscall ABI: number in x8, arguments in x0-x5, return value in x0
// (negative errno on failure). x8 is read at the entry stop, before the
// kernel can clobber anything.
func decodeRegs(r *unix.PtraceRegs) (nr uint64, args [6]uint64, ret int64) {
	return r.Regs[8],
		[6]uint64{r.Regs[0], r.Regs[1], r.Regs[2], r.Regs[3], r.Regs[4], r.Regs[5]},
		int64(r.Regs[0])
}
