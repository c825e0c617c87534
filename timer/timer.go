// Package timer wraps the CLINT mtime/mtimecmp registers this kernel
// uses to arm machine-timer preemption, grounded on
// original_source/hal-riscv/src/timer.rs.
package timer

import _ "unsafe" // for go:linkname

const (
	mtimeAddr    = 0x0200BFF8
	mtimecmpAddr = 0x02004000
)

// Quantum is the default cycle count added to mtime to arm the next
// preemption, per spec §"Timer handler (M-mode)".
const Quantum = 10_000_000

//go:linkname clint_read_mtime clint_read_mtime
//go:nosplit
func clint_read_mtime(addr uint64) uint64

//go:linkname clint_write_mtimecmp clint_write_mtimecmp
//go:nosplit
func clint_write_mtimecmp(addr, value uint64)

// ReadMtime returns the current CLINT mtime counter value.
func ReadMtime() uint64 {
	return clint_read_mtime(mtimeAddr)
}

// WriteMtimecmp arms the next timer interrupt to fire when mtime reaches
// value.
func WriteMtimecmp(value uint64) {
	clint_write_mtimecmp(mtimecmpAddr, value)
}

// Arm reads the current mtime and schedules the next timer interrupt
// Quantum cycles later, per the timer handler's first step.
func Arm() {
	WriteMtimecmp(ReadMtime() + Quantum)
}
