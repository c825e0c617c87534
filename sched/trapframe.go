// Package sched holds the per-task trap frame and the fixed-size
// round-robin scheduler that rotates among them. The trap frame's field
// order is not decorative: the hand-written save/restore assembly stubs
// in trapentry address it purely by byte offset (§6), so this file
// asserts every offset at program init instead of trusting the Go
// compiler's struct layout never to drift — the nearest a freestanding
// Go kernel gets to the teacher's own carefulness around unsafe-pointer
// layouts in mem.Pmap_t and mem.Bytepg_t.
package sched

import "unsafe"

// Trapframe is the saved register block of a preempted task: ra, sp,
// t0-t6, s0-s11, a0-a7, and a kernel_sp slot used to locate this task's
// kernel stack on the next trap entry. Field order and size fix the
// byte layout exactly as spec'd in §6; do not reorder without updating
// the offset table below and the assembly in trapentry.
type Trapframe struct {
	Ra uint64
	Sp uint64

	T0 uint64
	T1 uint64
	T2 uint64
	T3 uint64
	T4 uint64
	T5 uint64
	T6 uint64

	S0  uint64
	S1  uint64
	S2  uint64
	S3  uint64
	S4  uint64
	S5  uint64
	S6  uint64
	S7  uint64
	S8  uint64
	S9  uint64
	S10 uint64
	S11 uint64

	A0 uint64
	A1 uint64
	A2 uint64
	A3 uint64
	A4 uint64
	A5 uint64
	A6 uint64
	A7 uint64

	KernelSp uint64
}

// TrapframeSize is the size in bytes of the ABI-defined trap frame.
const TrapframeSize = unsafe.Sizeof(Trapframe{})

func init() {
	assertOffset("Ra", unsafe.Offsetof(Trapframe{}.Ra), 0)
	assertOffset("Sp", unsafe.Offsetof(Trapframe{}.Sp), 8)
	assertOffset("T0", unsafe.Offsetof(Trapframe{}.T0), 16)
	assertOffset("T1", unsafe.Offsetof(Trapframe{}.T1), 24)
	assertOffset("T2", unsafe.Offsetof(Trapframe{}.T2), 32)
	assertOffset("T3", unsafe.Offsetof(Trapframe{}.T3), 40)
	assertOffset("T4", unsafe.Offsetof(Trapframe{}.T4), 48)
	assertOffset("T5", unsafe.Offsetof(Trapframe{}.T5), 56)
	assertOffset("T6", unsafe.Offsetof(Trapframe{}.T6), 64)
	assertOffset("S0", unsafe.Offsetof(Trapframe{}.S0), 72)
	assertOffset("S1", unsafe.Offsetof(Trapframe{}.S1), 80)
	assertOffset("S2", unsafe.Offsetof(Trapframe{}.S2), 88)
	assertOffset("S3", unsafe.Offsetof(Trapframe{}.S3), 96)
	assertOffset("S4", unsafe.Offsetof(Trapframe{}.S4), 104)
	assertOffset("S5", unsafe.Offsetof(Trapframe{}.S5), 112)
	assertOffset("S6", unsafe.Offsetof(Trapframe{}.S6), 120)
	assertOffset("S7", unsafe.Offsetof(Trapframe{}.S7), 128)
	assertOffset("S8", unsafe.Offsetof(Trapframe{}.S8), 136)
	assertOffset("S9", unsafe.Offsetof(Trapframe{}.S9), 144)
	assertOffset("S10", unsafe.Offsetof(Trapframe{}.S10), 152)
	assertOffset("S11", unsafe.Offsetof(Trapframe{}.S11), 160)
	assertOffset("A0", unsafe.Offsetof(Trapframe{}.A0), 168)
	assertOffset("A1", unsafe.Offsetof(Trapframe{}.A1), 176)
	assertOffset("A2", unsafe.Offsetof(Trapframe{}.A2), 184)
	assertOffset("A3", unsafe.Offsetof(Trapframe{}.A3), 192)
	assertOffset("A4", unsafe.Offsetof(Trapframe{}.A4), 200)
	assertOffset("A5", unsafe.Offsetof(Trapframe{}.A5), 208)
	assertOffset("A6", unsafe.Offsetof(Trapframe{}.A6), 216)
	assertOffset("A7", unsafe.Offsetof(Trapframe{}.A7), 224)
	assertOffset("KernelSp", unsafe.Offsetof(Trapframe{}.KernelSp), 232)

	if TrapframeSize != 240 {
		panic("sched: Trapframe size drifted from the 240-byte ABI contract")
	}
}

func assertOffset(field string, got, want uintptr) {
	if got != want {
		panic("sched: Trapframe." + field + " offset drifted from the trap-entry ABI contract")
	}
}
