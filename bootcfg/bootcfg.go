// Package bootcfg collects the kernel's compile-time boot constants:
// the fixed task count, the user text load address, the preemption
// quantum, and the MMIO addresses the boot path wires together. These
// mirror the const declarations scattered across the original's
// hal-riscv and kernel crates, gathered into one place the way the
// teacher's defs package centralizes its own magic numbers.
package bootcfg

import "rvos/mem"

const (
	// NTasks is the fixed size of the scheduler's task table.
	NTasks = 3

	// Quantum is the default cycle count added to mtime to arm the
	// next preemption.
	Quantum = 10_000_000

	// TaskBeginVaddr is the user virtual address the extracted .text
	// section is mapped at.
	TaskBeginVaddr = mem.Va_t(0x20_00000000)

	// TaskRegionSize is the size of the identity-independent mapping
	// installed for user .text, 1 MiB.
	TaskRegionSize = 1 << 20

	// UARTMMIOPhys is the physical address of the 16550-compatible
	// UART transmit register.
	UARTMMIOPhys = mem.Pa_t(0x10000000)

	// SatpModeSv39 is the mode field written into satp to select Sv39
	// paging.
	SatpModeSv39 = 8
)
