// Package panicdump implements the kernel's fatal-trap reporter: it logs
// the full M-mode CSR set and, where the faulting instruction can be
// read back out of mapped memory, its disassembly, then halts.
//
// Grounded on original_source/src/main.rs's panic handler, which dumps
// mstatus/mie/mip/mcause/mtval/mepc via serial_debug! before looping
// forever. The instruction disassembly is new: golang.org/x/arch's
// riscv64asm decoder, the rest of the pack's own choice for reading
// RISC-V machine code, gives the dump a line a bare register printout
// can't: what instruction actually faulted.
package panicdump

import (
	"golang.org/x/arch/riscv64/riscv64asm"

	"rvos/riscvcpu"
	"rvos/uart"
)

// InstructionReader reads len(buf) bytes of text memory starting at
// vaddr into buf, returning false if vaddr isn't mapped or readable.
// The boot path supplies this as a thin wrapper over pagetable.Translate
// plus a raw memory read; panicdump itself never touches page tables.
type InstructionReader func(vaddr uint64, buf []byte) bool

// Dump logs the full M-mode CSR set, attempts to disassemble the
// instruction at mepc via read, and halts. It is installed as
// trapentry's fatal handler at boot via trapentry.SetFatalHandler.
func Dump(cause riscvcpu.Cause, read InstructionReader) {
	mstatus := riscvcpu.ReadMstatus()
	mie := riscvcpu.ReadMie()
	mip := riscvcpu.ReadMip()
	mepc := riscvcpu.ReadMepc()
	mtval := riscvcpu.ReadMtval()

	uart.Default.Errorf("kernel panic: cause=%v", cause)
	uart.Default.Debugf("mstatus=%+v", mstatus)
	uart.Default.Debugf("mie=%+v", mie)
	uart.Default.Debugf("mip=%+v", mip)
	uart.Default.Debugf("mepc=0x%x", mepc)
	uart.Default.Debugf("mtval=0x%x", mtval)

	if read != nil {
		var buf [4]byte
		if read(mepc, buf[:]) {
			if inst, err := riscv64asm.Decode(buf[:]); err == nil {
				uart.Default.Debugf("faulting instruction: %s", inst.String())
			} else {
				uart.Default.Debugf("faulting instruction: undecodable (%v)", err)
			}
		} else {
			uart.Default.Debugf("faulting instruction: mepc not readable")
		}
	}

	halt()
}

// halt spins forever; there is no unwinding from a fatal trap.
func halt() {
	for {
	}
}
