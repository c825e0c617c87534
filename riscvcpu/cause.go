package riscvcpu

import "fmt"

// Interrupt is the low nibble of mcause when its top bit is set,
// matching hal-riscv/src/cpu.rs's Interrupt::from<u8>.
type Interrupt uint8

const (
	SupervisorSoftware Interrupt = 1
	MachineSoftware    Interrupt = 3
	SupervisorTimer    Interrupt = 5
	MachineTimer       Interrupt = 7
	SupervisorExternal Interrupt = 9
	MachineExternal    Interrupt = 11
)

func (i Interrupt) String() string {
	switch i {
	case SupervisorSoftware:
		return "SupervisorSoftware"
	case MachineSoftware:
		return "MachineSoftware"
	case SupervisorTimer:
		return "SupervisorTimer"
	case MachineTimer:
		return "MachineTimer"
	case SupervisorExternal:
		return "SupervisorExternal"
	case MachineExternal:
		return "MachineExternal"
	default:
		return fmt.Sprintf("Interrupt(%d)", uint8(i))
	}
}

// Exception is the low nibble of mcause when its top bit is clear.
type Exception uint8

const (
	InstructionMisaligned Exception = 0
	InstructionFault      Exception = 1
	IllegalInstruction    Exception = 2
	Breakpoint            Exception = 3
	LoadMisaligned        Exception = 4
	LoadFault             Exception = 5
	StoreMisaligned       Exception = 6
	StoreFault            Exception = 7
	UserEcall             Exception = 8
	SupervisorEcall       Exception = 9
	InstructionPageFault  Exception = 12
	LoadPageFault         Exception = 13
	StorePageFault        Exception = 15
)

func (e Exception) String() string {
	switch e {
	case InstructionMisaligned:
		return "InstructionMisaligned"
	case InstructionFault:
		return "InstructionFault"
	case IllegalInstruction:
		return "IllegalInstruction"
	case Breakpoint:
		return "Breakpoint"
	case LoadMisaligned:
		return "LoadMisaligned"
	case LoadFault:
		return "LoadFault"
	case StoreMisaligned:
		return "StoreMisaligned"
	case StoreFault:
		return "StoreFault"
	case UserEcall:
		return "UserEcall"
	case SupervisorEcall:
		return "SupervisorEcall"
	case InstructionPageFault:
		return "InstructionPageFault"
	case LoadPageFault:
		return "LoadPageFault"
	case StorePageFault:
		return "StorePageFault"
	default:
		return fmt.Sprintf("Exception(%d)", uint8(e))
	}
}

// Cause decodes mcause: the top bit of a 64-bit mcause distinguishes an
// interrupt from a synchronous exception, and the remaining bits are the
// numeric code within that class.
type Cause struct {
	IsInterrupt bool
	Interrupt   Interrupt
	Exception   Exception
}

// DecodeCause splits a raw mcause value per the RISC-V privileged spec:
// bit 63 is the interrupt flag, bits 0-62 are the cause code.
func DecodeCause(mcause uint64) Cause {
	isInterrupt := mcause>>63 == 1
	code := uint8(mcause &^ (1 << 63))
	if isInterrupt {
		return Cause{IsInterrupt: true, Interrupt: Interrupt(code)}
	}
	return Cause{Exception: Exception(code)}
}

func (c Cause) String() string {
	if c.IsInterrupt {
		return c.Interrupt.String()
	}
	return c.Exception.String()
}
