// Package trapentry wires the M-mode trap vector to the scheduler and
// ecall dispatch: on every trap the hand-written assembly trampoline in
// mtrap_riscv64.s saves the interrupted task's registers into its
// Trapframe (by the exact byte offsets sched.Trapframe's init() asserts),
// calls into Dispatch, then restores the frame the dispatcher selected
// and mret's back into it.
//
// Grounded on spec §4.4's trap-dispatch table and on
// original_source/src/trap.rs's Scheduler/Task shape, translated from a
// software context switch into the hardware trap path this kernel
// actually uses.
package trapentry

import (
	"fmt"
	"unsafe"

	"rvos/bootcfg"
	"rvos/ecall"
	"rvos/riscvcpu"
	"rvos/sched"
	"rvos/timer"
	"rvos/uart"
)

// mtrapVector is the M-mode trap entry point, implemented in
// mtrap_riscv64.s. It is never called directly from Go; boot reads its
// address to program mtvec.
func mtrapVector()

// VectorAddr returns the address the boot path must write into mtvec.
// Reading a func value's code pointer this way works for any top-level,
// non-closure Go function and is the same trick the runtime itself uses
// internally to obtain a PC from a func value.
func VectorAddr() uintptr {
	return **(**uintptr)(unsafe.Pointer(&mtrapVector))
}

// Dispatch is called by the assembly trampoline after it has saved the
// trapping task's registers into tasks[current]'s Trapframe (on the very
// first trap there is no frame and nothing is saved). mepc is not stored
// in the frame; handlers read it from the CSR. Dispatch classifies the
// cause and returns the Trapframe the trampoline should restore before
// mret.
//
//go:nosplit
func Dispatch() *sched.Trapframe {
	cause := riscvcpu.DecodeCause(riscvcpu.ReadMcause())

	if cause.IsInterrupt {
		if cause.Interrupt == riscvcpu.MachineTimer {
			return handleTimer()
		}
		panic(fmt.Sprintf("trapentry: unexpected interrupt %v", cause.Interrupt))
	}

	switch cause.Exception {
	case riscvcpu.SupervisorEcall:
		return handleSupervisorEcall()
	case riscvcpu.UserEcall:
		return handleUserEcall()
	default:
		panicdumpAndHalt(cause)
		panic("unreachable") // panicdumpAndHalt never returns
	}
}

// handleTimer implements the timer handler: rearm mtimecmp, save the
// preempted task's pc (its registers were already spilled straight into
// tasks[current].TrapFrame by the trampoline, which addresses that
// struct through mscratch), rotate to the next task, and hand back its
// frame for the trampoline to restore and point mscratch at.
func handleTimer() *sched.Trapframe {
	timer.Arm()
	sched.Global.SaveState(riscvcpu.ReadMepc())

	_, next := sched.Global.Next()
	riscvcpu.WriteMepc(next.PC)
	mscratch_write(&next.TrapFrame)
	return &next.TrapFrame
}

// handleSupervisorEcall dispatches the kernel's own ecall sub-handler:
// SModeFinishBootstrap arms the timer and drops into task 0; any other
// code reaching S-mode is a kernel bug.
func handleSupervisorEcall() *sched.Trapframe {
	call := ecall.Read()
	switch call.Number {
	case ecall.SModeFinishBootstrap:
		return finishBootstrap()
	default:
		panic(fmt.Sprintf("trapentry: unexpected supervisor ecall %v", call.Number))
	}
}

// handleUserEcall treats the caller as completed: its slot is restarted
// from TASK_BEGIN_VADDR with a fresh frame, per spec §4.4.
func handleUserEcall() *sched.Trapframe {
	idx := sched.Global.Current()
	restarted := sched.NewTask(idx, uint64(bootcfg.TaskBeginVaddr))
	*sched.Global.Task(idx) = restarted
	riscvcpu.WriteMepc(restarted.PC)
	mscratch_write(&sched.Global.Task(idx).TrapFrame)
	return &sched.Global.Task(idx).TrapFrame
}

// finishBootstrap arms mtie, sets mstatus for U-mode entry with
// interrupts enabled on return, and selects task 0's frame.
func finishBootstrap() *sched.Trapframe {
	mie := riscvcpu.ReadMie()
	mie.MTIE = 1
	riscvcpu.WriteMie(mie)

	status := riscvcpu.ReadMstatus()
	status.MPP = 0 // U
	status.MPIE = 1
	status.FS = 1
	riscvcpu.WriteMstatus(status)

	timer.Arm()

	task0 := sched.Global.Task(0)
	riscvcpu.WriteMepc(task0.PC)
	mscratch_write(&task0.TrapFrame)
	return &task0.TrapFrame
}

// panicdumpAndHalt calls fatalHandler and hangs. boot.Main replaces
// fatalHandler via SetFatalHandler with one that calls panicdump.Dump;
// the default prints the bare cause, so the trap path never silently
// returns into nothing even before boot wires the full dump in.
func panicdumpAndHalt(cause riscvcpu.Cause) {
	fatalHandler(cause)
	for {
	}
}

var fatalHandler = func(cause riscvcpu.Cause) {
	uart.Default.Errorf("trapentry: fatal trap, cause=%v mepc=0x%x mtval=0x%x",
		cause, riscvcpu.ReadMepc(), riscvcpu.ReadMtval())
}

// SetFatalHandler installs the kernel's fatal-trap reporter (wired to
// panicdump.Dump at boot). Exists so boot can wire panicdump in without
// trapentry importing panicdump.
func SetFatalHandler(h func(cause riscvcpu.Cause)) {
	fatalHandler = h
}

// mscratch_write points mscratch at frame, so the next trap entry's
// trampoline addresses the right task's register block without the Go
// dispatcher running first. Implemented in mtrap_riscv64.s.
//
//go:linkname mscratch_write mscratch_write
//go:nosplit
func mscratch_write(frame *sched.Trapframe)
