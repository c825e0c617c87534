// Package boot implements the two-stage bring-up this kernel follows:
// Kinit in M-mode configures delegation and mstatus then hands off to
// Main in S-mode, which builds the heap, the root page table, and the
// fixed task table before handing control to the user program via the
// SModeFinishBootstrap ecall. This is the orchestration layer; every
// subsystem it wires together (mem, buddy, galloc, pagetable, sched,
// riscvcpu, timer, ecall, elfuser, trapentry, panicdump) is implemented
// elsewhere. Main also installs trapentry's fatal-trap handler once the
// root page table exists, wiring it to panicdump.Dump with an
// instruction reader backed by that table.
//
// Kinit calling Main as a direct Go call rather than an actual mret into
// a lower privilege mode is this package's one deliberate simplification
// over original_source/src/main.rs: an mret is a hardware privilege
// transition, not something a portable Go call expresses, and the
// instruction itself only ever matters at the boundary the assembly
// trampoline in trapentry already owns. Kinit still performs every CSR
// write the original's kinit does before that handoff, except mepc,
// which only feeds the mret this direct call replaces.
package boot

import (
	"fmt"
	"unsafe"

	"rvos/bootcfg"
	"rvos/ecall"
	"rvos/elfuser"
	"rvos/galloc"
	"rvos/mem"
	"rvos/pagetable"
	"rvos/panicdump"
	"rvos/riscvcpu"
	"rvos/sched"
	"rvos/trapentry"
	"rvos/uart"
)

// Config bundles everything the boot path needs that can't be derived
// from bootcfg's compile-time constants: the linker layout and the raw
// bytes of the embedded user ELF image.
type Config struct {
	Layout     mem.LinkerSyms
	UserELF    []byte
	AllocStart mem.Pa_t
	AllocSize  int
	MinBlock   int
}

// Kinit runs the M-mode half of boot: delegate nothing (this kernel
// keeps both the timer and ecall traps in M-mode, per spec §4.4),
// install the M-mode trap vector, and hand off to Main.
func Kinit(cfg Config) {
	uart.Default.Infof("enter machine mode boot setup")

	mideleg := riscvcpu.Mideleg{}
	riscvcpu.WriteMideleg(mideleg)
	uart.Default.Debugf("mideleg=%+v", mideleg)

	medeleg := riscvcpu.Medeleg{}
	riscvcpu.WriteMedeleg(medeleg)
	uart.Default.Debugf("medeleg=%+v", medeleg)

	status := riscvcpu.Mstatus{MPP: 1, FS: 1} // MPP=S: the mode Main itself expects to run in
	riscvcpu.WriteMstatus(status)
	uart.Default.Debugf("mstatus=%+v", status)

	mtvecWrite(trapentry.VectorAddr())
	uart.Default.Debugf("mtvec <- 0x%x", trapentry.VectorAddr())

	Main(cfg)
}

// Main runs the S-mode half of boot: builds the heap allocator, the root
// page table, identity-maps every kernel region the linker reports, maps
// the user program and UART MMIO at their user-facing addresses, enables
// Sv39, and issues the ecall that completes bootstrap. It never returns
// in the normal case — execution continues in the M-mode ecall handler
// and then in U-mode.
func Main(cfg Config) {
	uart.Default.Infof("enter supervisor mode boot setup")

	mem.Init(cfg.Layout)
	galloc.Init(cfg.AllocStart, cfg.AllocSize, cfg.MinBlock)

	root, rootPA, err := pagetable.NewRoot()
	if err != nil {
		fatal(fmt.Errorf("boot: allocating root page table: %w", err))
		return
	}

	if err := identityMapKernel(root, cfg.Layout); err != nil {
		fatal(err)
		return
	}

	if err := mapUserProgram(root, cfg.UserELF); err != nil {
		fatal(err)
		return
	}

	trapentry.SetFatalHandler(func(cause riscvcpu.Cause) {
		panicdump.Dump(cause, instructionReader(root))
	})

	uartUserVA := bootcfg.TaskBeginVaddr + mem.Va_t(bootcfg.TaskRegionSize)
	if err := pagetable.Map(root, uartUserVA, bootcfg.UARTMMIOPhys, pagetable.RWU); err != nil {
		fatal(fmt.Errorf("boot: mapping UART for user access: %w", err))
		return
	}

	riscvcpu.WriteSatp(bootcfg.SatpModeSv39, uint64(rootPA))

	uart.Default.Infof("issuing SModeFinishBootstrap")
	ecall.IssueSModeFinishBootstrap()

	// Unreachable: the ecall traps to M-mode, which mret's straight
	// into U-mode and never returns control to this function.
	for {
	}
}

func identityMapKernel(root *pagetable.Table, l mem.LinkerSyms) error {
	regions := []struct {
		name       string
		start, end mem.Pa_t
		flags      pagetable.Flags
	}{
		{"text", l.TextStart, l.TextEnd, pagetable.RWX},
		{"rodata", l.RodataStart, l.RodataEnd, pagetable.RWX},
		{"data", l.DataStart, l.DataEnd, pagetable.RW},
		{"bss", l.BssStart, l.BssEnd, pagetable.RW},
		{"kstack", l.KstackStart, l.KstackEnd, pagetable.RW},
		{"heap", l.HeapStart, l.HeapStart + mem.Pa_t(l.HeapSize), pagetable.RW},
		{"alloc", l.AllocStart, l.AllocStart + mem.Pa_t(l.AllocSize), pagetable.RW},
		{"uart", bootcfg.UARTMMIOPhys, bootcfg.UARTMMIOPhys + mem.Pa_t(mem.PGSIZE), pagetable.RW},
	}

	for _, r := range regions {
		uart.Default.Debugf("identity-mapping %s [0x%x,0x%x) (%s) flags=%v",
			r.name, r.start, r.end, uart.Sizef(int(r.end-r.start)), r.flags)
		if err := pagetable.IdMapRange(root, mem.Va_t(r.start), mem.Va_t(r.end), r.flags); err != nil {
			return fmt.Errorf("boot: identity-mapping %s: %w", r.name, err)
		}
	}
	return nil
}

func mapUserProgram(root *pagetable.Table, userELF []byte) error {
	text, err := elfuser.ExtractText(userELF)
	if err != nil {
		return fmt.Errorf("boot: extracting user .text: %w", err)
	}

	buf, err := copyToHeap(text)
	if err != nil {
		return fmt.Errorf("boot: copying user .text to heap: %w", err)
	}

	start := bootcfg.TaskBeginVaddr
	end := start + mem.Va_t(bootcfg.TaskRegionSize)
	for _, page := range pagetable.PageRange(start, end-mem.Va_t(mem.PGSIZE)) {
		offset := mem.Pa_t(page - start)
		if err := pagetable.Map(root, page, buf+offset, pagetable.RWXU); err != nil {
			return fmt.Errorf("boot: mapping user page 0x%x: %w", page, err)
		}
	}

	tasks := make([]sched.Task, bootcfg.NTasks)
	for i := range tasks {
		tasks[i] = sched.NewTask(i, uint64(start))
	}
	sched.Init(tasks)

	return nil
}

// copyToHeap allocates heap pages enough to hold text and copies it in,
// returning the physical address of the first page.
func copyToHeap(text []byte) (mem.Pa_t, error) {
	npages := (len(text) + mem.PGSIZE - 1) / mem.PGSIZE
	if npages == 0 {
		npages = 1
	}

	first, err := galloc.Global.AllocPage()
	if err != nil {
		return 0, err
	}
	for i := 1; i < npages; i++ {
		if _, err := galloc.Global.AllocPage(); err != nil {
			return 0, err
		}
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(first))), npages*mem.PGSIZE)
	copy(dst, text)
	return first, nil
}

// fatal reports a boot-time setup failure (not a CPU trap — there is no
// meaningful mcause yet) through the same CSR-dump-and-halt path a
// runtime trap uses, so a failed boot leaves the same diagnostic trail.
func fatal(err error) {
	uart.Default.Errorf("boot: %v", err)
	panicdump.Dump(riscvcpu.Cause{}, nil)
}

// instructionReader builds a panicdump.InstructionReader backed by this
// boot's root page table, letting a fatal trap's CSR dump also show the
// faulting instruction whenever mepc happens to fall in mapped memory.
func instructionReader(root *pagetable.Table) panicdump.InstructionReader {
	return func(vaddr uint64, buf []byte) bool {
		frame, ok := pagetable.Translate(root, mem.Va_t(vaddr))
		if !ok {
			return false
		}
		pa := frame + mem.Pa_t(vaddr)&mem.PGOFFSET
		src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(pa))), len(buf))
		copy(buf, src)
		return true
	}
}

// mtvecWrite is implemented in boot_riscv64.s.

//go:linkname mtvecWrite mtvecWrite
//go:nosplit
func mtvecWrite(addr uintptr)
