// Package mem defines the address types and linker-provided memory layout
// shared by every other kernel package. Nothing in here touches hardware;
// it is the vocabulary the allocator, page-table engine, and boot glue
// share so physical and virtual addresses can never be mixed up by the
// type checker.
package mem

import "fmt"

// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

// PGSIZE is the size of a single 4 KiB page in bytes.
const PGSIZE int = 1 << PGSHIFT

// Pa_t is a physical address.
type Pa_t uintptr

// Va_t is a virtual address.
type Va_t uintptr

// PGOFFSET masks the in-page offset bits of an address.
const PGOFFSET Pa_t = Pa_t(PGSIZE) - 1

// PGMASK masks the page-aligned portion of an address.
const PGMASK Pa_t = ^PGOFFSET

// Pageroundup rounds a physical address up to the next page boundary.
func Pageroundup(p Pa_t) Pa_t {
	if p&PGOFFSET == 0 {
		return p
	}
	return (p & PGMASK) + Pa_t(PGSIZE)
}

// Pagerounddown rounds a physical address down to a page boundary.
func Pagerounddown(p Pa_t) Pa_t {
	return p & PGMASK
}

// LinkerSyms is the single table of linker-exported section boundaries
// and heap regions, populated once at boot (§6). Kernel logic must treat
// it as a read-only record after Init — never as a bag of mutable
// globals, per the spec's "Linker symbols" design note.
type LinkerSyms struct {
	TextStart, TextEnd     Pa_t
	RodataStart, RodataEnd Pa_t
	DataStart, DataEnd     Pa_t
	BssStart, BssEnd       Pa_t
	KstackStart, KstackEnd Pa_t
	HeapStart              Pa_t
	HeapSize               int
	AllocStart             Pa_t
	AllocSize              int
	MemStart, MemEnd       Pa_t
}

var (
	layout    LinkerSyms
	layoutSet bool
)

// Init records the linker-provided layout. Calling Init twice is a fatal
// programming error — the layout is a boot-time singleton like every
// other piece of kernel state derived from the linker script.
func Init(l LinkerSyms) {
	if layoutSet {
		panic("mem: linker layout already initialized")
	}
	layout = l
	layoutSet = true
}

// Layout returns the linker-provided memory layout. Panics if Init has
// not been called yet.
func Layout() LinkerSyms {
	if !layoutSet {
		panic("mem: linker layout not initialized")
	}
	return layout
}

// ResetForTesting discards the current singleton state so tests can call
// Init again in the same process. Production kernel code never calls
// this — Init is meant to run exactly once per boot.
func ResetForTesting() {
	layout = LinkerSyms{}
	layoutSet = false
}

func (l LinkerSyms) String() string {
	return fmt.Sprintf(
		"text=[0x%x,0x%x) rodata=[0x%x,0x%x) data=[0x%x,0x%x) bss=[0x%x,0x%x) "+
			"kstack=[0x%x,0x%x) heap=[0x%x,+0x%x) alloc=[0x%x,+0x%x) mem=[0x%x,0x%x)",
		l.TextStart, l.TextEnd, l.RodataStart, l.RodataEnd, l.DataStart, l.DataEnd,
		l.BssStart, l.BssEnd, l.KstackStart, l.KstackEnd, l.HeapStart, l.HeapSize,
		l.AllocStart, l.AllocSize, l.MemStart, l.MemEnd)
}
