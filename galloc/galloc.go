// Package galloc wraps a buddy.Allocator behind a spinlock and exposes
// the allocate/deallocate contract consumed by heap-backed data
// structures such as page-table nodes. It is a process-wide singleton,
// the same shape as the teacher's mem.Physmem_t (sync.Mutex-guarded,
// initialized exactly once, every method takes the lock before touching
// shared state).
package galloc

import (
	"sync"

	"rvos/buddy"
	"rvos/mem"
	"rvos/util"
)

// Global is the kernel's singleton heap allocator, installed by Init
// during boot and consulted by every subsequent heap allocation (page
// table nodes, the copied user .text, anything else living on the
// kernel heap).
var Global galloc_t

type galloc_t struct {
	sync.Mutex
	buddy        *buddy.Allocator
	allocStart   mem.Pa_t
	minBlockSize int
	initialized  bool
}

// Init constructs the backing buddy allocator over [allocStart,
// allocStart+allocSize) with the given minimum block size. Calling Init
// twice is a fatal error — the adapter, like the buddy tree it wraps, is
// a boot-time singleton.
func Init(allocStart mem.Pa_t, allocSize, minBlockSize int) {
	Global.Lock()
	defer Global.Unlock()

	if Global.initialized {
		panic("galloc: already initialized")
	}

	Global.buddy = buddy.New(allocSize, minBlockSize)
	Global.allocStart = allocStart
	Global.minBlockSize = minBlockSize
	Global.initialized = true
}

// Layout describes a requested allocation: a byte size and the alignment
// it must satisfy. It mirrors Go's standard library unsafe/reflect notion
// of size+align without pulling in the reflect package, which a
// freestanding kernel cannot use.
type Layout struct {
	Size  int
	Align int
}

// PadToAlign returns the smallest size >= l.Size that is itself a
// multiple of l.Align.
func (l Layout) PadToAlign() int {
	return int(util.Roundup(l.Size, l.Align))
}

// Alloc reserves a block satisfying layout and returns its physical
// address. The adapter assumes the heap base is aligned to at least
// 4 KiB (the kernel's own guarantee per §4.2), so any alignment request
// the kernel can legitimately make is satisfied by simple block-size
// selection — no separate alignment padding inside the block.
func (g *galloc_t) Alloc(layout Layout) (mem.Pa_t, error) {
	g.Lock()
	defer g.Unlock()

	if !g.initialized {
		panic("galloc: use before init")
	}

	size := int(util.NextPowerOfTwo(layout.PadToAlign()))
	if size < g.minBlockSize {
		size = g.minBlockSize
	}

	idx, err := g.buddy.FindBlock(size)
	if err != nil {
		return 0, err
	}

	return g.addrOf(idx, size), nil
}

// Dealloc returns the block at addr, sized per layout, to the allocator.
// addr must be exactly the address previously returned by Alloc for an
// equal layout; passing any other address is undefined (the buddy layer
// will panic on the resulting bogus index in the common case).
func (g *galloc_t) Dealloc(addr mem.Pa_t, layout Layout) {
	g.Lock()
	defer g.Unlock()

	if !g.initialized {
		panic("galloc: use before init")
	}

	size := int(util.NextPowerOfTwo(layout.PadToAlign()))
	if size < g.minBlockSize {
		size = g.minBlockSize
	}
	idx := g.indexOf(addr, size)
	g.buddy.FreeBlock(idx)
}

// addrOf inverts OrderStartIndex: the node index is purely positional
// within its order, so the address follows from the node's offset past
// the first node of that order.
func (g *galloc_t) addrOf(idx, size int) mem.Pa_t {
	start := g.buddy.OrderStartIndex(size)
	return g.allocStart + mem.Pa_t((idx-start)*size)
}

// indexOf is the exact inverse of addrOf, used to reconstruct the index
// FindBlock returned from the address Alloc handed back.
func (g *galloc_t) indexOf(addr mem.Pa_t, size int) int {
	start := g.buddy.OrderStartIndex(size)
	offset := int(addr-g.allocStart) / size
	return start + offset
}

// AllocPage is a convenience wrapper for the overwhelmingly common
// kernel allocation: one page-table-node-sized, page-aligned block.
func (g *galloc_t) AllocPage() (mem.Pa_t, error) {
	return g.Alloc(Layout{Size: mem.PGSIZE, Align: mem.PGSIZE})
}

// ResetForTesting discards the current singleton state so tests can call
// Init again in the same process. Production kernel code never calls
// this — Init is meant to run exactly once per boot.
func ResetForTesting() {
	Global = galloc_t{}
}
