// Package pagetable implements the Sv39 three-level page-table engine:
// identity mapping, explicit virtual-to-physical mapping, and
// translation lookup. It never frees a page-table node once allocated
// (nodes are owned by whichever parent entry points at them, for the
// kernel's entire lifetime) and never clears flags on an already-valid
// leaf — later mappings for the same page are silently ignored, exactly
// as spec'd.
//
// Grounded on original_source/src/page.rs and hal-core/src/page.rs: the
// bit layout, the walk-three-levels-then-leaf shape, and the "already
// mapped, nothing to do" short circuit are all carried over unchanged;
// only the allocation side (galloc instead of a global allocator crate)
// and the locking discipline (teacher's vm.Vm_t-style mutex) differ.
package pagetable

import (
	"fmt"
	"sync"
	"unsafe"

	"rvos/galloc"
	"rvos/mem"
	"rvos/uart"
)

// Flags is the set of Sv39 PTE permission/attribute bits.
type Flags uint64

const (
	Valid Flags = 1 << iota
	Read
	Write
	Execute
	User
	Global
	Accessed
	Dirty
)

// Precomputed combinations used throughout boot and user mapping.
const (
	RW   = Read | Write
	RX   = Read | Execute
	RWX  = Read | Write | Execute
	RWU  = Read | Write | User
	RWXU = Read | Write | Execute | User
)

// leafMask is the set of bits whose presence marks a PTE as a leaf
// rather than a pointer to the next-level table.
const leafMask = Flags(Read | Write | Execute)

// PTE is one Sv39 page-table entry: V(0) R(1) W(2) X(3) U(4) G(5) A(6)
// D(7), PPN in bits 10-53.
type PTE uint64

const ppnShift = 10

func (e PTE) IsValid() bool { return e&PTE(Valid) != 0 }
func (e PTE) IsLeaf() bool  { return e&PTE(leafMask) != 0 }
func (e PTE) Flags() Flags  { return Flags(e) & 0xff }

// Addr returns the physical address this entry points at — either a
// frame (leaf) or the next-level table (non-leaf).
func (e PTE) Addr() mem.Pa_t {
	ppn := uint64(e) >> ppnShift
	return mem.Pa_t(ppn << mem.PGSHIFT)
}

func newLeaf(frame mem.Pa_t, flags Flags) PTE {
	ppn := uint64(frame) >> mem.PGSHIFT
	return PTE(ppn<<ppnShift) | PTE(Valid|Accessed|Dirty|flags)
}

func newNonLeaf(table mem.Pa_t) PTE {
	ppn := uint64(table) >> mem.PGSHIFT
	return PTE(ppn<<ppnShift) | PTE(Valid)
}

// Table is a single Sv39 page-table node: 512 64-bit entries, 4 KiB
// aligned. The kernel never walks deeper than level 0.
type Table struct {
	Entries [512]PTE
}

// asTable reinterprets a physical address as a *Table. Valid only while
// the kernel runs with an identity mapping (or satp disabled) over that
// address, i.e. during boot before the final satp switch and for any
// node the allocator itself handed out from identity-mapped heap memory.
func asTable(pa mem.Pa_t) *Table {
	return (*Table)(unsafe.Pointer(uintptr(pa)))
}

// vpn decomposes a virtual address into its three 9-bit VPN fields,
// index 2 first (VPN[2]|VPN[1]|VPN[0]|offset, 9|9|9|12).
func vpn(va mem.Va_t) [3]uint {
	v := uint64(va) >> mem.PGSHIFT
	return [3]uint{
		uint(v>>18) & 0x1ff,
		uint(v>>9) & 0x1ff,
		uint(v) & 0x1ff,
	}
}

// NewRoot allocates a fresh, zeroed root page table from the heap.
func NewRoot() (*Table, mem.Pa_t, error) {
	pa, err := galloc.Global.AllocPage()
	if err != nil {
		return nil, 0, err
	}
	t := asTable(pa)
	*t = Table{}
	return t, pa, nil
}

var mapMu sync.Mutex

// Map walks VPN[2] -> VPN[1] -> VPN[0], allocating intermediate tables as
// needed, and installs a leaf entry for page -> frame with the given
// flags. If the page is already mapped (a valid leaf already exists at
// level 0), Map is a no-op: flags are never cleared on an already-valid
// leaf.
func Map(root *Table, page mem.Va_t, frame mem.Pa_t, flags Flags) error {
	mapMu.Lock()
	defer mapMu.Unlock()

	indices := vpn(page)
	table := root

	for lv := 2; lv >= 0; lv-- {
		idx := indices[2-lv]
		entry := &table.Entries[idx]

		if entry.IsValid() {
			if entry.IsLeaf() {
				uart.Default.Debugf("pagetable: 0x%x already mapped to 0x%x, ignoring",
					page, entry.Addr())
				return nil
			}
			table = asTable(entry.Addr())
			continue
		}

		if lv == 0 {
			*entry = newLeaf(frame, flags)
			return nil
		}

		next, pa, err := NewRoot()
		if err != nil {
			return fmt.Errorf("pagetable: allocating level-%d node: %w", lv, err)
		}
		*entry = newNonLeaf(pa)
		table = next
	}

	return nil
}

// IdMap maps page to the frame with the same numeric address.
func IdMap(root *Table, page mem.Va_t, flags Flags) error {
	return Map(root, page, mem.Pa_t(page), flags)
}

// IdMapRange identity-maps every page whose start falls in [start, end],
// in 4 KiB steps; the page containing end is mapped too (PageRange is
// inclusive of both endpoints).
func IdMapRange(root *Table, start, end mem.Va_t, flags Flags) error {
	for _, page := range PageRange(start, end) {
		if err := IdMap(root, page, flags); err != nil {
			return err
		}
	}
	return nil
}

// Translate walks root for vaddr and returns the leaf frame's physical
// base address (the PPN shifted by 12, with no page-offset bits added
// back in — callers that need the exact byte address add
// vaddr&PGOFFSET themselves), or ok=false if any traversed entry is
// invalid. Superpages are never produced by this kernel, so the first
// leaf found is always at level 0.
//
// Grounded on original_source/src/page.rs's translate_vaddr, which
// returns the frame's paddr with no offset folded in.
func Translate(root *Table, vaddr mem.Va_t) (mem.Pa_t, bool) {
	indices := vpn(vaddr)
	table := root

	for lv := 2; lv >= 0; lv-- {
		idx := indices[2-lv]
		entry := table.Entries[idx]

		if !entry.IsValid() {
			uart.Default.Debugf("pagetable: translate(0x%x): invalid entry at level %d index %d",
				vaddr, lv, idx)
			return 0, false
		}

		if entry.IsLeaf() {
			return entry.Addr(), true
		}

		table = asTable(entry.Addr())
	}

	return 0, false
}

// PageRange returns every page-aligned virtual address from start to end
// inclusive of both endpoints (the convention this kernel has chosen;
// callers passing a half-open [start,end) range should subtract one page
// from end first).
func PageRange(start, end mem.Va_t) []mem.Va_t {
	s := mem.Va_t(mem.Pagerounddown(mem.Pa_t(start)))
	e := mem.Va_t(mem.Pagerounddown(mem.Pa_t(end)))

	var pages []mem.Va_t
	for p := s; p <= e; p += mem.Va_t(mem.PGSIZE) {
		pages = append(pages, p)
		if p+mem.Va_t(mem.PGSIZE) < p {
			break // overflow guard, unreachable on any real Sv39 range
		}
	}
	return pages
}
