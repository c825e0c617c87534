package pagetable

import (
	"testing"

	"rvos/galloc"
	"rvos/mem"
)

func resetGalloc() {
	galloc.ResetForTesting()
}

func TestIdMapAndTranslate(t *testing.T) {
	resetGalloc()
	galloc.Init(0x9000_0000, 1<<20, 4096)

	root, _, err := NewRoot()
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}

	// S4: id_map Page(0x10000000, RW); translate(0x10000000) = Some(...);
	// translate(0x10001000) = None.
	const page = mem.Va_t(0x10000000)
	if err := IdMap(root, page, RW); err != nil {
		t.Fatalf("IdMap: %v", err)
	}

	pa, ok := Translate(root, page)
	if !ok {
		t.Fatalf("Translate(0x%x) = not found, want 0x%x", page, page)
	}
	if pa != mem.Pa_t(page) {
		t.Fatalf("Translate(0x%x) = 0x%x, want 0x%x", page, pa, page)
	}

	if _, ok := Translate(root, page+mem.Va_t(mem.PGSIZE)); ok {
		t.Fatalf("Translate(0x%x) unexpectedly succeeded", page+mem.Va_t(mem.PGSIZE))
	}
}

func TestMapIsNoOpWhenAlreadyMapped(t *testing.T) {
	resetGalloc()
	galloc.Init(0x9000_0000, 1<<20, 4096)

	root, _, _ := NewRoot()
	const page = mem.Va_t(0x20000000)

	if err := Map(root, page, mem.Pa_t(page), RW); err != nil {
		t.Fatalf("Map: %v", err)
	}
	pa1, _ := Translate(root, page)

	// Mapping the same page to a different frame must be ignored.
	if err := Map(root, page, mem.Pa_t(page)+mem.Pa_t(mem.PGSIZE), RWX); err != nil {
		t.Fatalf("Map (second): %v", err)
	}
	pa2, _ := Translate(root, page)

	if pa1 != pa2 {
		t.Fatalf("second Map changed the leaf: 0x%x -> 0x%x", pa1, pa2)
	}
}

func TestIdMapRangeCoversEveryPage(t *testing.T) {
	resetGalloc()
	galloc.Init(0x9000_0000, 1<<20, 4096)

	root, _, _ := NewRoot()
	start := mem.Va_t(0x1000)
	end := start + mem.Va_t(4*mem.PGSIZE)

	if err := IdMapRange(root, start, end, RW); err != nil {
		t.Fatalf("IdMapRange: %v", err)
	}

	for p := start; p <= end; p += mem.Va_t(mem.PGSIZE) {
		pa, ok := Translate(root, p)
		if !ok {
			t.Fatalf("Translate(0x%x) = not found after IdMapRange", p)
		}
		if pa != mem.Pa_t(p) {
			t.Fatalf("Translate(0x%x) = 0x%x, want 0x%x", p, pa, p)
		}
	}
}

func TestPageRangeInclusiveOfBothEndpoints(t *testing.T) {
	start := mem.Va_t(0x1000)
	end := mem.Va_t(0x3000)
	pages := PageRange(start, end)
	if len(pages) != 3 {
		t.Fatalf("PageRange(0x1000,0x3000) = %d pages, want 3 (inclusive convention)", len(pages))
	}
	if pages[0] != start || pages[len(pages)-1] != end {
		t.Fatalf("PageRange endpoints = [0x%x, 0x%x], want [0x%x, 0x%x]",
			pages[0], pages[len(pages)-1], start, end)
	}
}

func TestPTEFlagBits(t *testing.T) {
	e := newLeaf(0x1000, RWXU)
	if !e.IsValid() || !e.IsLeaf() {
		t.Fatalf("leaf entry not valid/leaf: %v", e)
	}
	if e.Addr() != 0x1000 {
		t.Fatalf("Addr() = 0x%x, want 0x1000", e.Addr())
	}
	nl := newNonLeaf(0x2000)
	if !nl.IsValid() || nl.IsLeaf() {
		t.Fatalf("non-leaf entry wrongly marked leaf: %v", nl)
	}
}
