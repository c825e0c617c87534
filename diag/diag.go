// Package diag snapshots the buddy allocator's heap occupancy into a
// pprof profile, so a developer can pull it over the serial link and
// inspect fragmentation with the standard pprof tool instead of reading
// a dump of raw tree states.
//
// There is no precedent for this in original_source (the Rust kernel
// has no diagnostics beyond the panic dump); it is modeled on how the
// rest of the pack (and the wider Go ecosystem) already represents
// memory snapshots: github.com/google/pprof/profile's Profile/Sample/
// Location/Function types, the same shape runtime/pprof itself emits.
package diag

import (
	"fmt"
	"io"
	"time"

	"github.com/google/pprof/profile"

	"rvos/buddy"
)

// HeapSnapshot builds a pprof heap profile from a, with one sample per
// allocated block: its size in bytes as the sample value, and a
// synthetic call stack naming the buddy order and node index so
// `pprof -top` groups by block size.
func HeapSnapshot(a *buddy.Allocator, minBlockSize int, capturedAt time.Time) *profile.Profile {
	bytesType := &profile.ValueType{Type: "bytes", Unit: "bytes"}
	p := &profile.Profile{
		SampleType: []*profile.ValueType{bytesType},
		TimeNanos:  capturedAt.UnixNano(),
	}

	functions := map[int]*profile.Function{}
	locations := map[int]*profile.Location{}
	var nextID uint64

	functionFor := func(size int) *profile.Function {
		if f, ok := functions[size]; ok {
			return f
		}
		nextID++
		f := &profile.Function{
			ID:   nextID,
			Name: fmt.Sprintf("block[%d bytes]", size),
		}
		functions[size] = f
		p.Function = append(p.Function, f)
		return f
	}

	locationFor := func(size int) *profile.Location {
		if l, ok := locations[size]; ok {
			return l
		}
		nextID++
		l := &profile.Location{
			ID: nextID,
			Line: []profile.Line{
				{Function: functionFor(size)},
			},
		}
		locations[size] = l
		p.Location = append(p.Location, l)
		return l
	}

	for idx := 0; idx < a.NumNodes(); idx++ {
		if a.State(idx) != buddy.Allocated {
			continue
		}
		if !isLeafAllocation(a, idx) {
			continue
		}
		size := blockSize(a, idx, minBlockSize)
		p.Sample = append(p.Sample, &profile.Sample{
			Value:    []int64{int64(size)},
			Location: []*profile.Location{locationFor(size)},
		})
	}

	return p
}

// isLeafAllocation reports whether idx is itself the handed-out block
// rather than merely an ancestor of one: an ancestor is Allocated but
// has at least one child also materialized (Free, Allocated or the
// block actually given out is always a leaf of the allocation, never an
// interior node with an Allocated child whose sibling is Coalesced).
// Concretely: idx is the allocation itself iff both children (if they
// exist) are Coalesced, i.e. idx was never split further.
func isLeafAllocation(a *buddy.Allocator, idx int) bool {
	left := 2*idx + 1
	if left >= a.NumNodes() {
		return true
	}
	return a.State(left) == buddy.Coalesced
}

// blockSize recovers the byte size of the block at idx. The tree is a
// complete binary tree stored level-order, so idx's depth (distance
// from the root) determines its order: depth 0 is the whole heap,
// and each additional level halves the block size.
func blockSize(a *buddy.Allocator, idx, minBlockSize int) int {
	maxOrder := -1
	for n := a.NumNodes() + 1; n > 1; n >>= 1 {
		maxOrder++
	}

	depth := 0
	for i := idx; i > 0; depth++ {
		i = (i - 1) / 2
	}

	order := maxOrder - depth
	return minBlockSize << order
}

// Write serializes p in the standard gzip'd protobuf pprof format.
func Write(p *profile.Profile, w io.Writer) error {
	return p.Write(w)
}
