/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap implements the generational heap layout of spec.md §4.4:
// small-object-heap (SOH) generations 0-2 plus a large-object heap
// (LOH), thread-local allocation buffers, and the card/brick table
// pair used to track cross-generation references for the write
// barrier. Grounded directly on
// original_source/native/runtime/memory/vm_gc.c (card_byte/
// card_count_of/brick_count_of, the HeapSegment/Generation/JavaHeap
// layout, heap_init's segment sizing) and vm_tlab.h (TLAB_SIZE_MIN,
// TLAB_MAX_ALLOC_RATIO).
//
// Adaptation note (see DESIGN.md): this runtime's Java objects
// (internal/object.Object/Array/Class) are ordinary Go-heap values, so
// Go's own collector owns their physical storage and reachability.
// What this package reproduces faithfully is the *policy* layer the
// spec's testable properties examine — real reserved/committed
// address ranges (via internal/memory), a real card table and brick
// table indexed by those real addresses, TLAB bump allocation with
// byte-exact filler-object retirement, and generation classification —
// while the addresses it hands out are never dereferenced as Go
// pointers; internal/object.Header.SetAddr/SetGen record the
// classification against the real object for internal/gc to use.
package heap

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"

	"foxvm/internal/memory"
)

// Generation identifies one of the generations §4.4 and the glossary
// describe.
type Generation int32

const (
	Gen0 Generation = iota
	Gen1
	Gen2
	LOH

	MaxGeneration           = Gen2
	EphemeralGenerationCount = 2 // gen0 + gen1, per the glossary's "Ephemeral generation" entry
	TotalGenerationCount    = int(LOH) + 1
)

const (
	// CardByteShift: 1 byte of card table covers 1<<CardByteShift bytes
	// of heap, matching vm_gc.c's 64-bit branch (2 KiB cards).
	CardByteShift = 11
	cardSize      = 1 << CardByteShift

	// BrickSize: one brick covers two cards, per vm_gc.c.
	BrickSize = cardSize * 2

	// TLABSizeMin is the default TLAB size, per vm_tlab.h.
	TLABSizeMin = 8 * 1024

	// TLABMaxAllocRatio: objects larger than TLABSizeMin/TLABMaxAllocRatio
	// allocate outside any TLAB, per vm_tlab.h.
	TLABMaxAllocRatio = 4

	// mediumAllocThreshold is the size above which an allocation skips
	// the TLAB fast path and carves directly from the SOH segment's
	// shared cursor instead (AllocMedium; the Open Question #3
	// resolution recorded in SPEC_FULL.md/DESIGN.md).
	mediumAllocThreshold = TLABSizeMin / TLABMaxAllocRatio

	// largeObjectThreshold is this runtime's LOH cutoff. Not stated by
	// the retrieved source (only the SOH/TLAB constants survived); 85 KiB
	// (87040 bytes) follows the conventional generational-GC LOH threshold and
	// is called out here as a deliberate choice, not a grounded figure.
	largeObjectThreshold = 85 * 1024

	sohSegmentAlloc = 256 * 1024 * 1024 // TARGET_64BIT branch of vm_gc.c
	lohSegmentAlloc = 128 * 1024 * 1024
)

// segment mirrors vm_gc.c's HeapSegment: a reserved, incrementally
// committed address range. start/committed/end are real addresses
// returned by internal/memory, though nothing is ever stored at them
// as Go values except the filler pattern Retire writes.
type segment struct {
	mu        sync.Mutex
	base      unsafe.Pointer
	start     uintptr
	committed uintptr
	end       uintptr
	cursor    uintptr // shared growth cursor; TLABs and direct allocations both carve from here
}

func newSegment(size uintptr) (*segment, error) {
	base := memory.Reserve(nil, size, memory.AnyAlignment)
	if base == nil {
		return nil, errors.New("heap: failed to reserve segment")
	}
	pageSize := uintptr(memory.PageSize())
	if !memory.Commit(base, pageSize) {
		memory.Release(base, size)
		return nil, errors.New("heap: failed to commit initial segment page")
	}
	start := uintptr(base)
	return &segment{
		base:      base,
		start:     start,
		committed: start + pageSize,
		end:       start + size,
		cursor:    start,
	}, nil
}

// carve hands out a size-byte range from this segment's shared growth
// cursor, committing additional pages as needed.
func (s *segment) carve(size uintptr) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := s.cursor
	newCursor := addr + size
	if newCursor > s.end {
		return 0, errors.New("heap: segment exhausted")
	}
	if newCursor > s.committed {
		pageSize := uintptr(memory.PageSize())
		want := memory.AlignUp(newCursor-s.start, pageSize)
		if !memory.Commit(s.base, want) {
			return 0, errors.New("heap: failed to commit additional segment pages")
		}
		s.committed = s.start + want
	}
	s.cursor = newCursor
	return addr, nil
}

// cardTable tracks cross-generation references, per vm_gc.c's
// CardTable/card_byte/card_count_of.
type cardTable struct {
	lowest, highest uintptr
	bytes           []byte
}

func newCardTable(lowest, highest uintptr) *cardTable {
	count := cardByte(highest-1) - cardByte(lowest) + 1
	return &cardTable{lowest: lowest, highest: highest, bytes: make([]byte, count)}
}

func cardByte(addr uintptr) uintptr { return addr >> CardByteShift }

// Dirty marks the card covering addr, the write barrier's job whenever
// a reference into the ephemeral generations is stored, per §4.4 and
// the Open Question #2 resolution (card-table update implemented in
// putfield/array-store rather than left a TODO).
func (ct *cardTable) Dirty(addr uintptr) {
	if addr < ct.lowest || addr >= ct.highest {
		return
	}
	ct.bytes[cardByte(addr)-cardByte(ct.lowest)] = 0xFF
}

// IsDirty reports whether the card covering addr is dirty.
func (ct *cardTable) IsDirty(addr uintptr) bool {
	if addr < ct.lowest || addr >= ct.highest {
		return false
	}
	return ct.bytes[cardByte(addr)-cardByte(ct.lowest)] != 0
}

// Clear resets every card, done after a collection that has re-scanned
// (or rendered moot) all tracked cross-generation references.
func (ct *cardTable) Clear() {
	for i := range ct.bytes {
		ct.bytes[i] = 0
	}
}

func brickCountOf(from, to uintptr) uintptr { return (to - from) / BrickSize }

// Heap is the process-wide generational heap handle. One instance
// lives on the top-level runtime handle (internal/bootstrap's Runtime,
// shared with its intrinsics.Machine), per §9's "thread them
// explicitly through a top-level runtime handle" note.
type Heap struct {
	soh *segment
	loh *segment

	lowestAddr, highestAddr uintptr
	cards                   *cardTable
	bricks                  []int16

	allocated [TotalGenerationCount]uint64 // bytes handed out per generation, for GC triggering/stats
}

// New reserves the initial SOH/LOH segments and builds the card/brick
// tables covering their combined address range, mirroring vm_gc.c's
// heap_init.
func New() (*Heap, error) {
	if !memory.Init() {
		return nil, errors.New("heap: memory subsystem init failed")
	}

	soh, err := newSegment(sohSegmentAlloc)
	if err != nil {
		return nil, errors.Wrap(err, "allocating SOH segment")
	}
	loh, err := newSegment(lohSegmentAlloc)
	if err != nil {
		return nil, errors.Wrap(err, "allocating LOH segment")
	}

	lowest := soh.start
	if loh.start < lowest {
		lowest = loh.start
	}
	highest := soh.end
	if loh.end > highest {
		highest = loh.end
	}

	h := &Heap{
		soh:         soh,
		loh:         loh,
		lowestAddr:  lowest,
		highestAddr: highest,
		cards:       newCardTable(lowest, highest),
		bricks:      make([]int16, brickCountOf(lowest, highest)),
	}
	return h, nil
}

// DirtyCardFor implements the write barrier's card update.
func (h *Heap) DirtyCardFor(addr uintptr) { h.cards.Dirty(addr) }

// CardIsDirty reports whether the card covering addr is dirty (§8's GC
// invariant: "every old->young pointer's source card was dirty before
// GC"). internal/gc does not call it; MinorGC does not scan cards.
func (h *Heap) CardIsDirty(addr uintptr) bool { return h.cards.IsDirty(addr) }

// ClearCards resets the card table after a collection has processed it.
func (h *Heap) ClearCards() { h.cards.Clear() }

// AllocSmall hands size bytes out of t's TLAB, refilling it from the
// SOH segment if needed. Used for allocations at or below the medium
// threshold.
func (h *Heap) AllocSmall(t *TLAB, size uintptr) (uintptr, error) {
	if addr, ok := t.tryAlloc(size); ok {
		return addr, nil
	}
	t.Retire(h)
	fresh, err := h.NewTLAB()
	if err != nil {
		return 0, err
	}
	*t = *fresh
	addr, ok := t.tryAlloc(size)
	if !ok {
		return 0, errors.Errorf("heap: object of size %d does not fit a fresh TLAB", size)
	}
	return addr, nil
}

// AllocMedium bumps the SOH segment's shared cursor directly,
// bypassing any thread's TLAB — the Open Question #3 resolution: a
// medium allocation never forces a thread to discard TLAB space that
// still has small-object room left in it.
func (h *Heap) AllocMedium(size uintptr) (uintptr, error) {
	addr, err := h.soh.carve(size)
	if err != nil {
		return 0, errors.Wrap(err, "allocating medium object")
	}
	h.allocated[Gen0] += uint64(size)
	return addr, nil
}

// AllocLarge carves size bytes from the LOH segment.
func (h *Heap) AllocLarge(size uintptr) (uintptr, error) {
	addr, err := h.loh.carve(size)
	if err != nil {
		return 0, errors.Wrap(err, "allocating large object")
	}
	h.allocated[LOH] += uint64(size)
	return addr, nil
}

// Alloc is the single entry point spec.md §4.4's heap_alloc
// corresponds to: it classifies size against the medium/large
// thresholds and dispatches to the matching allocation path, returning
// the synthetic address and the generation the object starts life in.
func (h *Heap) Alloc(t *TLAB, size uintptr) (uintptr, Generation, error) {
	switch {
	case size > largeObjectThreshold:
		addr, err := h.AllocLarge(size)
		return addr, LOH, err
	case size > mediumAllocThreshold:
		addr, err := h.AllocMedium(size)
		return addr, Gen0, err
	default:
		addr, err := h.AllocSmall(t, size)
		h.allocated[Gen0] += uint64(size)
		return addr, Gen0, err
	}
}

// NewTLAB carves a fresh TLAB_SIZE_MIN range from the SOH segment.
func (h *Heap) NewTLAB() (*TLAB, error) {
	addr, err := h.soh.carve(TLABSizeMin)
	if err != nil {
		return nil, errors.Wrap(err, "allocating TLAB")
	}
	return &TLAB{head: addr, current: addr, limit: addr + TLABSizeMin}, nil
}

// fillerClassWord is a sentinel value written into a retired TLAB's
// leftover bytes, standing in for the translator-emitted int[] class's
// pointer (§4.4's TLAB-retire invariant: "the bytes between current
// and limit after retire parse as exactly one array-of-int").
// Distinguishable from any real class pointer by construction in tests
// (those construct real classes via internal/classloader and compare
// addresses), not by any reserved address range.
const fillerClassWord = uintptr(0)

// fillerHeader mirrors the leading words of object.Header plus an
// array's int32 length field, sized identically so FillWithObject's
// byte-count math is exact.
type fillerHeader struct {
	classWord uintptr
	mon       uintptr
	addr      uintptr
	gen       int32
	length    int32
}

// FillWithObject writes a parseable filler object spanning exactly
// size bytes starting at addr, matching vm_gc_priv.h's
// heap_fill_with_object. size must be >= sizeof(fillerHeader); the
// filler's declared element count is derived from the remaining span
// so that header+elements exactly equal size.
func (h *Heap) FillWithObject(addr uintptr, size uintptr) {
	if size < unsafe.Sizeof(fillerHeader{}) {
		return
	}
	hdrSize := unsafe.Sizeof(fillerHeader{})
	length := int32((size - hdrSize) / 4)
	f := (*fillerHeader)(unsafe.Pointer(addr))
	f.classWord = fillerClassWord
	f.mon = 0
	f.addr = addr
	f.gen = int32(Gen0)
	f.length = length
}

// ParseFillerLength reads back a filler object's declared length,
// exposed for tests verifying the TLAB-retire byte-exactness property.
func ParseFillerLength(addr uintptr) int32 {
	return (*fillerHeader)(unsafe.Pointer(addr)).length
}

// FillerHeaderSize is sizeof(fillerHeader), exported so callers/tests
// can reconstruct the expected total span (header + length*4).
func FillerHeaderSize() uintptr { return unsafe.Sizeof(fillerHeader{}) }

// TLAB is one thread's allocation context, per vm_tlab.h's
// ThreadAllocContext (tlabHead/tlabCurrent/tlabLimit).
type TLAB struct {
	head    uintptr
	current uintptr
	limit   uintptr
}

func (t *TLAB) tryAlloc(size uintptr) (uintptr, bool) {
	if t.current == 0 {
		return 0, false
	}
	newCurrent := t.current + size
	if newCurrent > t.limit {
		return 0, false
	}
	addr := t.current
	t.current = newCurrent
	return addr, true
}

// Retire fills the unused span between current and limit with a
// parseable int-array filler, per vm_tlab.h's doc comment ("each gen0
// gc will reclaim ALL tlabs from all threads").
func (t *TLAB) Retire(h *Heap) {
	if t.current == 0 || t.current >= t.limit {
		return
	}
	h.FillWithObject(t.current, t.limit-t.current)
	t.current = t.limit
}

// Free reports the unused bytes remaining in this TLAB.
func (t *TLAB) Free() uintptr {
	if t.current >= t.limit {
		return 0
	}
	return t.limit - t.current
}
