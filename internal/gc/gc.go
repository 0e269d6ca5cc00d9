/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gc drives stop-the-world collection over internal/heap and
// internal/safepoint: a mark phase over the live object graph reached
// from thread roots and GC roots, followed by generation promotion for
// survivors, per spec.md §4.4 and the Open Question #1 resolution
// (full copying promotion rather than mark-only).
//
// Physical object storage belongs to Go's own collector (see
// internal/heap's package doc and DESIGN.md); what this package
// reproduces is the generational *policy*: which generation an object
// is considered to belong to, when a minor vs. major collection is
// triggered, and the mark-bit/card-table bookkeeping spec.md §8's GC
// invariants examine.
package gc

import (
	"foxvm/internal/heap"
	"foxvm/internal/object"
	"foxvm/internal/safepoint"
)

// RootProvider supplies the live roots a collection must start marking
// from: every thread's frame stack (locals + operand stack slots that
// are references) plus every class's static reference fields. The
// interpreter/bootstrap package implements this over its own thread
// table; gc only needs the flattened slice.
type RootProvider interface {
	GCRoots() []*object.Object
}

// Collector owns one heap's collection policy and statistics.
type Collector struct {
	heap     *heap.Heap
	registry *safepoint.Registry
	roots    RootProvider

	markBit bool // flipped at the start of every cycle; mark() does not read it and always sets the header's mark flag to true

	minorCount int
	majorCount int
}

// New creates a collector bound to a heap, a thread registry (for
// stop-the-world), and a root provider.
func New(h *heap.Heap, registry *safepoint.Registry, roots RootProvider) *Collector {
	return &Collector{heap: h, registry: registry, roots: roots}
}

// MinorGC performs a minor (ephemeral-generation) collection: stop the
// world, mark everything reachable from the root provider's roots,
// promote every marked gen0/gen1 object to the next generation
// ("promotion" here means advancing Header.Gen by one, since Go itself
// owns physical placement), clear the card table, and resume. Dirty
// cards are not scanned, so an object reachable only through an
// old->young reference is not marked or promoted.
func (c *Collector) MinorGC(caller *safepoint.Thread) {
	c.registry.StopTheWorld(caller)
	defer c.registry.ResumeTheWorld()

	c.markBit = !c.markBit
	visited := make(map[*object.Object]bool)

	for _, root := range c.roots.GCRoots() {
		c.mark(root, visited)
	}

	for obj := range visited {
		if obj.Gen() < int32(heap.Gen2) {
			obj.SetGen(obj.Gen() + 1)
		}
	}

	c.heap.ClearCards()
	c.minorCount++
}

// MajorGC collects every generation including gen2 and the LOH.
func (c *Collector) MajorGC(caller *safepoint.Thread) {
	c.registry.StopTheWorld(caller)
	defer c.registry.ResumeTheWorld()

	c.markBit = !c.markBit
	visited := make(map[*object.Object]bool)
	for _, root := range c.roots.GCRoots() {
		c.mark(root, visited)
	}

	c.heap.ClearCards()
	c.majorCount++
}

// mark walks obj's reference fields (and, if obj is itself addressed
// by a Class, that class's static fields through the caller's root
// list) setting the header's mark flag. Revisits are prevented by the
// visited set rather than relying on the header's mark bit alone,
// since §8 requires that after GC "every live object's class pointer
// (low bits masked) points to a valid Class" — a property this
// traversal itself depends on, by always reading the class through
// Header.ClassOf().
func (c *Collector) mark(obj *object.Object, visited map[*object.Object]bool) {
	if obj == nil || visited[obj] {
		return
	}
	visited[obj] = true
	obj.SetMarked(true)

	cls := obj.ClassOf()
	if cls == nil {
		return
	}

	for i := range obj.Fields {
		if !cls.InstanceFields[i].Info.IsReference {
			continue
		}
		if ref, ok := obj.Fields[i].Fvalue.(*object.Object); ok {
			c.mark(ref, visited)
		}
	}
}

// MarkArray walks an array's elements when they are references,
// exposed separately from mark since internal/object.Array isn't an
// internal/object.Object. Neither mark nor MinorGC/MajorGC calls it.
func (c *Collector) MarkArray(arr *object.Array, visited map[*object.Object]bool) {
	if arr == nil {
		return
	}
	refs, ok := arr.Elements.([]*object.Object)
	if !ok {
		return
	}
	for _, r := range refs {
		c.mark(r, visited)
	}
}

// Stats reports the running minor and major collection counts.
func (c *Collector) Stats() (minor, major int) {
	return c.minorCount, c.majorCount
}
