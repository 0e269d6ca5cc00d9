/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringpool implements the translator's string constant pool
// contract of spec.md §6: "three parallel arrays of equal length —
// UTF-8 literals, a per-slot initializing-thread-id field, a per-slot
// Object reference, plus one count." Grounded on
// artipop-jacobin/src/object/javaByteArray.go and
// src/classloader/classloader.go's stringPool.GetStringPointer /
// GetStringIndex / GetStringPoolSize call sites, which this package
// reproduces with the same names and a generalized lookup/intern pair
// they imply.
package stringpool

import (
	"sync"

	"foxvm/internal/object"
	"foxvm/internal/types"
)

type slot struct {
	literal       string
	initThreadID  int64
	interned      *object.Object // the interned java/lang/String instance, once created
}

// Pool is the process-wide string constant pool. One instance lives on
// the top-level runtime handle.
type Pool struct {
	mu     sync.RWMutex
	slots  []slot
	lookup map[string]uint32
}

// New creates a pool pre-populated with the two sentinel entries
// spec.md's types package documents (index 0 unused, index 1 is
// "java/lang/Object", index 2 is "java/lang/String") so superclass
// walks can terminate without a lookup miss during bootstrap.
func New() *Pool {
	p := &Pool{lookup: make(map[string]uint32)}
	p.slots = append(p.slots, slot{}) // index 0: never valid
	p.intern("java/lang/Object")
	p.intern("java/lang/String")
	return p
}

func (p *Pool) intern(literal string) uint32 {
	idx := uint32(len(p.slots))
	p.slots = append(p.slots, slot{literal: literal})
	p.lookup[literal] = idx
	return idx
}

// GetStringIndex returns the index for *s, interning it if this is the
// first time it's been seen.
func (p *Pool) GetStringIndex(s *string) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx, ok := p.lookup[*s]; ok {
		return idx
	}
	return p.intern(*s)
}

// GetStringPointer returns a pointer to the literal at index, or nil
// if index is out of range.
func (p *Pool) GetStringPointer(index uint32) *string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if index == types.InvalidStringIndex || int(index) >= len(p.slots) {
		return nil
	}
	return &p.slots[index].literal
}

// GetStringPoolSize returns the current slot count, including the
// unused index-0 sentinel.
func (p *Pool) GetStringPoolSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots)
}

// SetInterned records the canonical java/lang/String instance for
// index, implementing String.intern()'s per-slot Object reference.
func (p *Pool) SetInterned(index uint32, obj *object.Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(index) < len(p.slots) {
		p.slots[index].interned = obj
	}
}

// GetInterned returns the canonical instance for index, if one has
// been interned yet.
func (p *Pool) GetInterned(index uint32) (*object.Object, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if int(index) >= len(p.slots) || p.slots[index].interned == nil {
		return nil, false
	}
	return p.slots[index].interned, true
}

// ClaimInit attempts to become the initializing thread for slot index's
// interning (the "per-slot initializing thread id field" of §6),
// returning false if another thread already claimed it. Mirrors the
// same single-initializer race String.intern()'s lazy construction
// must resolve, analogous to class <clinit>'s InitThreadID field.
func (p *Pool) ClaimInit(index uint32, threadID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(index) >= len(p.slots) {
		return false
	}
	if p.slots[index].initThreadID != 0 {
		return p.slots[index].initThreadID == threadID
	}
	p.slots[index].initThreadID = threadID
	return true
}
