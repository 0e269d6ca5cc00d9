/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package jni implements the native-method bridge of spec.md §4.6: a
// per-call local-reference table (growing by chained, doubling-capacity
// tables), a process-global reference table, and the
// enter/exit-safe-region discipline every native call crosses.
// Grounded on §4.6's four-step protocol and §5's "Suspension points"
// (native_enter_jni/native_exit_jni) and "JNI global refs — spinlock"
// shared-resource entries.
package jni

import (
	"sync"

	"github.com/pkg/errors"

	"foxvm/internal/object"
	"foxvm/internal/safepoint"
)

// localRefTable is one chained table of handle slots, doubling in
// capacity each time the previous table saturates, per §4.6 step 3.
type localRefTable struct {
	slots []*object.Object
	next  *localRefTable
}

func newLocalRefTable(capacity int) *localRefTable {
	return &localRefTable{slots: make([]*object.Object, capacity)}
}

// NativeFrame is the per-native-call frame pushed by the generated
// trampoline described in §4.6 step 1, with its own local reference
// table (initial capacity >= 16).
type NativeFrame struct {
	head *localRefTable
}

const initialLocalCapacity = 16

// NewNativeFrame opens a fresh native frame.
func NewNativeFrame() *NativeFrame {
	return &NativeFrame{head: newLocalRefTable(initialLocalCapacity)}
}

// AddLocalRef scans the frame's table chain for a free slot, allocating
// a new chained table (double the previous capacity) if every existing
// table is saturated, per §4.6 step 3.
func (f *NativeFrame) AddLocalRef(obj *object.Object) int {
	idx := 0
	for t := f.head; t != nil; t = t.next {
		for i, s := range t.slots {
			if s == nil {
				t.slots[i] = obj
				return idx + i
			}
		}
		if t.next == nil {
			t.next = newLocalRefTable(len(t.slots) * 2)
		}
		idx += len(t.slots)
	}
	return -1 // unreachable: the loop always grows before exhausting
}

// Deref resolves a local handle back to its object. Per §4.6 step 3,
// dereferencing asserts the calling thread is NOT in the safe region —
// a raw pointer is only stable outside it.
func (f *NativeFrame) Deref(thread *safepoint.Thread, handle int) (*object.Object, error) {
	if thread.InSafeRegion() {
		return nil, errors.New("jni: dereferencing a local ref while thread is in the safe region")
	}
	idx := handle
	for t := f.head; t != nil; t = t.next {
		if idx < len(t.slots) {
			return t.slots[idx], nil
		}
		idx -= len(t.slots)
	}
	return nil, errors.Errorf("jni: invalid local ref handle %d", handle)
}

// Release clears every slot in the frame's table chain, reclaiming the
// local references at native-call return (§4.6 step 4).
func (f *NativeFrame) Release() {
	for t := f.head; t != nil; t = t.next {
		for i := range t.slots {
			t.slots[i] = nil
		}
	}
}

// GlobalRefs is the process-wide global-reference table, protected by
// a spinlock per §5's shared-resource list ("JNI global refs —
// spinlock"). sync.Mutex stands in for a spinlock here, the same
// substitution internal/monitor and internal/safepoint make elsewhere
// in this tree for platform-mutex primitives.
type GlobalRefs struct {
	mu    sync.Mutex
	slots []*object.Object
}

// NewGlobalRefs constructs an empty global reference table. One
// instance lives on the top-level runtime handle.
func NewGlobalRefs() *GlobalRefs {
	return &GlobalRefs{}
}

// NewGlobalRef installs obj and returns its stable handle.
func (g *GlobalRefs) NewGlobalRef(obj *object.Object) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, s := range g.slots {
		if s == nil {
			g.slots[i] = obj
			return i
		}
	}
	g.slots = append(g.slots, obj)
	return len(g.slots) - 1
}

// DeleteGlobalRef releases a previously-allocated global handle.
func (g *GlobalRefs) DeleteGlobalRef(handle int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if handle >= 0 && handle < len(g.slots) {
		g.slots[handle] = nil
	}
}

// Get resolves a global handle. Unlike local refs, global refs may be
// dereferenced from any safepoint state, since §4.6 only requires the
// not-in-safe-region assertion for the raw pointer obtained from it;
// Get itself makes no safe-region check.
func (g *GlobalRefs) Get(handle int) (*object.Object, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if handle < 0 || handle >= len(g.slots) || g.slots[handle] == nil {
		return nil, false
	}
	return g.slots[handle], true
}

// EnterJNI implements native_enter_jni: puts the thread into the safe
// region so GC may proceed concurrently with the native call (§4.6
// step 1, §5's "native_enter_jni (voluntary enter)" suspension point).
func EnterJNI(thread *safepoint.Thread) {
	thread.EnterSafeRegion()
}

// ExitJNI implements native_exit_jni: leaves the safe region, possibly
// blocking if a GC is currently stopping the world (§4.6 step 4, §5's
// "native_exit_jni (possible wait if GC in progress)").
func ExitJNI(thread *safepoint.Thread) {
	thread.LeaveSafeRegion()
}
