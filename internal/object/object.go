/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object defines the runtime object model of spec.md §3: the
// per-object header with its tagged class pointer and lazily-created
// monitor, the runtime Class (one per loaded ClassInfo, with its
// lifecycle state machine), and the Field/Array value representations
// intrinsics in internal/intrinsics operate on.
//
// Class and Object live in the same package (rather than split the way
// jacobin splits object/ and classloader/) because spec.md's object
// header embeds a tagged *Class pointer and Class's ClassInstance field
// is a *Object — two-way reference that would otherwise force an
// import cycle; internal/classloader owns only the load/link/init
// *behavior* over this package's Class type.
package object

import (
	"sync/atomic"
	"unsafe"

	"foxvm/internal/classinfo"
	"foxvm/internal/monitor"
)

// Header-tag bits packed into the low 2 bits of a Class pointer, per
// §3/§9 ("Pointer tagging"). classinfo.ClassInfo.ClassSize's alignment
// requirement (>= 4 bytes) is what makes this legal.
const (
	FlagMarked = uintptr(1) << 0
	FlagPinned = uintptr(1) << 1
	tagMask    = FlagMarked | FlagPinned
)

// Header is the fixed portion every heap object carries: word 0 is the
// tagged class pointer, word 1 the lazily-allocated monitor pointer
// (§6 "Object header layout"). Addr and gen are this runtime's
// adaptation of §4.4's generational bookkeeping to a host language that
// already owns physical object placement: addr is a synthetic heap
// address internal/heap hands out purely to index the card/brick
// tables and decide generation membership, and gen records which
// generation this object currently belongs to, both driven by
// internal/heap/internal/gc rather than by this package. See
// DESIGN.md's internal/heap entry for why.
type Header struct {
	classWord uintptr
	mon       unsafe.Pointer // *monitor.Monitor, atomically swapped in
	addr      uintptr
	gen       int32
	// cls holds the same *Class as classWord as a real pointer, so Go's
	// escape analysis and GC see the reference the uintptr word hides.
	cls *Class
}

// Addr returns this object's synthetic heap address.
func (h *Header) Addr() uintptr { return atomic.LoadUintptr(&h.addr) }

// SetAddr installs the synthetic heap address internal/heap assigned
// at allocation time.
func (h *Header) SetAddr(a uintptr) { atomic.StoreUintptr(&h.addr, a) }

// Gen returns this object's current generation (0/1/2 for SOH, 3 for LOH).
func (h *Header) Gen() int32 { return atomic.LoadInt32(&h.gen) }

// SetGen records a generation transition (object creation or promotion).
func (h *Header) SetGen(g int32) { atomic.StoreInt32(&h.gen, g) }

// ClassOf is the single abstraction point §9 calls for: every read of
// an object's class must route through here, which masks the GC tag
// bits before casting back to a *Class. Do not scatter the masking
// logic elsewhere.
func (h *Header) ClassOf() *Class {
	word := atomic.LoadUintptr(&h.classWord)
	return (*Class)(unsafe.Pointer(word &^ tagMask))
}

// SetClass installs c as this header's class, preserving whatever GC
// tag bits are currently set.
func (h *Header) SetClass(c *Class) {
	h.cls = c
	for {
		old := atomic.LoadUintptr(&h.classWord)
		newWord := uintptr(unsafe.Pointer(c)) | (old & tagMask)
		if atomic.CompareAndSwapUintptr(&h.classWord, old, newWord) {
			return
		}
	}
}

// Marked/SetMarked/Pinned/SetPinned manipulate the GC tag bits in
// place, without disturbing the class pointer itself.
func (h *Header) Marked() bool { return atomic.LoadUintptr(&h.classWord)&FlagMarked != 0 }

func (h *Header) SetMarked(v bool) { h.setFlag(FlagMarked, v) }

func (h *Header) Pinned() bool { return atomic.LoadUintptr(&h.classWord)&FlagPinned != 0 }

func (h *Header) SetPinned(v bool) { h.setFlag(FlagPinned, v) }

func (h *Header) setFlag(flag uintptr, v bool) {
	for {
		old := atomic.LoadUintptr(&h.classWord)
		var newWord uintptr
		if v {
			newWord = old | flag
		} else {
			newWord = old &^ flag
		}
		if atomic.CompareAndSwapUintptr(&h.classWord, old, newWord) {
			return
		}
	}
}

// Monitor returns this object's lazily-created monitor, allocating one
// on first use (§4.5). A CAS races callers harmlessly: only one
// allocated Monitor ever wins and is published.
func (h *Header) Monitor() *monitor.Monitor {
	if p := atomic.LoadPointer(&h.mon); p != nil {
		return (*monitor.Monitor)(p)
	}
	fresh := monitor.New()
	if atomic.CompareAndSwapPointer(&h.mon, nil, unsafe.Pointer(fresh)) {
		return fresh
	}
	return (*monitor.Monitor)(atomic.LoadPointer(&h.mon))
}

// SetMonitor installs a pre-created monitor, used for the class object
// of an in-flight Class so that no object ever has a nil monitor
// allocated recursively while its own class is still being built (§4.5).
func (h *Header) SetMonitor(m *monitor.Monitor) {
	atomic.StorePointer(&h.mon, unsafe.Pointer(m))
}

// Field holds one instance or static field's runtime value, tagged
// with its descriptor so GC root/field scanning and the category-1/2
// discipline (§4.2) both have what they need without re-deriving it
// from the owning class's metadata on every access.
type Field struct {
	Ftype  string
	Fvalue interface{}
}

// IsReference reports whether this field holds an object/array
// reference rather than a primitive.
func (f *Field) IsReference() bool {
	return len(f.Ftype) > 0 && (f.Ftype[0] == 'L' || f.Ftype[0] == '[')
}

// Object is an ordinary (non-array) heap object: a Header plus its
// resolved instance fields, indexed by the translator-assigned slot
// (standing in for a byte offset — see DESIGN.md on why this runtime
// uses a Go slice index rather than raw byte arithmetic here).
type Object struct {
	Header
	Fields []Field
}

// Array is a heap object with a length prefix and homogeneous
// elements, per §3's "Arrays add a 32-bit length followed by
// naturally-aligned elements."
type Array struct {
	Header
	ElemType string // element descriptor, e.g. "I", "Ljava/lang/String;"
	Length   int32
	// Elements holds the backing storage. Reference-array code asserts
	// this is []*Object; primitive-array code asserts the matching Go
	// slice type ([]int32, []int64, []float32, []float64, []int16,
	// []int8/[]types.JavaByte, []uint16, []bool) — mirroring the
	// per-kind typed-array helpers jacobin keeps in object/javaByteArray.go.
	Elements interface{}
}

// NewObject allocates a zero-valued instance of class c with one Field
// slot per instance field class c (and its superclasses) declares, in
// the order internal/classloader resolved them.
func NewObject(c *Class) *Object {
	obj := &Object{}
	obj.SetClass(c)
	obj.Fields = make([]Field, len(c.InstanceFields))
	for i, rf := range c.InstanceFields {
		obj.Fields[i] = Field{Ftype: rf.Info.Descriptor, Fvalue: zeroValue(rf.Info.Descriptor)}
	}
	return obj
}

// FieldByName looks up a field slot by its translator-assigned name,
// adapting jacobin's name-keyed FieldTable access (gfunction natives
// expect to find a field like "detailMessage" or "value" by name) to
// this runtime's slot-indexed Object.Fields, by consulting the class's
// resolved InstanceFields for the matching Offset.
func (o *Object) FieldByName(name string) (*Field, bool) {
	cls := o.ClassOf()
	if cls == nil {
		return nil, false
	}
	for _, rf := range cls.InstanceFields {
		if rf.Info.Name == name {
			return &o.Fields[rf.Offset], true
		}
	}
	return nil, false
}

func zeroValue(descriptor string) interface{} {
	if len(descriptor) == 0 {
		return nil
	}
	switch descriptor[0] {
	case 'L', '[':
		return (*Object)(nil)
	case 'J':
		return int64(0)
	case 'F':
		return float32(0)
	case 'D':
		return float64(0)
	case 'Z':
		return false
	default: // B C S I
		return int32(0)
	}
}

// ClassState is the monotonic lifecycle state machine of §3/§4.1.
type ClassState int32

const (
	StateAllocated ClassState = iota
	StateRegistered
	StateResolved
	StateInitializing
	StateInitialized
	StateError
)

// ResolvedField pairs a static description with the slot index
// internal/classloader assigned it, accounting for superclass layout.
type ResolvedField struct {
	Info   *classinfo.FieldInfo
	Offset int // slot index into Object.Fields / Class.StaticFields
}

// Class is the runtime counterpart of one loaded ClassInfo (§3). Array
// classes are plain Classes over a ClassInfo that internal/classloader's
// loadArrayClass synthesizes, with ComponentType set on that ClassInfo.
type Class struct {
	Header // so a Class can itself be addressed like any heap block (§4.1 step 4: allocated contiguously with its Class instance in the LOH)

	info *classinfo.ClassInfo

	state int32 // atomic ClassState

	Loader string // classloader name; "" denotes bootstrap

	Super      *Class
	Interfaces []*Class

	StaticFields   []Field
	InstanceFields []ResolvedField

	HasReference       bool
	HasStaticReference bool

	// ClassInstance is the slot for the canonical java.lang.Class object
	// mirroring this Class. No code in this runtime assigns it, so it
	// stays nil.
	ClassInstance *Object

	// InitThreadID supports the JLS §5.5 recursive-init detection of
	// §4.1; 0 means "not currently initializing".
	InitThreadID int64
}

// NewClass allocates a Class block in the Allocated state. Real
// placement (LOH, contiguous with its Class instance) is
// internal/classloader's responsibility; this constructor only
// establishes Go-level identity.
func NewClass(info *classinfo.ClassInfo) *Class {
	c := &Class{info: info}
	atomic.StoreInt32(&c.state, int32(StateAllocated))
	return c
}

// Info returns the translator-emitted static description, satisfying
// classinfo.RuntimeClass so ResolveHandler callbacks can use it without
// classinfo importing this package.
func (c *Class) Info() *classinfo.ClassInfo { return c.info }

// State returns the class's current lifecycle state.
func (c *Class) State() ClassState { return ClassState(atomic.LoadInt32(&c.state)) }

// SetState sets the class's lifecycle state. §3's monotonicity
// invariant (state never regresses except Initializing->Error) is
// enforced by internal/classloader, the only caller.
func (c *Class) SetState(s ClassState) { atomic.StoreInt32(&c.state, int32(s)) }

// Name returns the class's internal (slash-separated) name.
func (c *Class) Name() string { return c.info.Name }
