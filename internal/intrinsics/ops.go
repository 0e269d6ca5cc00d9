/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package intrinsics

import (
	"github.com/pkg/errors"

	"foxvm/internal/classinfo"
	"foxvm/internal/classloader"
	"foxvm/internal/excnames"
	"foxvm/internal/exceptions"
	"foxvm/internal/frames"
	"foxvm/internal/gc"
	"foxvm/internal/heap"
	"foxvm/internal/jni"
	"foxvm/internal/object"
	"foxvm/internal/safepoint"
	"foxvm/internal/stringpool"
)

// Machine bundles the process-wide singletons every intrinsic needs,
// threaded explicitly per §9's "Global mutable state" design note
// rather than exposed as unscoped package globals.
type Machine struct {
	Heap     *heap.Heap
	Loader   *classloader.Classloader
	GC       *gc.Collector
	Strings  *stringpool.Pool
	Registry *safepoint.Registry
	Invoke   func(c *object.Class, m *classinfo.MethodInfo) error
}

// Thread bundles one executing thread's per-thread state: its
// safepoint bookkeeping, frame stack, TLAB, native-frame chain for JNI
// calls in progress, and pending-exception slot.
type Thread struct {
	ID       int64
	Safe     *safepoint.Thread
	Stack    *frames.Stack
	TLAB     *heap.TLAB
	Native   *jni.NativeFrame
	Exc      exceptions.Context
}

// NewThread creates a Thread's bookkeeping; the caller registers
// t.Safe with the Machine's Registry.
func NewThread(id int64, tlab *heap.TLAB) *Thread {
	return &Thread{
		ID:    id,
		Safe:  safepoint.NewThread(id),
		Stack: frames.NewStack(),
		TLAB:  tlab,
	}
}

// checkpoint implements §4.4/§5's "allocation is a safepoint": before
// attempting an allocation, give a pending GC the chance to run.
func (t *Thread) checkpoint() { t.Safe.Checkpoint() }

// --- Stack-shuffle family (§4.2, §8's dup_x2 round-trip property) ---

// Dup duplicates the top slot: ..., a -> ..., a, a.
func Dup(f *frames.Frame) { f.Push(f.Peek()) }

// DupX1: ..., a, b -> ..., b, a, b (Form 1 inserts one slot back).
func DupX1(f *frames.Frame) {
	b := f.Pop()
	a := f.Pop()
	f.Push(b)
	f.Push(a)
	f.Push(b)
}

// DupX2Form1 implements dup_x2 Form 1 (three category-1 values):
// ..., a, b, c -> ..., c, a, b, c.
func DupX2Form1(f *frames.Frame) {
	c := f.Pop()
	b := f.Pop()
	a := f.Pop()
	f.Push(c)
	f.Push(a)
	f.Push(b)
	f.Push(c)
}

// DupX2Form2 implements dup_x2 Form 2 (a is category-1, b is
// category-2, occupying one slot per the glossary's Category 1/2
// entry): ..., a, b -> ..., b, a, b.
func DupX2Form2(f *frames.Frame) {
	DupX1(f)
}

// Dup2 duplicates the top two slots: ..., a, b -> ..., a, b, a, b
// (dup2 Form 1). A single category-2 value on top is not special-cased.
func Dup2(f *frames.Frame) {
	b := f.Pop()
	a := f.Pop()
	f.Push(a)
	f.Push(b)
	f.Push(a)
	f.Push(b)
}

// Pop/Pop2 discard one/two slots; Pop2 always removes two slots.
func Pop(f *frames.Frame)  { f.Pop() }
func Pop2(f *frames.Frame) { f.Pop(); f.Pop() }

// Swap exchanges the top two category-1 slots: ..., a, b -> ..., b, a.
func Swap(f *frames.Frame) {
	b := f.Pop()
	a := f.Pop()
	f.Push(b)
	f.Push(a)
}

// --- Object-model intrinsics (§4.2, §4.3, §4.4's write barrier) ---

// New implements the `new` instruction: resolve+initialize the class,
// size its instance, allocate through the heap (recording the
// synthetic address/generation on the header for GC/card-table
// purposes), and construct the zero-valued instance.
func New(m *Machine, t *Thread, className string) (*object.Object, error) {
	t.checkpoint()

	class, err := m.Loader.Load(className)
	if err != nil {
		return nil, err
	}
	if err := classloader.Initialize(class, t.ID, m.Invoke); err != nil {
		return nil, err
	}

	size := class.Info().InstanceSize
	if size == 0 {
		size = uintptr(len(class.InstanceFields)) * 8
	}
	addr, gen, err := m.Heap.Alloc(t.TLAB, size)
	if err != nil {
		return nil, errors.Wrap(err, "new: heap allocation failed")
	}

	obj := object.NewObject(class)
	obj.SetAddr(addr)
	obj.SetGen(int32(gen))
	return obj, nil
}

// NewArray implements newarray/anewarray: allocate a zeroed array of
// length elements with the given component descriptor.
func NewArray(m *Machine, t *Thread, elemDescriptor string, length int32) (*object.Array, error) {
	t.checkpoint()

	if length < 0 {
		_, err := exceptions.Throw(&t.Exc, m.Loader, t.ID, excnames.NegativeArraySizeException, "", m.Invoke)
		if err != nil {
			return nil, err
		}
		return nil, errors.New(excnames.NegativeArraySizeException)
	}

	elemSize := elementSize(elemDescriptor)
	size := uintptr(16) + uintptr(length)*elemSize // header-equivalent + length + elements
	addr, gen, err := m.Heap.Alloc(t.TLAB, size)
	if err != nil {
		return nil, errors.Wrap(err, "newarray: heap allocation failed")
	}

	arr := &object.Array{ElemType: elemDescriptor, Length: length}
	arr.SetAddr(addr)
	arr.SetGen(int32(gen))
	arr.Elements = zeroElements(elemDescriptor, length)
	return arr, nil
}

func elementSize(descriptor string) uintptr {
	if len(descriptor) == 0 {
		return 8
	}
	switch descriptor[0] {
	case 'B', 'Z':
		return 1
	case 'C', 'S':
		return 2
	case 'I', 'F':
		return 4
	case 'J', 'D':
		return 8
	default: // references
		return 8
	}
}

func zeroElements(descriptor string, length int32) interface{} {
	if len(descriptor) == 0 {
		return make([]*object.Object, length)
	}
	switch descriptor[0] {
	case 'B':
		return make([]int8, length)
	case 'Z':
		return make([]bool, length)
	case 'C':
		return make([]uint16, length)
	case 'S':
		return make([]int16, length)
	case 'I':
		return make([]int32, length)
	case 'F':
		return make([]float32, length)
	case 'J':
		return make([]int64, length)
	case 'D':
		return make([]float64, length)
	default:
		return make([]*object.Object, length)
	}
}

// CheckArrayBounds implements the array-load/store bounds check,
// returning an ArrayIndexOutOfBoundsException via t.Exc on failure.
func CheckArrayBounds(m *Machine, t *Thread, arr *object.Array, index int32) error {
	if arr == nil {
		_, err := exceptions.ThrowNullPointerException(&t.Exc, m.Loader, t.ID, m.Invoke)
		if err != nil {
			return err
		}
		return errors.New(excnames.NullPointerException)
	}
	if index < 0 || index >= arr.Length {
		_, err := exceptions.ThrowArrayIndexOutOfBounds(&t.Exc, m.Loader, t.ID, int(index), int(arr.Length), m.Invoke)
		if err != nil {
			return err
		}
		return errors.New(excnames.ArrayIndexOutOfBoundsException)
	}
	return nil
}

// ArrayStoreRef implements the reference-array store's runtime type
// check (ArrayStoreException) plus the write barrier: if the array is
// older than the generation of the value being stored, dirty the card
// covering the array (Open Question #2's resolution — implemented
// here rather than left a TODO).
func ArrayStoreRef(m *Machine, t *Thread, arr *object.Array, index int32, value *object.Object) error {
	if err := CheckArrayBounds(m, t, arr, index); err != nil {
		return err
	}
	if value != nil {
		compType := componentClassName(arr.ElemType)
		valueClass := value.ClassOf()
		if compType != "" && valueClass != nil {
			compClass, err := m.Loader.Load(compType)
			if err == nil && !classloader.IsAssignableFrom(valueClass.Info(), compClass.Info()) {
				_, tErr := exceptions.Throw(&t.Exc, m.Loader, t.ID, excnames.ArrayStoreException, valueClass.Name(), m.Invoke)
				if tErr != nil {
					return tErr
				}
				return errors.New(excnames.ArrayStoreException)
			}
		}
	}

	refs := arr.Elements.([]*object.Object)
	refs[index] = value
	writeBarrier(m, arr.Addr(), arr.Gen(), value)
	return nil
}

func componentClassName(descriptor string) string {
	if len(descriptor) > 1 && descriptor[0] == 'L' && descriptor[len(descriptor)-1] == ';' {
		return descriptor[1 : len(descriptor)-1]
	}
	return ""
}

// PutField implements putfield's write barrier half: after storing a
// reference value into obj's field slot i, dirty obj's card if obj is
// in an older generation than value (§4.4's card-table rule).
func PutField(m *Machine, obj *object.Object, fieldIndex int, value interface{}) {
	obj.Fields[fieldIndex].Fvalue = value
	if ref, ok := value.(*object.Object); ok {
		writeBarrier(m, obj.Addr(), obj.Gen(), ref)
	}
}

func writeBarrier(m *Machine, holderAddr uintptr, holderGen int32, value *object.Object) {
	if value == nil {
		return
	}
	if holderGen > value.Gen() {
		m.Heap.DirtyCardFor(holderAddr)
	}
}

// CheckCast implements checkcast: nil is always assignable; otherwise
// the object's class must be IsAssignableFrom to targetClass, or
// ClassCastException is thrown via t.Exc.
func CheckCast(m *Machine, t *Thread, obj *object.Object, target *object.Class) error {
	if obj == nil {
		return nil
	}
	if classloader.IsAssignableFrom(obj.ClassOf().Info(), target.Info()) {
		return nil
	}
	_, err := exceptions.ThrowClassCastException(&t.Exc, m.Loader, t.ID, obj.ClassOf().Name(), target.Name(), m.Invoke)
	if err != nil {
		return err
	}
	return errors.New(excnames.ClassCastException)
}

// InstanceOf implements instanceof: nil is never an instance of
// anything (returns false, not an exception).
func InstanceOf(obj *object.Object, target *object.Class) bool {
	if obj == nil {
		return false
	}
	return classloader.IsAssignableFrom(obj.ClassOf().Info(), target.Info())
}

// AThrow implements athrow: unwind t's frame stack to the innermost
// handler matching excObj's class, or report the exception as
// uncaught so the CLI entry point can print a stack trace and abort
// (§6, §7).
func AThrow(t *Thread, excObj *object.Object) (handlerFrame *frames.Frame, caught bool) {
	return exceptions.Unwind(t.Stack, excObj.ClassOf().Info(), excObj)
}

// MonitorEnter/MonitorExit implement the monitorenter/monitorexit
// instructions over the object's lazily-created monitor (§4.5).
func MonitorEnter(t *Thread, obj *object.Object) {
	t.checkpoint()
	obj.Header.Monitor().Enter(t.ID)
}

func MonitorExit(t *Thread, obj *object.Object) error {
	return obj.Header.Monitor().Exit(t.ID)
}

// InvokeVirtual implements invoke_virtual: dispatch through the
// receiver's actual class vtable at the translator-assigned slot index
// the call site was compiled against (§4.1). A nil receiver sets a
// pending NullPointerException via t.Exc, matching every other
// resolution failure in this file (§4.2), rather than a bare sentinel
// error.
func InvokeVirtual(m *Machine, t *Thread, obj *object.Object, vtableIndex int) (*classinfo.MethodInfo, error) {
	if obj == nil {
		_, err := exceptions.ThrowNullPointerException(&t.Exc, m.Loader, t.ID, m.Invoke)
		if err != nil {
			return nil, err
		}
		return nil, errors.New(excnames.NullPointerException)
	}
	class := obj.ClassOf()
	vt := class.Info().Vtable
	if vtableIndex < 0 || vtableIndex >= len(vt) {
		return nil, errors.New(excnames.IncompatibleClassChangeError)
	}
	return vt[vtableIndex].Method, nil
}

// InvokeInterface implements invoke_interface: map the interface
// method index to the receiver's vtable slot via its itable (§4.1). If
// the receiver's own class has no itable entry for iface, its
// superclass chain is walked in turn (a class can inherit an
// interface implementation from an ancestor without recording its own
// itable entry for it); if that also fails, iface's own declared
// method at interfaceMethodIndex is used as a default-method body when
// it has one, and only then is AbstractMethodError signaled. A nil
// receiver sets a pending NullPointerException via t.Exc (§4.2).
func InvokeInterface(m *Machine, t *Thread, obj *object.Object, iface *object.Class, interfaceMethodIndex int) (*classinfo.MethodInfo, error) {
	if obj == nil {
		_, err := exceptions.ThrowNullPointerException(&t.Exc, m.Loader, t.ID, m.Invoke)
		if err != nil {
			return nil, err
		}
		return nil, errors.New(excnames.NullPointerException)
	}

	for class := obj.ClassOf(); class != nil; class = class.Super {
		entries, ok := class.Info().Itable[iface.Info()]
		if !ok {
			continue
		}
		for _, e := range entries {
			if e.InterfaceMethodIndex != interfaceMethodIndex {
				continue
			}
			vt := class.Info().Vtable
			if e.VtableIndex < 0 || e.VtableIndex >= len(vt) {
				return nil, errors.New(excnames.AbstractMethodError)
			}
			return vt[e.VtableIndex].Method, nil
		}
	}

	if md := interfaceDefaultMethod(iface, interfaceMethodIndex); md != nil {
		return md, nil
	}
	return nil, errors.New(excnames.AbstractMethodError)
}

// interfaceDefaultMethod returns iface's own method declared at
// interfaceMethodIndex if it carries a body (a default method), or nil
// if the slot is out of range or the method is a bare abstract
// declaration.
func interfaceDefaultMethod(iface *object.Class, interfaceMethodIndex int) *classinfo.MethodInfo {
	methods := iface.Info().Methods
	if interfaceMethodIndex < 0 || interfaceMethodIndex >= len(methods) {
		return nil
	}
	md := &methods[interfaceMethodIndex]
	if md.Fn == nil {
		return nil
	}
	return md
}

// InvokeStatic/InvokeSpecial resolve directly by (name, descriptor) on
// the statically-known target class, per JVMS's non-virtual dispatch
// rule. Both initialize the target class before returning the method:
// InvokeStatic runs classloader.Initialize, and InvokeSpecial delegates
// to InvokeStatic.
func InvokeStatic(m *Machine, t *Thread, class *object.Class, name, descriptor string) (*classinfo.MethodInfo, error) {
	if err := classloader.Initialize(class, t.ID, m.Invoke); err != nil {
		return nil, err
	}
	method, _, ok := classloader.MethodFind(class, name, descriptor)
	if !ok {
		return nil, errors.New(excnames.NoSuchFieldError)
	}
	return method, nil
}

func InvokeSpecial(m *Machine, t *Thread, class *object.Class, name, descriptor string) (*classinfo.MethodInfo, error) {
	return InvokeStatic(m, t, class, name, descriptor)
}
