/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package intrinsics

import (
	"testing"

	"foxvm/internal/classinfo"
	"foxvm/internal/classloader"
	"foxvm/internal/excnames"
	"foxvm/internal/frames"
	"foxvm/internal/gc"
	"foxvm/internal/heap"
	"foxvm/internal/object"
	"foxvm/internal/safepoint"
	"foxvm/internal/stringpool"
)

type noRoots struct{}

func (noRoots) GCRoots() []*object.Object { return nil }

func noopInvoke(c *object.Class, m *classinfo.MethodInfo) error { return nil }

func newTestMachine(t *testing.T) (*Machine, *Thread) {
	t.Helper()
	h, err := heap.New()
	if err != nil {
		t.Fatalf("heap.New() error = %v", err)
	}
	tlab, err := h.NewTLAB()
	if err != nil {
		t.Fatalf("NewTLAB() error = %v", err)
	}
	registry := safepoint.NewRegistry()
	m := &Machine{
		Heap:     h,
		Loader:   classloader.New("test", nil),
		GC:       gc.New(h, registry, noRoots{}),
		Strings:  stringpool.New(),
		Registry: registry,
		Invoke:   noopInvoke,
	}
	thread := NewThread(1, tlab)
	registry.Add(thread.Safe)
	return m, thread
}

// exceptionHierarchy returns a standard java/lang/Throwable hierarchy
// covering every exception the ops.go intrinsics can throw, since
// exceptions.Throw resolves its exception class through the same
// classinfo.Registry/Loader path as ordinary classes.
func exceptionHierarchy() (objectInfo, throwableInfo *classinfo.ClassInfo, all []*classinfo.ClassInfo) {
	objectInfo = &classinfo.ClassInfo{Name: "java/lang/Object"}
	throwableInfo = &classinfo.ClassInfo{
		Name:  "java/lang/Throwable",
		Super: objectInfo,
		Fields: []classinfo.FieldInfo{
			{Name: "detailMessage", Descriptor: "Ljava/lang/String;", IsReference: true},
		},
	}
	all = []*classinfo.ClassInfo{
		objectInfo,
		throwableInfo,
		{Name: excnames.NullPointerException, Super: throwableInfo},
		{Name: excnames.ArrayIndexOutOfBoundsException, Super: throwableInfo},
		{Name: excnames.NegativeArraySizeException, Super: throwableInfo},
		{Name: excnames.ArrayStoreException, Super: throwableInfo},
		{Name: excnames.ClassCastException, Super: throwableInfo},
	}
	return
}

// registerExceptions installs just the standard exception hierarchy, for
// tests that only need a throw path to resolve, not an application class.
func registerExceptions(t *testing.T) {
	t.Helper()
	_, _, all := exceptionHierarchy()
	classinfo.RegisterAll(all)
	t.Cleanup(func() { classinfo.RegisterAll(nil) })
}

// registerClass installs ci (defaulting its superclass to java/lang/Object
// when unset) alongside the standard exception hierarchy in one
// classinfo.RegisterAll call, since RegisterAll replaces the whole registry.
func registerClass(t *testing.T, ci *classinfo.ClassInfo) {
	t.Helper()
	objectInfo, _, all := exceptionHierarchy()
	if ci.Name != "java/lang/Object" && ci.Super == nil {
		ci.Super = objectInfo
	}
	all = append(all, ci)
	classinfo.RegisterAll(all)
	t.Cleanup(func() { classinfo.RegisterAll(nil) })
}

// --- stack-shuffle family ---

func TestDupDuplicatesTopSlot(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Push(int32(7))
	Dup(f)
	if f.Pop() != int32(7) || f.Pop() != int32(7) {
		t.Error("Dup should leave two copies of the top value")
	}
}

func TestDupX1InsertsOneSlotBack(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Push(int32(1))
	f.Push(int32(2))
	DupX1(f)
	// ..., a, b -> ..., b, a, b
	if got := f.Pop(); got != int32(2) {
		t.Fatalf("top = %v, want 2", got)
	}
	if got := f.Pop(); got != int32(1) {
		t.Fatalf("next = %v, want 1", got)
	}
	if got := f.Pop(); got != int32(2) {
		t.Fatalf("bottom = %v, want 2", got)
	}
}

func TestDupX2Form1ThreeWayRotate(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Push(int32(1))
	f.Push(int32(2))
	f.Push(int32(3))
	DupX2Form1(f)
	// ..., a, b, c -> ..., c, a, b, c
	want := []int32{3, 2, 1, 3}
	for i := len(want) - 1; i >= 0; i-- {
		if got := f.Pop(); got != want[i] {
			t.Fatalf("pop order mismatch at want[%d]: got %v, want %v", i, got, want[i])
		}
	}
}

func TestDup2DuplicatesTopTwoSlots(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Push(int32(1))
	f.Push(int32(2))
	Dup2(f)
	want := []int32{1, 2, 1, 2}
	for i := len(want) - 1; i >= 0; i-- {
		if got := f.Pop(); got != want[i] {
			t.Fatalf("pop order mismatch at want[%d]: got %v, want %v", i, got, want[i])
		}
	}
}

func TestSwapExchangesTopTwo(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Push(int32(1))
	f.Push(int32(2))
	Swap(f)
	if got := f.Pop(); got != int32(1) {
		t.Fatalf("top after swap = %v, want 1", got)
	}
	if got := f.Pop(); got != int32(2) {
		t.Fatalf("bottom after swap = %v, want 2", got)
	}
}

func TestPopAndPop2DiscardSlots(t *testing.T) {
	f := frames.CreateFrame(4)
	f.Push(int32(1))
	f.Push(int32(2))
	f.Push(int32(3))
	Pop(f)
	Pop2(f)
	if f.TOS != -1 {
		t.Errorf("TOS after Pop+Pop2 = %d, want -1 (empty)", f.TOS)
	}
}

// --- object-model intrinsics ---

func TestNewAllocatesZeroedInstance(t *testing.T) {
	m, thread := newTestMachine(t)
	registerClass(t, &classinfo.ClassInfo{
		Name: "com/example/Widget",
		Fields: []classinfo.FieldInfo{
			{Name: "count", Descriptor: "I"},
		},
	})

	obj, err := New(m, thread, "com/example/Widget")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if obj.ClassOf().Name() != "com/example/Widget" {
		t.Errorf("ClassOf().Name() = %q, want com/example/Widget", obj.ClassOf().Name())
	}
	if len(obj.Fields) != 1 || obj.Fields[0].Fvalue != int32(0) {
		t.Errorf("Fields = %+v, want one zeroed int field", obj.Fields)
	}
}

func TestNewArrayRejectsNegativeLength(t *testing.T) {
	m, thread := newTestMachine(t)
	registerExceptions(t)
	if _, err := NewArray(m, thread, "I", -1); err == nil {
		t.Fatal("NewArray with a negative length should fail")
	}
	if thread.Exc.Pending == nil {
		t.Fatal("NewArray with a negative length should set a pending NegativeArraySizeException")
	}
	if thread.Exc.Pending.ClassOf().Name() != excnames.NegativeArraySizeException {
		t.Errorf("pending exception class = %q, want %q", thread.Exc.Pending.ClassOf().Name(), excnames.NegativeArraySizeException)
	}
}

func TestNewArrayZeroesPrimitiveElements(t *testing.T) {
	m, thread := newTestMachine(t)
	arr, err := NewArray(m, thread, "I", 4)
	if err != nil {
		t.Fatalf("NewArray() error = %v", err)
	}
	ints, ok := arr.Elements.([]int32)
	if !ok || len(ints) != 4 {
		t.Fatalf("Elements = %v (%T), want []int32 of length 4", arr.Elements, arr.Elements)
	}
}

func TestCheckArrayBoundsOutOfRange(t *testing.T) {
	m, thread := newTestMachine(t)
	registerExceptions(t)
	arr, err := NewArray(m, thread, "I", 3)
	if err != nil {
		t.Fatalf("NewArray() error = %v", err)
	}
	if err := CheckArrayBounds(m, thread, arr, 3); err == nil {
		t.Error("CheckArrayBounds(index=length) should fail")
	}
	if err := CheckArrayBounds(m, thread, arr, -1); err == nil {
		t.Error("CheckArrayBounds(index=-1) should fail")
	}
	if err := CheckArrayBounds(m, thread, arr, 2); err != nil {
		t.Errorf("CheckArrayBounds(index=2) unexpected error = %v", err)
	}
}

func TestCheckArrayBoundsNilArrayIsNullPointer(t *testing.T) {
	m, thread := newTestMachine(t)
	registerExceptions(t)
	if err := CheckArrayBounds(m, thread, nil, 0); err == nil {
		t.Fatal("CheckArrayBounds on a nil array should fail")
	}
	if thread.Exc.Pending.ClassOf().Name() != excnames.NullPointerException {
		t.Errorf("pending exception = %q, want NullPointerException", thread.Exc.Pending.ClassOf().Name())
	}
}

func TestPutFieldDirtiesCardOnOldToYoungReference(t *testing.T) {
	m, thread := newTestMachine(t)
	registerClass(t, &classinfo.ClassInfo{
		Name: "com/example/Holder",
		Fields: []classinfo.FieldInfo{
			{Name: "ref", Descriptor: "Ljava/lang/Object;", IsReference: true},
		},
	})
	holder, err := New(m, thread, "com/example/Holder")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	holder.SetGen(int32(heap.Gen2))

	young, err := New(m, thread, "com/example/Holder")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	young.SetGen(int32(heap.Gen0))

	PutField(m, holder, 0, young)

	if !m.Heap.CardIsDirty(holder.Addr()) {
		t.Error("PutField storing a younger object into an older holder should dirty the holder's card")
	}
}

func TestCheckCastAndInstanceOf(t *testing.T) {
	m, thread := newTestMachine(t)
	objectInfo, _, all := exceptionHierarchy()
	base := &classinfo.ClassInfo{Name: "com/example/Base", Super: objectInfo}
	derived := &classinfo.ClassInfo{Name: "com/example/Derived", Super: base}
	classinfo.RegisterAll(append(all, base, derived))
	t.Cleanup(func() { classinfo.RegisterAll(nil) })

	baseClass, err := m.Loader.Load("com/example/Base")
	if err != nil {
		t.Fatalf("Load(Base) error = %v", err)
	}
	derivedObj, err := New(m, thread, "com/example/Derived")
	if err != nil {
		t.Fatalf("New(Derived) error = %v", err)
	}

	if err := CheckCast(m, thread, derivedObj, baseClass); err != nil {
		t.Errorf("CheckCast(Derived -> Base) should succeed, got %v", err)
	}
	if !InstanceOf(derivedObj, baseClass) {
		t.Error("InstanceOf(Derived, Base) should be true")
	}
	if InstanceOf(nil, baseClass) {
		t.Error("InstanceOf(nil, _) should always be false")
	}
	if err := CheckCast(m, thread, nil, baseClass); err != nil {
		t.Error("CheckCast(nil, _) should never fail")
	}

	unrelated := &classinfo.ClassInfo{Name: "com/example/Unrelated", Super: objectInfo}
	classinfo.RegisterAll(append(all, base, derived, unrelated))
	unrelatedClass, err := m.Loader.Load("com/example/Unrelated")
	if err != nil {
		t.Fatalf("Load(Unrelated) error = %v", err)
	}
	if err := CheckCast(m, thread, derivedObj, unrelatedClass); err == nil {
		t.Error("CheckCast(Derived -> Unrelated) should fail with ClassCastException")
	}
}

func TestMonitorEnterExitRoundTrips(t *testing.T) {
	_, thread := newTestMachine(t)
	obj := &object.Object{}

	MonitorEnter(thread, obj)
	MonitorEnter(thread, obj) // reentrant
	if err := MonitorExit(thread, obj); err != nil {
		t.Fatalf("first MonitorExit error = %v", err)
	}
	if err := MonitorExit(thread, obj); err != nil {
		t.Fatalf("second MonitorExit error = %v", err)
	}
	if err := MonitorExit(thread, obj); err == nil {
		t.Error("MonitorExit by a thread that no longer owns the monitor should fail")
	}
}

func TestInvokeVirtualDispatchesThroughVtable(t *testing.T) {
	m, thread := newTestMachine(t)
	greet := classinfo.MethodInfo{Name: "greet", Descriptor: "()V"}
	ci := &classinfo.ClassInfo{
		Name:   "com/example/Greeter",
		Vtable: []classinfo.VtableEntry{{Method: &greet}},
	}
	registerClass(t, ci)

	obj, err := New(m, thread, "com/example/Greeter")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := InvokeVirtual(m, thread, obj, 0)
	if err != nil {
		t.Fatalf("InvokeVirtual() error = %v", err)
	}
	if got.Name != "greet" {
		t.Errorf("InvokeVirtual() resolved %q, want greet", got.Name)
	}

	if _, err := InvokeVirtual(m, thread, nil, 0); err == nil {
		t.Error("InvokeVirtual on a nil receiver should fail with NullPointerException")
	}
	if thread.Exc.Pending == nil || thread.Exc.Pending.ClassOf().Name() != excnames.NullPointerException {
		t.Error("InvokeVirtual on a nil receiver should set a pending NullPointerException")
	}
	thread.Exc.Clear()

	if _, err := InvokeVirtual(m, thread, obj, 5); err == nil {
		t.Error("InvokeVirtual with an out-of-range vtable index should fail")
	}
}

func TestInvokeInterfaceDispatchesThroughOwnItable(t *testing.T) {
	m, thread := newTestMachine(t)
	objectInfo, _, all := exceptionHierarchy()

	ifaceInfo := &classinfo.ClassInfo{
		Name:    "com/example/Greetable",
		Methods: []classinfo.MethodInfo{{Name: "f", Descriptor: "()I"}},
	}
	impl := classinfo.MethodInfo{Name: "f", Descriptor: "()I"}
	ci := &classinfo.ClassInfo{
		Name:       "com/example/Impl",
		Super:      objectInfo,
		Interfaces: []*classinfo.ClassInfo{ifaceInfo},
		Vtable:     []classinfo.VtableEntry{{Method: &impl}},
		Itable: map[*classinfo.ClassInfo][]classinfo.ItableEntry{
			ifaceInfo: {{InterfaceMethodIndex: 0, VtableIndex: 0}},
		},
	}
	classinfo.RegisterAll(append(all, ifaceInfo, ci))
	t.Cleanup(func() { classinfo.RegisterAll(nil) })

	ifaceClass, err := m.Loader.Load("com/example/Greetable")
	if err != nil {
		t.Fatalf("Load(iface) error = %v", err)
	}
	obj, err := New(m, thread, "com/example/Impl")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := InvokeInterface(m, thread, obj, ifaceClass, 0)
	if err != nil {
		t.Fatalf("InvokeInterface() error = %v", err)
	}
	if got.Name != "f" {
		t.Errorf("InvokeInterface() resolved %q, want f", got.Name)
	}
}

func TestInvokeInterfaceWalksSuperclassItable(t *testing.T) {
	m, thread := newTestMachine(t)
	objectInfo, _, all := exceptionHierarchy()

	ifaceInfo := &classinfo.ClassInfo{
		Name:    "com/example/Greetable2",
		Methods: []classinfo.MethodInfo{{Name: "f", Descriptor: "()I"}},
	}
	baseImpl := classinfo.MethodInfo{Name: "f", Descriptor: "()I"}
	baseInfo := &classinfo.ClassInfo{
		Name:       "com/example/Base2",
		Super:      objectInfo,
		Interfaces: []*classinfo.ClassInfo{ifaceInfo},
		Vtable:     []classinfo.VtableEntry{{Method: &baseImpl}},
		Itable: map[*classinfo.ClassInfo][]classinfo.ItableEntry{
			ifaceInfo: {{InterfaceMethodIndex: 0, VtableIndex: 0}},
		},
	}
	// Derived2 inherits Base2's implementation of f() but carries no
	// itable entry of its own for Greetable2: InvokeInterface must walk
	// Super to find it.
	derivedInfo := &classinfo.ClassInfo{
		Name:   "com/example/Derived2",
		Super:  baseInfo,
		Vtable: []classinfo.VtableEntry{{Method: &baseImpl}},
	}
	classinfo.RegisterAll(append(all, ifaceInfo, baseInfo, derivedInfo))
	t.Cleanup(func() { classinfo.RegisterAll(nil) })

	ifaceClass, err := m.Loader.Load("com/example/Greetable2")
	if err != nil {
		t.Fatalf("Load(iface) error = %v", err)
	}
	obj, err := New(m, thread, "com/example/Derived2")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := InvokeInterface(m, thread, obj, ifaceClass, 0)
	if err != nil {
		t.Fatalf("InvokeInterface() error = %v", err)
	}
	if got.Name != "f" {
		t.Errorf("InvokeInterface() resolved %q, want f", got.Name)
	}
}

// TestInvokeInterfaceFallsBackToDefaultMethodBody exercises the
// mandatory scenario "interface I { default int f() {return 1;} }
// class C implements I {}; new C().f() == 1": C declares no itable
// entry for f() at all, so resolution must fall through to I's own
// default method body rather than signaling AbstractMethodError.
func TestInvokeInterfaceFallsBackToDefaultMethodBody(t *testing.T) {
	m, thread := newTestMachine(t)
	objectInfo, _, all := exceptionHierarchy()

	defaultFn := func(ctx interface{}, args []interface{}) (interface{}, error) { return int32(1), nil }
	ifaceInfo := &classinfo.ClassInfo{
		Name: "com/example/HasDefault",
		Methods: []classinfo.MethodInfo{
			{Name: "f", Descriptor: "()I", Fn: defaultFn},
		},
	}
	ci := &classinfo.ClassInfo{
		Name:       "com/example/NoOverride",
		Super:      objectInfo,
		Interfaces: []*classinfo.ClassInfo{ifaceInfo},
	}
	classinfo.RegisterAll(append(all, ifaceInfo, ci))
	t.Cleanup(func() { classinfo.RegisterAll(nil) })

	ifaceClass, err := m.Loader.Load("com/example/HasDefault")
	if err != nil {
		t.Fatalf("Load(iface) error = %v", err)
	}
	obj, err := New(m, thread, "com/example/NoOverride")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := InvokeInterface(m, thread, obj, ifaceClass, 0)
	if err != nil {
		t.Fatalf("InvokeInterface() error = %v", err)
	}
	if got.Fn == nil {
		t.Fatal("InvokeInterface() should resolve the interface's default method body")
	}
	result, err := got.Fn(thread, nil)
	if err != nil {
		t.Fatalf("default method invocation error = %v", err)
	}
	if result != int32(1) {
		t.Errorf("default method returned %v, want 1", result)
	}
}

func TestInvokeInterfaceWithNoImplementationSignalsAbstractMethodError(t *testing.T) {
	m, thread := newTestMachine(t)
	objectInfo, _, all := exceptionHierarchy()

	ifaceInfo := &classinfo.ClassInfo{
		Name:    "com/example/Abstract",
		Methods: []classinfo.MethodInfo{{Name: "f", Descriptor: "()I"}},
	}
	ci := &classinfo.ClassInfo{
		Name:       "com/example/NoImpl",
		Super:      objectInfo,
		Interfaces: []*classinfo.ClassInfo{ifaceInfo},
	}
	classinfo.RegisterAll(append(all, ifaceInfo, ci))
	t.Cleanup(func() { classinfo.RegisterAll(nil) })

	ifaceClass, err := m.Loader.Load("com/example/Abstract")
	if err != nil {
		t.Fatalf("Load(iface) error = %v", err)
	}
	obj, err := New(m, thread, "com/example/NoImpl")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := InvokeInterface(m, thread, obj, ifaceClass, 0); err == nil {
		t.Error("InvokeInterface with no override and no default body should signal AbstractMethodError")
	}
}

func TestInvokeInterfaceNilReceiverSetsPendingNullPointerException(t *testing.T) {
	m, thread := newTestMachine(t)
	registerExceptions(t)
	iface := object.NewClass(&classinfo.ClassInfo{Name: "com/example/AnyIface"})

	if _, err := InvokeInterface(m, thread, nil, iface, 0); err == nil {
		t.Error("InvokeInterface on a nil receiver should fail with NullPointerException")
	}
	if thread.Exc.Pending == nil || thread.Exc.Pending.ClassOf().Name() != excnames.NullPointerException {
		t.Error("InvokeInterface on a nil receiver should set a pending NullPointerException")
	}
}

func TestInvokeStaticResolvesByNameAndDescriptor(t *testing.T) {
	m, thread := newTestMachine(t)
	ci := &classinfo.ClassInfo{
		Name: "com/example/Utils",
		Methods: []classinfo.MethodInfo{
			{Name: "helper", Descriptor: "()V"},
		},
	}
	registerClass(t, ci)

	class, err := m.Loader.Load("com/example/Utils")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	method, err := InvokeStatic(m, thread, class, "helper", "()V")
	if err != nil {
		t.Fatalf("InvokeStatic() error = %v", err)
	}
	if method.Name != "helper" {
		t.Errorf("InvokeStatic() resolved %q, want helper", method.Name)
	}

	if _, err := InvokeStatic(m, thread, class, "missing", "()V"); err == nil {
		t.Error("InvokeStatic() for an undeclared method should fail")
	}
}
