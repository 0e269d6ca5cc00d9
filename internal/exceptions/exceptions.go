/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package exceptions implements the propagation and recovery model of
// spec.md §7: constructing a Java exception object, storing it as the
// thread's pending exception, and unwinding the frame stack to the
// innermost handler whose [start,end) range covers the throwing PC and
// whose catch type the thrown class is assignable to. Grounded on
// §7's "pending_exception on the thread context" / "chain of handler
// records" description; jacobin's own exception-dispatch code wasn't
// part of this retrieval pack, so the unwind loop below is written
// directly from spec.md using the same small-package, explicit-error
// idiom the rest of this tree follows.
package exceptions

import (
	"fmt"

	"github.com/pkg/errors"

	"foxvm/internal/classinfo"
	"foxvm/internal/classloader"
	"foxvm/internal/excnames"
	"foxvm/internal/frames"
	"foxvm/internal/object"
)

// Context holds one thread's pending-exception slot, per §7:
// "A thrown exception is stored as a single pending_exception on the
// thread context."
type Context struct {
	Pending *object.Object
}

// Clear drops the pending exception, called once a handler has taken
// control (the exception object itself stays alive only via the
// operand stack the handler was handed it on).
func (c *Context) Clear() { c.Pending = nil }

// Throw allocates an instance of the named exception class, sets its
// "detailMessage" field (java/lang/Throwable's field, present on every
// exception/error by inheritance) to message, and records it as ctx's
// pending exception. loader resolves/initializes the exception class
// if this is its first use, matching normal new+invokespecial
// semantics for a thrown exception object.
func Throw(ctx *Context, loader *classloader.Classloader, threadID int64, className, message string, invoke func(c *object.Class, m *classinfo.MethodInfo) error) (*object.Object, error) {
	class, err := loader.Load(className)
	if err != nil {
		return nil, errors.Wrapf(err, "loading exception class %s", className)
	}
	if err := classloader.Initialize(class, threadID, invoke); err != nil {
		return nil, err
	}

	obj := object.NewObject(class)
	for i := range obj.Fields {
		if class.InstanceFields[i].Info.Name == "detailMessage" {
			obj.Fields[i].Fvalue = message
			break
		}
	}

	ctx.Pending = obj
	return obj, nil
}

// ThrowNullPointerException, ThrowArrayIndexOutOfBounds and friends are
// the fixed-message convenience wrappers intrinsics call on the hot
// error paths named in §7's language-errors taxonomy, avoiding a
// className string literal at every call site in internal/intrinsics.
func ThrowNullPointerException(ctx *Context, loader *classloader.Classloader, threadID int64, invoke func(c *object.Class, m *classinfo.MethodInfo) error) (*object.Object, error) {
	return Throw(ctx, loader, threadID, excnames.NullPointerException, "", invoke)
}

func ThrowArrayIndexOutOfBounds(ctx *Context, loader *classloader.Classloader, threadID int64, index, length int, invoke func(c *object.Class, m *classinfo.MethodInfo) error) (*object.Object, error) {
	return Throw(ctx, loader, threadID, excnames.ArrayIndexOutOfBoundsException,
		fmt.Sprintf("Index %d out of bounds for length %d", index, length), invoke)
}

func ThrowArithmeticException(ctx *Context, loader *classloader.Classloader, threadID int64, message string, invoke func(c *object.Class, m *classinfo.MethodInfo) error) (*object.Object, error) {
	return Throw(ctx, loader, threadID, excnames.ArithmeticException, message, invoke)
}

func ThrowClassCastException(ctx *Context, loader *classloader.Classloader, threadID int64, from, to string, invoke func(c *object.Class, m *classinfo.MethodInfo) error) (*object.Object, error) {
	return Throw(ctx, loader, threadID, excnames.ClassCastException,
		fmt.Sprintf("class %s cannot be cast to class %s", from, to), invoke)
}

// FindHandler scans frame's method exception table for an entry whose
// range covers pc and whose catch type excInfo is assignable to (a nil
// CatchType is a catch-all, matching §7's "matching an empty handler
// type is a catch-all").
func FindHandler(frame *frames.Frame, pc int, excInfo *classinfo.ClassInfo) (handlerPC int, ok bool) {
	if frame.Method == nil {
		return 0, false
	}
	for _, h := range frame.Method.Handlers {
		if pc < h.StartPC || pc >= h.EndPC {
			continue
		}
		if h.CatchType == nil || classloader.IsAssignableFrom(excInfo, h.CatchType) {
			return h.HandlerPC, true
		}
	}
	return 0, false
}

// Unwind implements §7's propagation rule: pop frames off stack,
// starting with its current (throwing) frame, until one has a matching
// handler. The matching frame has its operand stack cleared and the
// exception object pushed as its sole operand (the compiled handler's
// expected entry state), and is left on the stack (not popped) with PC
// set to the handler's target; Unwind returns that frame so the
// interpreter loop can resume there. ok is false if the stack is
// exhausted without a match — an uncaught exception per §6's CLI
// contract (print a stack trace, abort with nonzero exit).
func Unwind(stack *frames.Stack, excInfo *classinfo.ClassInfo, excObj *object.Object) (*frames.Frame, bool) {
	for {
		f := stack.Current()
		if f == nil {
			return nil, false
		}
		if handlerPC, ok := FindHandler(f, f.PC, excInfo); ok {
			f.OpStack = f.OpStack[:0]
			f.TOS = -1
			f.Push(excObj)
			f.PC = handlerPC
			return f, true
		}
		stack.PopFrame()
	}
}
