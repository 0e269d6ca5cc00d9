/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader implements the class lifecycle of spec.md §4.1:
// registering a translator-emitted ClassInfo into a live object.Class,
// resolving superclass/interface/field layout, synthesizing array
// classes on demand, and driving the JLS §5.5 initialization state
// machine. The struct shape (a named Classloader with a parent chain)
// follows artipop-jacobin/src/classloader/classloader.go's
// Classloader/AppCL/BootstrapCL/ExtensionCL triple; everything below
// the "loaded from disk" layer is new because this runtime's classes
// come from a translator's static table (internal/classinfo), not
// parsed .class bytes.
package classloader

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"foxvm/internal/classinfo"
	"foxvm/internal/excnames"
	"foxvm/internal/monitor"
	"foxvm/internal/object"
	"foxvm/internal/trace"
)

// Classloader is a named class-loading namespace with an optional
// parent, mirroring the delegation model jacobin's Classloader struct
// implements (field-for-field: Name/Parent, plus the loaded-class map
// jacobin keeps in the package-level MethArea here instead).
type Classloader struct {
	Name   string
	Parent *Classloader

	mu      sync.RWMutex
	classes map[string]*object.Class
}

// New creates a classloader namespace delegating to parent (nil for
// the bootstrap loader).
func New(name string, parent *Classloader) *Classloader {
	return &Classloader{Name: name, Parent: parent, classes: make(map[string]*object.Class)}
}

// Bootstrap, App and Extension mirror jacobin's BootstrapCL/AppCL/
// ExtensionCL package-level loaders; most classes load through
// Bootstrap since the translator pre-resolves linkage for the whole
// closed-world program (spec.md §6).
var (
	Bootstrap = New("bootstrap", nil)
	App       = New("app", Bootstrap)
	Extension = New("extension", Bootstrap)
)

// arrayClassCache holds array ClassInfo/Class pairs synthesized on
// demand (§4.1: "array classes ... are synthesized at runtime rather
// than emitted by the translator"), keyed by internal array name
// ("[I", "[Ljava/lang/String;", "[[I", ...). Shared across loaders
// since array classes have no meaningful defining-loader identity
// beyond their component type.
var (
	arrayMu    sync.Mutex
	arrayCache = make(map[string]*object.Class)
)

// Get returns the class named name if this loader (or an ancestor) has
// already loaded it.
func (cl *Classloader) Get(name string) (*object.Class, bool) {
	cl.mu.RLock()
	c, ok := cl.classes[name]
	cl.mu.RUnlock()
	if ok {
		return c, true
	}
	if cl.Parent != nil {
		return cl.Parent.Get(name)
	}
	return nil, false
}

func (cl *Classloader) put(name string, c *object.Class) {
	cl.mu.Lock()
	cl.classes[name] = c
	cl.mu.Unlock()
}

// Load implements §4.1's class-loading sequence: translator lookup,
// Class allocation, and recursive resolution of super/interfaces/field
// layout, stopping at StateResolved. Initialization (running <clinit>)
// is a separate step triggered lazily by the first active use, per
// JLS §12.4.1 and spec.md §4.1's state machine.
func (cl *Classloader) Load(name string) (*object.Class, error) {
	if c, ok := cl.Get(name); ok {
		return c, nil
	}

	if len(name) > 0 && name[0] == '[' {
		return cl.loadArrayClass(name)
	}

	info := classinfo.Lookup(name)
	if info == nil {
		return nil, errors.Wrapf(ErrNoClassDef, "class not found: %s", name)
	}
	return cl.register(info)
}

func (cl *Classloader) register(info *classinfo.ClassInfo) (*object.Class, error) {
	c := object.NewClass(info)
	c.Loader = cl.Name
	c.SetState(object.StateRegistered)
	cl.put(info.Name, c)

	if err := cl.resolve(c); err != nil {
		c.SetState(object.StateError)
		return nil, err
	}
	return c, nil
}

// resolve performs §4.1's linkage step: recursively load the
// superclass and interfaces, run the translator's ResolveHandler (if
// any) to let it fill in handler-specific detail, then compute the
// flattened instance-field layout (superclass fields first, own fields
// appended, preserving the translator-assigned order within each
// class) and the static-field array.
func (cl *Classloader) resolve(c *object.Class) error {
	info := c.Info()

	if info.Super != nil {
		super, err := cl.Load(info.Super.Name)
		if err != nil {
			return errors.Wrapf(err, "resolving superclass of %s", info.Name)
		}
		c.Super = super
	}

	c.Interfaces = make([]*object.Class, len(info.Interfaces))
	for i, ifaceInfo := range info.Interfaces {
		iface, err := cl.Load(ifaceInfo.Name)
		if err != nil {
			return errors.Wrapf(err, "resolving interface %s of %s", ifaceInfo.Name, info.Name)
		}
		c.Interfaces[i] = iface
	}

	if info.ResolveHandler != nil {
		if err := info.ResolveHandler(c); err != nil {
			return errors.Wrapf(err, "resolve handler for %s", info.Name)
		}
	}

	cl.layoutFields(c)

	// Class objects get their monitor pre-created (internal/monitor's
	// New doc comment explains why: otherwise a contended lock on a
	// Class still being built would recurse into allocating that same
	// Class's monitor).
	c.SetMonitor(monitor.New())

	c.SetState(object.StateResolved)
	return nil
}

func (cl *Classloader) layoutFields(c *object.Class) {
	info := c.Info()

	var instance []object.ResolvedField
	hasRef := false
	if c.Super != nil {
		instance = append(instance, c.Super.InstanceFields...)
		hasRef = hasRef || c.Super.HasReference
	}
	for i := range info.Fields {
		fi := &info.Fields[i]
		if fi.IsStatic {
			continue
		}
		instance = append(instance, object.ResolvedField{Info: fi, Offset: len(instance)})
		hasRef = hasRef || fi.IsReference
	}
	c.InstanceFields = instance
	c.HasReference = hasRef

	var statics []object.Field
	hasStaticRef := false
	for i := range info.Fields {
		fi := &info.Fields[i]
		if !fi.IsStatic {
			continue
		}
		statics = append(statics, object.Field{Ftype: fi.Descriptor, Fvalue: staticZero(fi)})
		hasStaticRef = hasStaticRef || fi.IsReference
	}
	c.StaticFields = statics
	c.HasStaticReference = hasStaticRef
}

func staticZero(fi *classinfo.FieldInfo) interface{} {
	if fi.ConstValue != nil {
		return fi.ConstValue
	}
	if fi.IsReference {
		return (*object.Object)(nil)
	}
	switch fi.Descriptor[0] {
	case 'J':
		return int64(0)
	case 'F':
		return float32(0)
	case 'D':
		return float64(0)
	case 'Z':
		return false
	default:
		return int32(0)
	}
}

// loadArrayClass synthesizes an array ClassInfo/Class pair for name
// (e.g. "[I", "[Ljava/lang/String;"), per §4.1. Array classes are
// cached globally since they carry no per-loader state beyond their
// component type, and component resolution recurses through Load so
// "[[I" resolves "[I" first.
func (cl *Classloader) loadArrayClass(name string) (*object.Class, error) {
	arrayMu.Lock()
	if c, ok := arrayCache[name]; ok {
		arrayMu.Unlock()
		return c, nil
	}
	arrayMu.Unlock()

	componentName := name[1:]
	var componentInfo *classinfo.ClassInfo
	switch componentName {
	case "B", "C", "D", "F", "I", "J", "S", "Z":
		componentInfo = &classinfo.ClassInfo{Name: componentName, Kind: classinfo.KindPrimitive}
	default:
		compName := componentName
		if len(compName) > 0 && compName[0] == 'L' && compName[len(compName)-1] == ';' {
			compName = compName[1 : len(compName)-1]
		}
		comp, err := cl.Load(compName)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving array component %s", compName)
		}
		componentInfo = comp.Info()
	}

	info := &classinfo.ClassInfo{
		Name:          name,
		Kind:          classinfo.KindArray,
		ComponentType: componentInfo,
		Super:         objectClassInfo(),
	}

	arrayMu.Lock()
	defer arrayMu.Unlock()
	if c, ok := arrayCache[name]; ok {
		return c, nil
	}
	c := object.NewClass(info)
	c.Loader = "bootstrap"
	c.SetMonitor(monitor.New())
	c.SetState(object.StateResolved)
	arrayCache[name] = c
	return c, nil
}

var objectClassInfoOnce sync.Once
var cachedObjectClassInfo *classinfo.ClassInfo

// objectClassInfo returns java/lang/Object's ClassInfo, every array
// class's implicit superclass per JLS §10.8.
func objectClassInfo() *classinfo.ClassInfo {
	objectClassInfoOnce.Do(func() {
		cachedObjectClassInfo = classinfo.Lookup("java/lang/Object")
	})
	return cachedObjectClassInfo
}

// ErrNoClassDef corresponds to java.lang.NoClassDefFoundError, raised
// when the translator's registry has no entry for a requested class.
var ErrNoClassDef = errors.New(excnames.NoClassDefFoundError)

// Initialize drives the JLS §5.5 initialization procedure, exactly as
// spec.md §4.1 restates it: lock the class's monitor; if already
// Initialized, return; if Initializing on this same thread (a
// recursive <clinit> reference, e.g. a superclass's <clinit> invoking
// a subclass static method), return immediately and let the caller
// proceed with a partially-initialized class, per JLS; if Initializing
// on another thread, wait; if in the Error state, throw
// NoClassDefFoundError; otherwise become the initializing thread,
// release the lock, initialize the superclass first, then run <clinit>,
// then re-lock and transition to Initialized (or Error on failure),
// waking any waiters.
func Initialize(c *object.Class, threadID int64, invoke func(c *object.Class, m *classinfo.MethodInfo) error) error {
	mon := c.Header.Monitor()
	mon.Enter(threadID)

	for {
		switch c.State() {
		case object.StateInitialized:
			mon.Exit(threadID)
			return nil
		case object.StateError:
			mon.Exit(threadID)
			return errors.Wrapf(ErrNoClassDef, "previous initialization of %s failed", c.Name())
		case object.StateInitializing:
			if c.InitThreadID == threadID {
				mon.Exit(threadID)
				return nil
			}
			if _, _, err := mon.Wait(threadID, 0); err != nil {
				mon.Exit(threadID)
				return err
			}
			continue
		default: // Registered or Resolved
			c.InitThreadID = threadID
			c.SetState(object.StateInitializing)
			mon.Exit(threadID)

			if err := initSuperAndSelf(c, threadID, invoke); err != nil {
				mon.Enter(threadID)
				c.SetState(object.StateError)
				mon.NotifyAll()
				mon.Exit(threadID)
				return err
			}

			mon.Enter(threadID)
			c.SetState(object.StateInitialized)
			mon.NotifyAll()
			mon.Exit(threadID)
			return nil
		}
	}
}

func initSuperAndSelf(c *object.Class, threadID int64, invoke func(c *object.Class, m *classinfo.MethodInfo) error) error {
	if c.Super != nil {
		if err := Initialize(c.Super, threadID, invoke); err != nil {
			return err
		}
	}
	info := c.Info()
	if !info.HasClInit {
		return nil
	}
	trace.Trace(fmt.Sprintf("running <clinit> for %s", info.Name))
	return invoke(c, &info.ClInit)
}

// MethodFind implements §4.1's method_find: an exact (name,
// descriptor) lookup that first checks c's own declared methods, then
// walks up the superclass chain, matching jacobin's method-resolution
// order (declaring class first, then ancestors) before a miss is
// reported to the caller as NoSuchMethodError territory.
func MethodFind(c *object.Class, name, descriptor string) (*classinfo.MethodInfo, *object.Class, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if m, ok := cur.Info().FindMethod(name, descriptor); ok {
			return m, cur, true
		}
	}
	return nil, nil, false
}

// FieldFind implements §4.1's field_find: c's own declared fields,
// then every implemented interface recursively (an interface constant
// can be declared several levels up an interface's own extends chain),
// then the superclass, matching JLS §5.4.3.2's member-field resolution
// order rather than MethodFind's superclass-only walk (interfaces
// don't contribute instance methods to resolve here, but they do
// contribute fields: interface constants).
func FieldFind(c *object.Class, name string) (*classinfo.FieldInfo, *object.Class, bool) {
	if c == nil {
		return nil, nil, false
	}
	if f, ok := c.Info().FindField(name); ok {
		return f, c, true
	}
	for _, iface := range c.Interfaces {
		if f, cur, ok := FieldFind(iface, name); ok {
			return f, cur, true
		}
	}
	return FieldFind(c.Super, name)
}

// IsAssignableFrom implements the checkcast/instanceof assignability
// test of §4.3: identity, superclass-chain walk, interface
// implementation (transitively through superclasses), and, for arrays,
// covariant component-type assignability plus the universal
// array-to-Object/Cloneable/Serializable rule (JLS §10.10). Operates on
// ClassInfo rather than the runtime Class, since the translator already
// threads Super/Interfaces through ClassInfo itself (including the
// synthesized array ClassInfos loadArrayClass builds), so no further
// class-loading is needed to answer the question.
func IsAssignableFrom(from, to *classinfo.ClassInfo) bool {
	if from == to {
		return true
	}
	if to.Name == "java/lang/Object" {
		return true
	}

	if from.IsArray() {
		if !to.IsArray() {
			return to.Name == "java/lang/Cloneable" || to.Name == "java/io/Serializable"
		}
		return IsAssignableFrom(from.ComponentType, to.ComponentType)
	}

	for cur := from.Super; cur != nil; cur = cur.Super {
		if cur == to {
			return true
		}
	}
	return implementsInterface(from, to)
}

func implementsInterface(ci, iface *classinfo.ClassInfo) bool {
	for cur := ci; cur != nil; cur = cur.Super {
		for _, i := range cur.Interfaces {
			if i == iface || implementsInterface(i, iface) {
				return true
			}
		}
	}
	return false
}
