/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds the process-wide settings struct that other
// packages reach through GetGlobalRef(): VM name, classpath, trace
// toggles, the logger and an exception hook. The classloader, heap,
// thread registry and GC collector are not kept here; they live on
// internal/bootstrap's Runtime. It plays the role jacobin's globals
// package plays: one struct, set up by InitGlobals, read everywhere.
package globals

import (
	"sync"

	"go.uber.org/zap"
)

// Globals is the process-wide settings struct. A single package-level
// instance exists; InitGlobals resets it and GetGlobalRef returns it.
type Globals struct {
	VMName       string
	JavaHome     string
	StartingJar  string
	Classpath    []string

	StrictJDK bool

	// Diagnostics toggles, mirroring jacobin's globals.Trace* booleans.
	TraceClass  bool
	TraceCloadi bool
	TraceInst   bool

	JvmFrameStackShown bool

	Logger *zap.SugaredLogger

	// FuncThrowException is a hook for raising a Java exception without
	// importing the exceptions package. InitGlobals and GetGlobalRef
	// install a no-op; no package in this runtime replaces or calls it.
	FuncThrowException func(excClassName string, msg string)

	// LoaderWg is a completion WaitGroup for background class-preloading
	// goroutines; no package in this runtime starts any.
	LoaderWg sync.WaitGroup

	ExitCode int
}

var (
	global     Globals
	globalOnce sync.Once
	globalLock sync.Mutex
)

// InitGlobals (re)initializes the singleton Globals for the given VM
// name. Safe to call repeatedly from tests; production code calls it
// exactly once at process start.
func InitGlobals(vmName string) *Globals {
	globalLock.Lock()
	defer globalLock.Unlock()

	global = Globals{
		VMName:             vmName,
		StrictJDK:          true,
		JvmFrameStackShown: false,
	}
	global.FuncThrowException = func(string, string) {} // no-op placeholder
	return &global
}

// GetGlobalRef returns the process-wide runtime handle, lazily
// initializing it on first use so packages under test don't need to
// call InitGlobals explicitly.
func GetGlobalRef() *Globals {
	globalOnce.Do(func() {
		globalLock.Lock()
		if global.VMName == "" {
			global.VMName = "foxvm"
			global.StrictJDK = true
			global.FuncThrowException = func(string, string) {}
		}
		globalLock.Unlock()
	})
	return &global
}
