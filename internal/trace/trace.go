/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the runtime's logging facade: free functions that
// mirror jacobin's trace.Trace/trace.Error, backed by a zap
// SugaredLogger instead of jacobin's hand-rolled log package. Every
// other package logs through here rather than importing zap directly,
// so the logging backend stays a single swappable choke point.
package trace

import (
	"sync"

	"go.uber.org/zap"

	"foxvm/internal/globals"
)

// Level selects verbosity, mirroring jacobin's log.FINE / log.INFO /
// log.SEVERE / log.TRACE_INST constants.
type Level int

const (
	FINE Level = iota
	INFO
	WARNING
	SEVERE
	TRACE_INST
)

var (
	logger *zap.SugaredLogger
	mu     sync.Mutex
)

// Init builds the process logger if none is installed. Called from
// bootstrap; safe to call again from tests: it is a no-op while a
// logger is installed and builds a fresh one after SetLogger(nil).
func Init() {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		return
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	logger = z.Sugar()
	globals.GetGlobalRef().Logger = logger
}

// SetLogger overrides the package logger, used by tests that want to
// capture or silence output.
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func get() *zap.SugaredLogger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		Init()
		mu.Lock()
		l = logger
		mu.Unlock()
	}
	return l
}

// Trace logs a low-severity diagnostic message.
func Trace(msg string) { get().Debug(msg) }

// Info logs an informational message.
func Info(msg string) { get().Info(msg) }

// Error logs an error-severity message. Mirrors jacobin's trace.Error,
// which never itself returns an error — callers separately construct
// and return one.
func Error(msg string) { get().Error(msg) }

// Fatal logs at fatal severity. Does not exit the process; callers
// still route termination through shutdown.Exit so exit codes stay
// centralized.
func Fatal(msg string) { get().Error("FATAL: " + msg) }
