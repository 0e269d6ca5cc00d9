/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction implements the native-method bridge's standard-
// library surface of spec.md §4.6: a process-global table mapping a
// method's fully-qualified (class, name, descriptor) signature to a Go
// function, standing in for the translator-generated native
// trampolines that would otherwise have to reimplement java.lang.*/
// java.util.*/java.io.* in translated Java.
//
// Grounded on artipop-jacobin/src/gfunction's per-class Load_* files
// (javaLangString.go, javaLangStringBuilder.go, javaLangThread.go,
// javaUtilHashMap.go, javaIoInputStreamReader.go,
// jdkInternalMiscScopedMemoryAccess.go): same MethodSignatures map,
// same GMeth{ParamSlots, GFunction} shape, same Load_* naming and
// registration idiom, same getGErrBlk/justReturn/trapFunction/
// trapDeprecated helpers — adapted to this runtime's slot-indexed
// object.Object (object.Object.FieldByName replaces jacobin's
// name-keyed FieldTable) and its stringpool/classloader packages.
package gfunction

import "foxvm/internal/excnames"

// GMeth is one native method's registration entry: how many operand-
// stack slots the interpreter's invoke dispatch must pop into params
// before calling GFunction, and the Go function itself.
type GMeth struct {
	ParamSlots int
	GFunction  func(params []interface{}) interface{}
}

// MethodSignatures is the process-global table every Load_* function
// populates, keyed by "class/name(descriptor)ReturnDescriptor" exactly
// as jacobin's own table is keyed.
var MethodSignatures = make(map[string]GMeth)

// GErrBlk is the sentinel "this native call failed" return value: a
// GFunction returns one of these instead of a normal value to signal
// the interpreter it should throw excType with message, mirroring
// jacobin's getGErrBlk-constructed error block convention.
type GErrBlk struct {
	ExceptionType string
	ErrMsg        string
}

func getGErrBlk(excType, msg string) *GErrBlk {
	return &GErrBlk{ExceptionType: excType, ErrMsg: msg}
}

// justReturn is the no-op native body for methods whose only job is to
// satisfy a required native declaration (registerNatives, clinit
// stubs this runtime doesn't need to run) without raising an error.
func justReturn([]interface{}) interface{} { return nil }

// trapFunction marks a signature this runtime recognizes but hasn't
// implemented; calling it raises UnsatisfiedLinkError rather than
// silently no-op'ing, so a missing feature fails loudly instead of
// quietly behaving like a no-op.
func trapFunction(params []interface{}) interface{} {
	return getGErrBlk(excnames.UnsatisfiedLinkError, "native method not implemented")
}

// trapDeprecated marks a deprecated JDK overload this runtime declines
// to support.
func trapDeprecated(params []interface{}) interface{} {
	return getGErrBlk(excnames.UnsatisfiedLinkError, "deprecated overload not supported")
}

// LoadAll registers every built-in native package's MethodSignatures
// entries. Called once from bootstrap, before any class needing a
// native method is initialized.
func LoadAll() {
	Load_Lang_String()
	Load_Lang_StringBuilder()
	Load_Lang_Thread()
	Load_Util_HashMap()
	Load_Io_InputStreamReader()
	Load_Jdk_Internal_Misc_ScopedMemoryAccess()
}

// Lookup resolves a fully-qualified native signature, used by
// internal/bootstrap's <clinit> dispatch to run a Go-implemented body
// in place of a translated MethodInfo.Fn.
func Lookup(signature string) (GMeth, bool) {
	m, ok := MethodSignatures[signature]
	return m, ok
}
