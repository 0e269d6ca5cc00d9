/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"testing"

	"foxvm/internal/classinfo"
	"foxvm/internal/object"
)

func newStringObject(t *testing.T, s string) *object.Object {
	t.Helper()
	ci := &classinfo.ClassInfo{
		Name: "java/lang/String",
		Fields: []classinfo.FieldInfo{
			{Name: "value", Descriptor: "Ljava/lang/String;", IsReference: true},
		},
	}
	cls := object.NewClass(ci)
	cls.InstanceFields = []object.ResolvedField{{Info: &ci.Fields[0], Offset: 0}}
	obj := object.NewObject(cls)
	setStringValue(obj, s)
	return obj
}

func TestLoadLangStringRegistersSignatures(t *testing.T) {
	MethodSignatures = make(map[string]GMeth)
	Load_Lang_String()
	for _, sig := range []string{
		"java/lang/String.<init>()V",
		"java/lang/String.<init>([B)V",
		"java/lang/String.length()I",
		"java/lang/String.charAt(I)C",
		"java/lang/String.equals(Ljava/lang/Object;)Z",
		"java/lang/String.hashCode()I",
		"java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;",
		"java/lang/String.valueOf(I)Ljava/lang/String;",
		"java/lang/String.intern()Ljava/lang/String;",
	} {
		if _, ok := MethodSignatures[sig]; !ok {
			t.Errorf("Load_Lang_String did not register %q", sig)
		}
	}
}

func TestStringLengthAndCharAt(t *testing.T) {
	obj := newStringObject(t, "hello")
	if got := stringLength([]interface{}{obj}); got != int32(5) {
		t.Errorf("stringLength() = %v, want 5", got)
	}
	if got := stringCharAt([]interface{}{obj, int32(1)}); got != int32('e') {
		t.Errorf("stringCharAt(1) = %v, want 'e'", got)
	}
	if _, ok := stringCharAt([]interface{}{obj, int32(99)}).(*GErrBlk); !ok {
		t.Error("stringCharAt out of range should return a *GErrBlk")
	}
}

func TestStringEquals(t *testing.T) {
	a := newStringObject(t, "same")
	b := newStringObject(t, "same")
	c := newStringObject(t, "different")

	if got := stringEquals([]interface{}{a, b}); got != int32(1) {
		t.Errorf("stringEquals(same, same) = %v, want 1", got)
	}
	if got := stringEquals([]interface{}{a, c}); got != int32(0) {
		t.Errorf("stringEquals(same, different) = %v, want 0", got)
	}
	if got := stringEquals([]interface{}{a, (*object.Object)(nil)}); got != int32(0) {
		t.Errorf("stringEquals(same, nil) = %v, want 0", got)
	}
}

func TestStringHashCodeMatchesJLSAlgorithm(t *testing.T) {
	obj := newStringObject(t, "hi")
	want := int32('h')*31 + int32('i')
	if got := stringHashCode([]interface{}{obj}); got != want {
		t.Errorf("stringHashCode(\"hi\") = %v, want %d", got, want)
	}
	empty := newStringObject(t, "")
	if got := stringHashCode([]interface{}{empty}); got != int32(0) {
		t.Errorf("stringHashCode(\"\") = %v, want 0", got)
	}
}

func TestStringConcat(t *testing.T) {
	a := newStringObject(t, "foo")
	b := newStringObject(t, "bar")
	result := stringConcat([]interface{}{a, b})
	resultObj, ok := result.(*object.Object)
	if !ok {
		t.Fatalf("stringConcat() = %v (%T), want *object.Object", result, result)
	}
	got, _ := stringValue(resultObj)
	if got != "foobar" {
		t.Errorf("stringConcat(foo, bar) value = %q, want foobar", got)
	}

	if _, ok := stringConcat([]interface{}{a, (*object.Object)(nil)}).(*GErrBlk); !ok {
		t.Error("stringConcat with a nil argument should return a *GErrBlk")
	}
}

func TestStringValueOfInt(t *testing.T) {
	if got := stringValueOfInt([]interface{}{int32(-42)}); got != "-42" {
		t.Errorf("stringValueOfInt(-42) = %v, want -42", got)
	}
}

func TestStringIntern(t *testing.T) {
	obj := newStringObject(t, "interned")
	got, ok := stringIntern([]interface{}{obj}).(string)
	if !ok || got != "interned" {
		t.Errorf("stringIntern() = %v, want \"interned\"", got)
	}
}

func TestNewStringFromBytesRejectsWrongType(t *testing.T) {
	obj := newStringObject(t, "")
	if _, ok := newStringFromBytes([]interface{}{obj, "not an array"}).(*GErrBlk); !ok {
		t.Error("newStringFromBytes with a non-array argument should return a *GErrBlk")
	}

	arr := &object.Array{ElemType: "B", Elements: []int8{'h', 'i'}}
	newStringFromBytes([]interface{}{obj, arr})
	got, _ := stringValue(obj)
	if got != "hi" {
		t.Errorf("newStringFromBytes set value = %q, want hi", got)
	}
}
