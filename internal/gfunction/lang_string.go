/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"strconv"
	"strings"

	"foxvm/internal/excnames"
	"foxvm/internal/object"
)

// Load_Lang_String registers the java/lang/String natives this
// runtime implements directly in Go rather than via translated
// bytecode, following jacobin's Load_Lang_String registration shape
// (artipop-jacobin/src/gfunction/javaLangString.go) pared to the
// subset this runtime's bootstrap actually needs.
func Load_Lang_String() {
	MethodSignatures["java/lang/String.<clinit>()V"] = GMeth{ParamSlots: 0, GFunction: justReturn}

	MethodSignatures["java/lang/String.<init>()V"] = GMeth{ParamSlots: 0, GFunction: newEmptyString}

	MethodSignatures["java/lang/String.<init>([B)V"] = GMeth{ParamSlots: 1, GFunction: newStringFromBytes}

	MethodSignatures["java/lang/String.length()I"] = GMeth{ParamSlots: 0, GFunction: stringLength}

	MethodSignatures["java/lang/String.charAt(I)C"] = GMeth{ParamSlots: 1, GFunction: stringCharAt}

	MethodSignatures["java/lang/String.equals(Ljava/lang/Object;)Z"] = GMeth{ParamSlots: 1, GFunction: stringEquals}

	MethodSignatures["java/lang/String.hashCode()I"] = GMeth{ParamSlots: 0, GFunction: stringHashCode}

	MethodSignatures["java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;"] =
		GMeth{ParamSlots: 1, GFunction: stringConcat}

	MethodSignatures["java/lang/String.valueOf(I)Ljava/lang/String;"] = GMeth{ParamSlots: 1, GFunction: stringValueOfInt}

	MethodSignatures["java/lang/String.intern()Ljava/lang/String;"] = GMeth{ParamSlots: 0, GFunction: stringIntern}
}

// value holds a String instance's backing Go string; this runtime
// stores it directly rather than as a []byte field, since there is no
// Latin1/UTF16 compaction distinction to preserve for the purposes
// this bridge serves.
func stringValue(obj *object.Object) (string, bool) {
	f, ok := obj.FieldByName("value")
	if !ok {
		return "", false
	}
	s, ok := f.Fvalue.(string)
	return s, ok
}

func setStringValue(obj *object.Object, s string) {
	if f, ok := obj.FieldByName("value"); ok {
		f.Fvalue = s
	}
}

// "java/lang/String.<init>()V"
func newEmptyString(params []interface{}) interface{} {
	setStringValue(params[0].(*object.Object), "")
	return nil
}

// "java/lang/String.<init>([B)V"
func newStringFromBytes(params []interface{}) interface{} {
	arr, ok := params[1].(*object.Array)
	if !ok {
		return getGErrBlk(excnames.IllegalArgumentException, "String(byte[]) requires a byte array")
	}
	bytes, ok := arr.Elements.([]int8)
	if !ok {
		return getGErrBlk(excnames.IllegalArgumentException, "String(byte[]) array has the wrong element type")
	}
	raw := make([]byte, len(bytes))
	for i, b := range bytes {
		raw[i] = byte(b)
	}
	setStringValue(params[0].(*object.Object), string(raw))
	return nil
}

// "java/lang/String.length()I"
func stringLength(params []interface{}) interface{} {
	s, ok := stringValue(params[0].(*object.Object))
	if !ok {
		return getGErrBlk(excnames.NullPointerException, "String.length on an uninitialized String")
	}
	return int32(len(s))
}

// "java/lang/String.charAt(I)C"
func stringCharAt(params []interface{}) interface{} {
	s, ok := stringValue(params[0].(*object.Object))
	if !ok {
		return getGErrBlk(excnames.NullPointerException, "String.charAt on an uninitialized String")
	}
	index := params[1].(int32)
	if index < 0 || int(index) >= len(s) {
		return getGErrBlk(excnames.IllegalArgumentException, "String index out of range")
	}
	return int32(s[index])
}

// "java/lang/String.equals(Ljava/lang/Object;)Z"
func stringEquals(params []interface{}) interface{} {
	a, _ := stringValue(params[0].(*object.Object))
	other, ok := params[1].(*object.Object)
	if !ok || other == nil {
		return int32(0)
	}
	b, ok := stringValue(other)
	if !ok {
		return int32(0)
	}
	if a == b {
		return int32(1)
	}
	return int32(0)
}

// "java/lang/String.hashCode()I" implements JLS's documented String
// hash algorithm (s[0]*31^(n-1) + ... + s[n-1]) so hashCode() matches
// the JDK exactly, a property java.util.HashMap-backed code depends on.
func stringHashCode(params []interface{}) interface{} {
	s, _ := stringValue(params[0].(*object.Object))
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	return h
}

// "java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;"
func stringConcat(params []interface{}) interface{} {
	a, _ := stringValue(params[0].(*object.Object))
	other, ok := params[1].(*object.Object)
	if !ok || other == nil {
		return getGErrBlk(excnames.NullPointerException, "String.concat on a null argument")
	}
	b, _ := stringValue(other)
	result := object.NewObject(params[0].(*object.Object).ClassOf())
	setStringValue(result, a+b)
	return result
}

// "java/lang/String.valueOf(I)Ljava/lang/String;"
func stringValueOfInt(params []interface{}) interface{} {
	i := params[0].(int32)
	return strconv.FormatInt(int64(i), 10)
}

// "java/lang/String.intern()Ljava/lang/String;" returns a copy of the
// String's Go value. It does not consult or register anything in
// internal/stringpool, and no caller in this runtime does so for it.
func stringIntern(params []interface{}) interface{} {
	s, _ := stringValue(params[0].(*object.Object))
	return strings.Clone(s)
}
