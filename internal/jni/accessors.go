/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jni

import (
	"github.com/pkg/errors"

	"foxvm/internal/classloader"
	"foxvm/internal/object"
)

// FieldID is the resolved counterpart of JNI's opaque jfieldID: a class
// plus the slot index internal/classloader's layoutFields assigned the
// field there. For a static field the class is the one that declares
// it; for an instance field it is the class GetFieldID was called on,
// whose flattened InstanceFields hold the slot. Later
// Get/SetField calls are a direct slice index rather than a repeated
// by-name search.
type FieldID struct {
	Declaring *object.Class
	Slot      int
	Static    bool
}

// GetFieldID implements JNI's GetFieldID: resolve an instance field by
// name through classloader.FieldFind's field_find search order (own
// fields, implemented interfaces recursively, then superclass — §4.1),
// then map the match onto c's own flattened InstanceFields slot, since
// instance fields (unlike statics) are inherited onto every subclass's
// Object.Fields layout.
func GetFieldID(c *object.Class, name string) (*FieldID, error) {
	fi, _, ok := classloader.FieldFind(c, name)
	if !ok || fi.IsStatic {
		return nil, errors.Errorf("jni: no such instance field %q on %s", name, c.Name())
	}
	for _, rf := range c.InstanceFields {
		if rf.Info == fi {
			return &FieldID{Declaring: c, Slot: rf.Offset}, nil
		}
	}
	return nil, errors.Errorf("jni: field %q resolved but has no instance slot on %s", name, c.Name())
}

// GetStaticFieldID implements JNI's GetStaticFieldID. Unlike instance
// fields, static fields are not flattened onto subclasses (layoutFields
// computes Class.StaticFields purely from the declaring ClassInfo's own
// Fields), so the returned FieldID carries the declaring class
// FieldFind actually resolved the field on, and the slot is recomputed
// by counting that class's own static fields in declaration order.
func GetStaticFieldID(c *object.Class, name string) (*FieldID, error) {
	fi, declaring, ok := classloader.FieldFind(c, name)
	if !ok || !fi.IsStatic {
		return nil, errors.Errorf("jni: no such static field %q on %s", name, c.Name())
	}
	slot := -1
	n := 0
	for i := range declaring.Info().Fields {
		f := &declaring.Info().Fields[i]
		if !f.IsStatic {
			continue
		}
		if f == fi {
			slot = n
			break
		}
		n++
	}
	if slot < 0 {
		return nil, errors.Errorf("jni: static field %q resolved but has no static slot on %s", name, declaring.Name())
	}
	return &FieldID{Declaring: declaring, Slot: slot, Static: true}, nil
}

// GetObjectField implements JNI's GetObjectField: read obj's reference
// field at id's slot. id must have come from GetFieldID against a
// class obj is an instance of.
func GetObjectField(obj *object.Object, id *FieldID) *object.Object {
	ref, _ := obj.Fields[id.Slot].Fvalue.(*object.Object)
	return ref
}

// GetIntField implements JNI's GetIntField: read obj's int field at
// id's slot.
func GetIntField(obj *object.Object, id *FieldID) int32 {
	v, _ := obj.Fields[id.Slot].Fvalue.(int32)
	return v
}

// SetStaticObjectField implements JNI's SetStaticObjectField: store
// value into id's static slot on the class id.Declaring resolved
// against.
func SetStaticObjectField(id *FieldID, value *object.Object) {
	id.Declaring.StaticFields[id.Slot].Fvalue = value
}

// stringValue reads a java/lang/String object's backing Go string out
// of its "value" field, mirroring internal/gfunction/lang_string.go's
// stringValue without importing that package for one field access.
func stringValue(s *object.Object) (string, bool) {
	f, ok := s.FieldByName("value")
	if !ok {
		return "", false
	}
	str, ok := f.Fvalue.(string)
	return str, ok
}

// GetStringUTFLength implements JNI's GetStringUTFLength. This runtime
// stores String.value as a plain Go (UTF-8) string and returns its byte
// length. That equals the modified-UTF-8 length except for U+0000
// (1 byte here, 2 in modified UTF-8) and supplementary characters
// (4 bytes here, 6 in modified UTF-8).
func GetStringUTFLength(s *object.Object) (int, error) {
	str, ok := stringValue(s)
	if !ok {
		return 0, errors.New("jni: GetStringUTFLength: not a java/lang/String instance")
	}
	return len(str), nil
}

// GetStringUTFChars implements JNI's GetStringUTFChars: returns a
// fresh, NUL-terminated UTF-8 byte copy of s's characters, with
// isCopy always true per spec.md §6 — this runtime never hands out a
// pointer directly into live VM state.
func GetStringUTFChars(s *object.Object) (chars []byte, isCopy bool, err error) {
	str, ok := stringValue(s)
	if !ok {
		return nil, false, errors.New("jni: GetStringUTFChars: not a java/lang/String instance")
	}
	buf := make([]byte, len(str)+1)
	copy(buf, str)
	return buf, true, nil
}

// ReleaseStringUTFChars implements JNI's ReleaseStringUTFChars. Since
// GetStringUTFChars always hands back a freshly allocated copy, there
// is nothing to reclaim; kept for API symmetry with native code that
// follows the JNI get/release discipline.
func ReleaseStringUTFChars(s *object.Object, chars []byte) {}

// GetArrayLength implements JNI's GetArrayLength.
func GetArrayLength(arr *object.Array) int32 {
	return arr.Length
}

// GetByteArrayRegion implements JNI's GetByteArrayRegion: copies
// length elements starting at start into buf.
func GetByteArrayRegion(arr *object.Array, start, length int32, buf []int8) error {
	bytes, ok := arr.Elements.([]int8)
	if !ok {
		return errors.New("jni: GetByteArrayRegion: not a byte array")
	}
	if start < 0 || length < 0 || start+length > int32(len(bytes)) {
		return errors.Errorf("jni: GetByteArrayRegion: region [%d, %d) out of bounds for length %d", start, start+length, len(bytes))
	}
	copy(buf, bytes[start:start+length])
	return nil
}
