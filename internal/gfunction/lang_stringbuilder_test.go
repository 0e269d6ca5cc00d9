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

func newStringBuilderObject(t *testing.T) *object.Object {
	t.Helper()
	ci := &classinfo.ClassInfo{
		Name: "java/lang/StringBuilder",
		Fields: []classinfo.FieldInfo{
			{Name: "value", Descriptor: "Ljava/lang/String;", IsReference: true},
		},
	}
	cls := object.NewClass(ci)
	cls.InstanceFields = []object.ResolvedField{{Info: &ci.Fields[0], Offset: 0}}
	return object.NewObject(cls)
}

func TestIsLatin1AlwaysReportsTrue(t *testing.T) {
	if got := isLatin1(nil); got != int32(1) {
		t.Errorf("isLatin1() = %v, want 1", got)
	}
}

func TestSbInitStartsEmpty(t *testing.T) {
	sb := newStringBuilderObject(t)
	sbInit([]interface{}{sb})
	f, _ := sb.FieldByName("value")
	if f.Fvalue != "" {
		t.Errorf("value after sbInit = %v, want empty string", f.Fvalue)
	}
}

func TestSbAppendStringAccumulatesAndReturnsSelf(t *testing.T) {
	sb := newStringBuilderObject(t)
	sbInit([]interface{}{sb})

	hello := newStringObject(t, "hello, ")
	world := newStringObject(t, "world")

	ret1 := sbAppendString([]interface{}{sb, hello})
	if ret1 != sb {
		t.Error("sbAppendString should return the receiver for chaining")
	}
	sbAppendString([]interface{}{sb, world})

	got := sbToString([]interface{}{sb})
	if got != "hello, world" {
		t.Errorf("sbToString() = %q, want %q", got, "hello, world")
	}
}

func TestSbAppendStringWithNilArgumentLeavesValueUnchanged(t *testing.T) {
	sb := newStringBuilderObject(t)
	sbInit([]interface{}{sb})
	sbAppendString([]interface{}{sb, (*object.Object)(nil)})
	if got := sbToString([]interface{}{sb}); got != "" {
		t.Errorf("appending a nil argument changed value to %q", got)
	}
}
