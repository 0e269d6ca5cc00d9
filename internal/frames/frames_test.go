/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import "testing"

func TestPushPopOrdering(t *testing.T) {
	f := CreateFrame(4)
	f.Push(int32(1))
	f.Push(int32(2))
	f.Push(int32(3))

	if got := f.Pop(); got != int32(3) {
		t.Errorf("Pop() = %v, want int32(3)", got)
	}
	if got := f.Peek(); got != int32(2) {
		t.Errorf("Peek() = %v, want int32(2)", got)
	}
	if got := f.Pop(); got != int32(2) {
		t.Errorf("Pop() = %v, want int32(2)", got)
	}
	if got := f.Pop(); got != int32(1) {
		t.Errorf("Pop() = %v, want int32(1)", got)
	}
	if f.TOS != -1 {
		t.Errorf("TOS after draining stack = %d, want -1", f.TOS)
	}
}

func TestDupDuplicatesTop(t *testing.T) {
	f := CreateFrame(4)
	f.Push(int32(42))
	f.Dup()

	if len(f.OpStack) != 2 {
		t.Fatalf("len(OpStack) = %d, want 2", len(f.OpStack))
	}
	if f.OpStack[0] != int32(42) || f.OpStack[1] != int32(42) {
		t.Errorf("OpStack = %v, want [42 42]", f.OpStack)
	}
}

func TestCategory2LocalsOccupyTwoSlots(t *testing.T) {
	f := CreateFrame(0)
	f.SetLocals(4)
	f.SetLongLocal(1, 1234567890123)

	if f.Locals[1] != int64(1234567890123) {
		t.Errorf("Locals[1] = %v, want the long value", f.Locals[1])
	}
	if _, ok := f.Locals[2].(wideSlot); !ok {
		t.Errorf("Locals[2] = %v, want the wide-slot marker", f.Locals[2])
	}
}

func TestCategory2ValuesOccupyOneOperandStackSlot(t *testing.T) {
	f := CreateFrame(4)
	f.PushLong(99)
	if len(f.OpStack) != 1 {
		t.Fatalf("len(OpStack) after PushLong = %d, want 1", len(f.OpStack))
	}
	if got := f.PopLong(); got != 99 {
		t.Errorf("PopLong() = %d, want 99", got)
	}
}

func TestStackPushPopFrameOrdering(t *testing.T) {
	s := NewStack()
	if s.Current() != nil {
		t.Fatal("Current() on empty stack should be nil")
	}
	if s.PopFrame() != nil {
		t.Fatal("PopFrame() on empty stack should be nil")
	}

	outer := CreateFrame(4)
	outer.MethName = "outer"
	inner := CreateFrame(4)
	inner.MethName = "inner"

	s.PushFrame(outer)
	s.PushFrame(inner)

	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}
	if s.Current().MethName != "inner" {
		t.Errorf("Current().MethName = %q, want %q", s.Current().MethName, "inner")
	}

	popped := s.PopFrame()
	if popped.MethName != "inner" {
		t.Errorf("PopFrame() returned %q, want %q", popped.MethName, "inner")
	}
	if s.Current().MethName != "outer" {
		t.Errorf("Current().MethName after pop = %q, want %q", s.Current().MethName, "outer")
	}
}
