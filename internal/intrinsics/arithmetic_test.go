/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package intrinsics

import (
	"math"
	"testing"
)

func TestIDivMinValueByNegOneWraps(t *testing.T) {
	if got := IDiv(math.MinInt32, -1); got != math.MinInt32 {
		t.Errorf("IDiv(MinInt32, -1) = %d, want MinInt32", got)
	}
	if got := IRem(math.MinInt32, -1); got != 0 {
		t.Errorf("IRem(MinInt32, -1) = %d, want 0", got)
	}
}

func TestLDivMinValueByNegOneWraps(t *testing.T) {
	if got := LDiv(math.MinInt64, -1); got != math.MinInt64 {
		t.Errorf("LDiv(MinInt64, -1) = %d, want MinInt64", got)
	}
	if got := LRem(math.MinInt64, -1); got != 0 {
		t.Errorf("LRem(MinInt64, -1) = %d, want 0", got)
	}
}

func TestShiftDistancesAreMasked(t *testing.T) {
	if IShl(1, 33) != IShl(1, 1) {
		t.Error("IShl(x, 33) should equal IShl(x, 1): 33 & 0x1f == 1")
	}
	if IShr(-8, 33) != IShr(-8, 1) {
		t.Error("IShr(x, 33) should equal IShr(x, 1)")
	}
	if IUshr(-1, 32) != IUshr(-1, 0) {
		t.Error("IUshr(x, 32) should equal IUshr(x, 0): 32 & 0x1f == 0")
	}
	if LShl(1, 65) != LShl(1, 1) {
		t.Error("LShl(x, 65) should equal LShl(x, 1): 65 & 0x3f == 1")
	}
	if LUshr(-1, 64) != LUshr(-1, 0) {
		t.Error("LUshr(x, 64) should equal LUshr(x, 0): 64 & 0x3f == 0")
	}
}

func TestIUshrTreatsOperandAsUnsigned(t *testing.T) {
	if got := IUshr(-1, 28); got != 0xF {
		t.Errorf("IUshr(-1, 28) = %d, want 15", got)
	}
}

func TestFCmplAndFCmpgDisagreeOnNaN(t *testing.T) {
	nan := float32(math.NaN())
	if FCmpl(nan, 1) != -1 {
		t.Error("FCmpl with a NaN operand should resolve to -1")
	}
	if FCmpg(nan, 1) != 1 {
		t.Error("FCmpg with a NaN operand should resolve to 1")
	}
	if FCmpl(1, 2) != -1 || FCmpg(2, 1) != 1 || FCmpl(1, 1) != 0 {
		t.Error("ordinary (non-NaN) comparisons should behave like a normal 3-way compare")
	}
}

func TestDCmplAndDCmpgDisagreeOnNaN(t *testing.T) {
	nan := math.NaN()
	if DCmpl(nan, 1) != -1 {
		t.Error("DCmpl with a NaN operand should resolve to -1")
	}
	if DCmpg(nan, 1) != 1 {
		t.Error("DCmpg with a NaN operand should resolve to 1")
	}
}

func TestF2IAndD2LClampAndZeroNaN(t *testing.T) {
	if got := F2I(float32(math.NaN())); got != 0 {
		t.Errorf("F2I(NaN) = %d, want 0", got)
	}
	if got := D2I(math.Inf(1)); got != math.MaxInt32 {
		t.Errorf("D2I(+Inf) = %d, want MaxInt32", got)
	}
	if got := D2I(math.Inf(-1)); got != math.MinInt32 {
		t.Errorf("D2I(-Inf) = %d, want MinInt32", got)
	}
	if got := F2L(float32(math.NaN())); got != 0 {
		t.Errorf("F2L(NaN) = %d, want 0", got)
	}
	if got := D2L(math.Inf(1)); got != math.MaxInt64 {
		t.Errorf("D2L(+Inf) = %d, want MaxInt64", got)
	}
}

func TestL2IRoundTripsRepresentableInts(t *testing.T) {
	for _, v := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32} {
		if got := L2I(I2L(v)); got != v {
			t.Errorf("L2I(I2L(%d)) = %d, want %d", v, got, v)
		}
	}
}

func TestNarrowingConversionsTruncate(t *testing.T) {
	if got := I2B(0x1FF); got != -1 {
		t.Errorf("I2B(0x1FF) = %d, want -1", got)
	}
	if got := I2C(-1); got != 0xFFFF {
		t.Errorf("I2C(-1) = %d, want 0xFFFF", got)
	}
	if got := I2S(0x10001); got != 1 {
		t.Errorf("I2S(0x10001) = %d, want 1", got)
	}
}
