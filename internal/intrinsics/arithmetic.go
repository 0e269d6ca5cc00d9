/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package intrinsics implements the bytecode-level operations of
// spec.md §4.2/§8: arithmetic and comparison with exact JVMS overflow/
// NaN semantics, the category-1/2 stack-shuffle family (dup/dup_x1/
// dup_x2/swap), and the object-model operations (new/newarray/
// getfield/putfield/checkcast/instanceof/athrow/monitorenter/exit/
// invoke) that drive internal/classloader, internal/heap and
// internal/exceptions. This file covers arithmetic; ops.go covers the
// object-model intrinsics.
package intrinsics

import "math"

// IAdd, ISub, IMul are ordinary 32-bit two's-complement wraparound,
// which Go's int32 arithmetic already gives for free.
func IAdd(a, b int32) int32 { return a + b }
func ISub(a, b int32) int32 { return a - b }
func IMul(a, b int32) int32 { return a * b }

// IDiv implements idiv's one documented special case: JVMS §6.5 idiv
// says overflow (MIN_VALUE / -1) silently wraps back to MIN_VALUE
// rather than overflowing, matching §8's testable property.
func IDiv(a, b int32) int32 {
	if a == math.MinInt32 && b == -1 {
		return math.MinInt32
	}
	return a / b
}

// IRem mirrors IDiv's overflow case: MIN_VALUE % -1 == 0.
func IRem(a, b int32) int32 {
	if a == math.MinInt32 && b == -1 {
		return 0
	}
	return a % b
}

func INeg(a int32) int32 { return -a }

// IShl/IShr/IUshr mask the shift distance to the low 5 bits per JVMS
// §6.5 ishl/ishr/iushr ("only the low order 5 bits... are used"),
// which is exactly why ishl(x, 33) == ishl(x, 1): 33 & 0x1f == 1.
func IShl(a, shift int32) int32  { return a << (uint32(shift) & 0x1f) }
func IShr(a, shift int32) int32  { return a >> (uint32(shift) & 0x1f) }
func IUshr(a, shift int32) int32 { return int32(uint32(a) >> (uint32(shift) & 0x1f)) }

func IAnd(a, b int32) int32 { return a & b }
func IOr(a, b int32) int32  { return a | b }
func IXor(a, b int32) int32 { return a ^ b }

// LAdd/LSub/LMul/LNeg mirror the int forms at 64-bit width.
func LAdd(a, b int64) int64 { return a + b }
func LSub(a, b int64) int64 { return a - b }
func LMul(a, b int64) int64 { return a * b }
func LNeg(a int64) int64    { return -a }

// LDiv/LRem carry the same MIN_VALUE/-1 special case as IDiv/IRem.
func LDiv(a, b int64) int64 {
	if a == math.MinInt64 && b == -1 {
		return math.MinInt64
	}
	return a / b
}

func LRem(a, b int64) int64 {
	if a == math.MinInt64 && b == -1 {
		return 0
	}
	return a % b
}

// LShl/LShr/LUshr mask the shift distance to the low 6 bits per JVMS
// §6.5 lshl/lshr/lushr, giving lshl(x, 65) == lshl(x, 1).
func LShl(a int64, shift int32) int64  { return a << (uint32(shift) & 0x3f) }
func LShr(a int64, shift int32) int64  { return a >> (uint32(shift) & 0x3f) }
func LUshr(a int64, shift int32) int64 { return int64(uint64(a) >> (uint32(shift) & 0x3f)) }

func LAnd(a, b int64) int64 { return a & b }
func LOr(a, b int64) int64  { return a | b }
func LXor(a, b int64) int64 { return a ^ b }

// LCmp implements lcmp: -1/0/1 with no NaN concern (integral).
func LCmp(a, b int64) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// FAdd/FSub/FMul/FDiv/FRem/FNeg and the double equivalents defer
// entirely to Go's IEEE-754 float32/float64 arithmetic, which already
// implements JVMS §6.5's NaN-propagation and signed-zero rules.
func FAdd(a, b float32) float32 { return a + b }
func FSub(a, b float32) float32 { return a - b }
func FMul(a, b float32) float32 { return a * b }
func FDiv(a, b float32) float32 { return a / b }
func FRem(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) }
func FNeg(a float32) float32    { return -a }

func DAdd(a, b float64) float64 { return a + b }
func DSub(a, b float64) float64 { return a - b }
func DMul(a, b float64) float64 { return a * b }
func DDiv(a, b float64) float64 { return a / b }
func DRem(a, b float64) float64 { return math.Mod(a, b) }
func DNeg(a float64) float64    { return -a }

// FCmpl/FCmpg implement fcmpl/fcmpg's NaN handling (JVMS §6.5): any
// NaN operand makes the two "unordered"; fcmpl resolves unordered to
// -1, fcmpg resolves it to 1, so whichever comparison direction the
// compiler chose for `x < y` vs `x > y` correctly falls through to the
// "false" branch when a NaN is involved.
func FCmpl(a, b float32) int32 { return cmp32(a, b, -1) }
func FCmpg(a, b float32) int32 { return cmp32(a, b, 1) }

func cmp32(a, b float32, nanResult int32) int32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return nanResult
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func DCmpl(a, b float64) int32 { return cmp64(a, b, -1) }
func DCmpg(a, b float64) int32 { return cmp64(a, b, 1) }

func cmp64(a, b float64, nanResult int32) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return nanResult
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// I2L/I2F/I2D/L2I/L2F/L2D/F2D/D2F are ordinary widening/narrowing
// conversions; (int)(long)i == i for every int i falls out of Go's
// int64->int32 truncation matching JVMS §5.1.3's l2i ("adopts the low
// 32 bits ... no loss of information if the long is a representable
// int"), since widening i to int64 and truncating back always round-trips.
func I2L(a int32) int64   { return int64(a) }
func I2F(a int32) float32 { return float32(a) }
func I2D(a int32) float64 { return float64(a) }
func L2I(a int64) int32   { return int32(a) }
func L2F(a int64) float32 { return float32(a) }
func L2D(a int64) float64 { return float64(a) }
func F2D(a float32) float64 { return float64(a) }
func D2F(a float64) float32 { return float32(a) }
func I2B(a int32) int32   { return int32(int8(a)) }
func I2C(a int32) int32   { return int32(uint16(a)) }
func I2S(a int32) int32   { return int32(int16(a)) }

// F2I/F2L/D2I/D2L implement JVMS §5.1.3's float/double-to-integral
// conversion, which special-cases NaN to 0 (not Go's default behavior,
// where a NaN->int conversion is implementation-defined) and clamps
// out-of-range values to the target type's min/max rather than
// wrapping, per §8's testable property "(int)Float.NaN == 0".
func F2I(a float32) int32 { return d2iClamped(float64(a)) }
func F2L(a float32) int64 { return d2lClamped(float64(a)) }
func D2I(a float64) int32 { return d2iClamped(a) }
func D2L(a float64) int64 { return d2lClamped(a) }

func d2iClamped(a float64) int32 {
	if math.IsNaN(a) {
		return 0
	}
	if a >= math.MaxInt32 {
		return math.MaxInt32
	}
	if a <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(a)
}

func d2lClamped(a float64) int64 {
	if math.IsNaN(a) {
		return 0
	}
	if a >= math.MaxInt64 {
		return math.MaxInt64
	}
	if a <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(a)
}
