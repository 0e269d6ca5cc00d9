/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excnames holds the fully-qualified internal names (JVMS §4.2.1
// slash-separated form) of every Java exception/error the runtime itself
// can raise, per spec.md §7's taxonomy. Kept as a flat set of string
// constants — exactly jacobin's excNames package — because intrinsics
// only ever need the name to resolve+throw, never a richer type.
package excnames

const (
	NullPointerException            = "java/lang/NullPointerException"
	ArrayIndexOutOfBoundsException  = "java/lang/ArrayIndexOutOfBoundsException"
	NegativeArraySizeException     = "java/lang/NegativeArraySizeException"
	ArrayStoreException             = "java/lang/ArrayStoreException"
	ClassCastException              = "java/lang/ClassCastException"
	ArithmeticException             = "java/lang/ArithmeticException"
	IllegalMonitorStateException    = "java/lang/IllegalMonitorStateException"
	IncompatibleClassChangeError    = "java/lang/IncompatibleClassChangeError"
	NoSuchFieldError                = "java/lang/NoSuchFieldError"
	AbstractMethodError             = "java/lang/AbstractMethodError"
	UnsatisfiedLinkError            = "java/lang/UnsatisfiedLinkError"
	ExceptionInInitializerError     = "java/lang/ExceptionInInitializerError"
	NoClassDefFoundError            = "java/lang/NoClassDefFoundError"
	OutOfMemoryError                = "java/lang/OutOfMemoryError"
	ClassNotFoundException          = "java/lang/ClassNotFoundException"
	InterruptedException            = "java/lang/InterruptedException"
	RuntimeException                = "java/lang/RuntimeException"
	IllegalArgumentException        = "java/lang/IllegalArgumentException"
	IndexOutOfBoundsException       = "java/lang/IndexOutOfBoundsException"
	IOException                     = "java/io/IOException"
)
