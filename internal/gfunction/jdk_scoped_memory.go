/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

// Load_Jdk_Internal_Misc_ScopedMemoryAccess registers no-op stubs for
// jdk/internal/misc/ScopedMemoryAccess, which the standard class
// library's bootstrap path references but this runtime's closed-world
// program set never actually calls into (no off-heap FFI support),
// matching artipop-jacobin/src/gfunction/
// jdkInternalMiscScopedMemoryAccess.go's pair of justReturn stubs
// exactly.
func Load_Jdk_Internal_Misc_ScopedMemoryAccess() {
	MethodSignatures["jdk/internal/misc/ScopedMemoryAccess.<clinit>()V"] = GMeth{ParamSlots: 0, GFunction: justReturn}

	MethodSignatures["jdk/internal/misc/ScopedMemoryAccess.registerNatives()V"] = GMeth{ParamSlots: 0, GFunction: justReturn}
}
