//go:build windows

/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package memory

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Init discovers the page size and allocation granularity via
// GetSystemInfo, mirroring vm_memory_win32.c's mem_init().
func Init() bool {
	var si windows.SystemInfo
	windows.GetSystemInfo(&si)
	systemInfo = SystemInfo{
		PageSize:         si.PageSize,
		AllocGranularity: si.AllocationGranularity,
	}
	return true
}

// GetStatus queries GlobalMemoryStatusEx for a snapshot of
// physical/virtual memory availability.
func GetStatus() (Status, bool) {
	var ms windows.MemoryStatusEx
	ms.Length = uint32(unsafe.Sizeof(ms))
	if err := windows.GlobalMemoryStatusEx(&ms); err != nil {
		return Status{}, false
	}
	return Status{
		TotalPhys: ms.TotalPhys,
		AvailPhys: ms.AvailPhys,
		TotalVirt: ms.TotalVirtual,
		AvailVirt: ms.AvailVirtual,
	}, true
}

// Reserve reserves address space with VirtualAlloc(MEM_RESERVE),
// mirroring mem_reserve's Windows branch.
func Reserve(addr unsafe.Pointer, size uintptr, alignmentHint uintptr) unsafe.Pointer {
	requiredSize := size
	if addr == nil && alignmentHint != AnyAlignment {
		requiredSize = size + alignmentHint
	}

	base, err := windows.VirtualAlloc(uintptr(addr), requiredSize, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil || base == 0 {
		return nil
	}

	if addr != nil {
		return unsafe.Pointer(base)
	}

	alignedAddr := AlignUp(base, alignmentHint)
	if alignedAddr == base {
		return unsafe.Pointer(base)
	}

	// Windows reservations can't be trimmed in place; re-reserve at the
	// aligned address exactly, same two-step dance vm_memory_win32.c
	// documents.
	_ = windows.VirtualFree(base, 0, windows.MEM_RELEASE)
	base2, err := windows.VirtualAlloc(alignedAddr, size, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil || base2 != alignedAddr {
		return nil
	}
	return unsafe.Pointer(base2)
}

// Commit backs a reserved range with physical memory via
// VirtualAlloc(MEM_COMMIT).
func Commit(addr unsafe.Pointer, size uintptr) bool {
	_, err := windows.VirtualAlloc(uintptr(addr), size, windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err == nil
}

// Uncommit decommits a range, keeping the address space reserved.
func Uncommit(addr unsafe.Pointer, size uintptr) bool {
	return windows.VirtualFree(uintptr(addr), size, windows.MEM_DECOMMIT) == nil
}

// Release frees the entire reservation.
func Release(addr unsafe.Pointer, size uintptr) bool {
	if addr == nil {
		return true
	}
	return windows.VirtualFree(uintptr(addr), 0, windows.MEM_RELEASE) == nil
}
