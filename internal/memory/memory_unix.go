//go:build linux || darwin

/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package memory

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapAt is a thin wrapper around the raw mmap(2) syscall that, unlike
// unix.Mmap, accepts an explicit (possibly nil) target address — needed
// for MAP_FIXED commit/uncommit of a specific heap segment range.
func mmapAt(addr unsafe.Pointer, length uintptr, prot, flags int) (unsafe.Pointer, error) {
	r1, _, errno := unix.Syscall6(unix.SYS_MMAP,
		uintptr(addr), length, uintptr(prot), uintptr(flags), ^uintptr(0), 0)
	if errno != 0 {
		return nil, errno
	}
	return unsafe.Pointer(r1), nil
}

func munmapAt(addr unsafe.Pointer, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptr(addr), length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// Init discovers the page size, mirroring mem_init()'s sysconf(_SC_PAGESIZE)
// call.
func Init() bool {
	ps := unix.Getpagesize()
	systemInfo = SystemInfo{
		PageSize:         uint32(ps),
		AllocGranularity: uint32(ps),
	}
	return true
}

// GetStatus fills in a rough physical-memory snapshot. POSIX has no
// portable virtual-address-space size query, so, as the original does,
// it reports a conservative 128TiB ceiling.
func GetStatus() (Status, bool) {
	var s Status
	const oneTwentyEightTB = uint64(1) << 47
	s.TotalVirt = oneTwentyEightTB
	s.AvailVirt = oneTwentyEightTB
	return s, true
}

// Reserve reserves a region of address space without committing
// physical memory, returning the (possibly alignment-adjusted) base
// address. addr == nil lets the OS pick the address; a non-nil addr
// requests that exact mapping (used when growing a heap segment in
// place). Mirrors mem_reserve.
func Reserve(addr unsafe.Pointer, size uintptr, alignmentHint uintptr) unsafe.Pointer {
	if addr != nil {
		if !IsPtrAligned(addr, alignmentHint) || uintptr(addr)%uintptr(systemInfo.PageSize) != 0 {
			return nil
		}
	}

	flags := unix.MAP_PRIVATE | unix.MAP_ANON
	requiredSize := size
	if addr == nil && alignmentHint != AnyAlignment {
		requiredSize = size + alignmentHint
	}
	if addr != nil {
		flags |= unix.MAP_FIXED
	}

	data, err := mmapAt(addr, requiredSize, unix.PROT_NONE, flags)
	if err != nil {
		return nil
	}

	if addr != nil {
		if data == addr {
			return data
		}
		_ = munmapAt(data, requiredSize)
		return nil
	}

	alignedAddr := unsafe.Pointer(AlignUp(uintptr(data), alignmentHint))
	alignedEnd := unsafe.Add(alignedAddr, size)
	targetEnd := unsafe.Add(data, requiredSize)
	if uintptr(alignedAddr) > uintptr(data) {
		_ = munmapAt(data, uintptr(alignedAddr)-uintptr(data))
	}
	if uintptr(alignedEnd) < uintptr(targetEnd) {
		_ = munmapAt(alignedEnd, uintptr(targetEnd)-uintptr(alignedEnd))
	}
	return alignedAddr
}

// Commit makes previously-reserved pages readable/writable, backing
// them with physical memory on first touch. Mirrors mem_commit.
func Commit(addr unsafe.Pointer, size uintptr) bool {
	_, err := mmapAt(addr, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_FIXED|unix.MAP_ANON)
	return err == nil
}

// Uncommit releases the physical backing of a committed range while
// keeping the address space reserved. Mirrors mem_uncommit.
func Uncommit(addr unsafe.Pointer, size uintptr) bool {
	_, err := mmapAt(addr, size, unix.PROT_NONE,
		unix.MAP_PRIVATE|unix.MAP_FIXED|unix.MAP_ANON)
	return err == nil
}

// Release gives back reserved address space entirely. Mirrors
// mem_release.
func Release(addr unsafe.Pointer, size uintptr) bool {
	if addr == nil {
		return true
	}
	return munmapAt(addr, size) == nil
}
