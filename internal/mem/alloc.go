// Package mem provides memory allocation utilities.
package mem

import (
	"unsafe"
)

// Alignment is the byte alignment required for tensor weight blocks (32 bytes,
// matching AVX2 vector width).
const Alignment = 32

// AllocAligned allocates a byte slice of the given size with 32-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 32.
//
// Note: This function allocates slightly more memory than requested to ensure
// alignment. The underlying array is kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size == 0 {
		return nil
	}

	// Allocate size + alignment to ensure we can find an aligned offset
	totalSize := size + Alignment
	buf := make([]byte, totalSize)

	// Calculate the offset to the first aligned byte
	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	// Return the slice starting at the aligned offset
	return buf[offset : offset+uintptr(size)]
}
