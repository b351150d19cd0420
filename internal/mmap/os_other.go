//go:build !unix

package mmap

import (
	"github.com/edgemind/edgemind/internal/mem"
)

// Platforms without anonymous mmap support fall back to an aligned heap
// allocation. The region is GC-managed; unmap is a no-op.
func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	return mem.AllocAligned(size), nil, nil
}
