// Package arena provides a bump allocator over a single pre-reserved memory
// region, sized for holding model weight blocks ("layers") that are loaded
// on demand and evicted wholesale.
//
// # Concurrency Model
//
// Arena is designed for single-writer use: Allocate, Reset and Close must
// not be called concurrently with each other or with Bytes. The backing
// region may be handed to another goroutine, but concurrent mutation
// requires external synchronization - the arena provides no internal
// locking.
//
// # Memory Management
//
// The region is reserved once at construction (anonymous mapping, off the
// Go heap) and released exactly once by Close. There is no per-allocation
// free: Reset reclaims everything at once by snapping the watermark back to
// zero and bumping the generation counter, which invalidates all
// outstanding handles en masse.
package arena

import (
	"fmt"
	"sync/atomic"

	"github.com/edgemind/edgemind/internal/mmap"
)

// Alignment is the guaranteed byte alignment of the backing region
// (AVX2 vector width). Anonymous mappings are page-aligned, which is
// strictly stronger.
const Alignment = 32

// Handle is an opaque reference to an allocated sub-range of the region.
// It carries the generation it was allocated under; after a Reset the
// handle is stale and the arena refuses to resolve it.
type Handle struct {
	// Offset is the start of the sub-range within the region.
	Offset int
	// Size is the length of the sub-range in bytes.
	Size int

	gen uint32
}

// Generation returns the arena generation this handle was allocated under.
func (h Handle) Generation() uint32 { return h.gen }

// Arena owns one contiguous, fixed-capacity memory region and hands out
// sub-ranges by advancing a watermark.
type Arena struct {
	mapping  *mmap.Mapping
	region   []byte
	capacity int
	offset   int

	generation uint32
	allocs     uint64
	closed     atomic.Bool
}

// New reserves capacity bytes of memory as a single upfront acquisition.
// It returns an error wrapping ErrAllocationFailed if the capacity is
// invalid or the reservation is refused.
func New(capacity int) (*Arena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: invalid capacity %d", ErrAllocationFailed, capacity)
	}

	mapping, err := mmap.MapAnon(capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocationFailed, err)
	}

	return &Arena{
		mapping:  mapping,
		region:   mapping.Bytes(),
		capacity: capacity,
		// Generation starts at 1 so the zero Handle is never valid.
		generation: 1,
	}, nil
}

// Allocate returns a handle to the next size bytes of the region and
// zero-fills them. The zero-fill is deliberate: it establishes a defined
// initial state and forces the backing pages to be physically resident,
// so allocation cost is proportional to size.
//
// If size bytes do not fit, Allocate returns an *OutOfMemoryError and
// mutates nothing.
func (a *Arena) Allocate(size int) (Handle, error) {
	if a.closed.Load() {
		return Handle{}, ErrClosed
	}
	if size < 0 {
		return Handle{}, fmt.Errorf("%w: negative size %d", ErrAllocationFailed, size)
	}

	// Subtraction form: offset+size could overflow for sizes near MaxInt.
	if size > a.capacity-a.offset {
		return Handle{}, &OutOfMemoryError{
			Requested: size,
			Available: a.capacity - a.offset,
		}
	}

	h := Handle{
		Offset: a.offset,
		Size:   size,
		gen:    a.generation,
	}

	clear(a.region[a.offset : a.offset+size])
	a.offset += size
	a.allocs++

	return h, nil
}

// Bytes resolves a handle to its sub-range of the region. Handles from
// before the last Reset are rejected with ErrStaleHandle.
func (a *Arena) Bytes(h Handle) ([]byte, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if h.gen != a.generation {
		return nil, ErrStaleHandle
	}
	if h.Offset < 0 || h.Size < 0 || h.Size > a.offset-h.Offset {
		return nil, fmt.Errorf("%w: handle at %d size %d outside watermark %d", ErrStaleHandle, h.Offset, h.Size, a.offset)
	}
	return a.region[h.Offset : h.Offset+h.Size : h.Offset+h.Size], nil
}

// Reset snaps the watermark back to zero and invalidates all outstanding
// handles. It performs no zeroing and does not release the backing region.
func (a *Arena) Reset() {
	a.offset = 0
	a.generation++
}

// UsedBytes returns the current watermark.
func (a *Arena) UsedBytes() int {
	return a.offset
}

// Capacity returns the fixed capacity of the region in bytes.
func (a *Arena) Capacity() int {
	return a.capacity
}

// Generation returns the current generation counter. It is incremented by
// every Reset.
func (a *Arena) Generation() uint32 {
	return a.generation
}

// Stats is a snapshot of arena usage.
type Stats struct {
	CapacityBytes int
	UsedBytes     int
	TotalAllocs   uint64
	Generation    uint32
}

// Stats returns a snapshot of the arena's usage counters.
func (a *Arena) Stats() Stats {
	return Stats{
		CapacityBytes: a.capacity,
		UsedBytes:     a.offset,
		TotalAllocs:   a.allocs,
		Generation:    a.generation,
	}
}

// Close releases the backing region. It is idempotent; only the first call
// unmaps.
func (a *Arena) Close() error {
	if a.closed.Swap(true) {
		return nil // Already closed
	}
	a.region = nil
	return a.mapping.Close()
}

func (a *Arena) String() string {
	return fmt.Sprintf("Arena{capacity: %.2f MB, used: %.2f MB, allocs: %d, gen: %d}",
		float64(a.capacity)/1024/1024,
		float64(a.offset)/1024/1024,
		a.allocs,
		a.generation,
	)
}
