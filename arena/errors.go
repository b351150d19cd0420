package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocationFailed is returned when the backing region itself cannot
	// be reserved (invalid capacity or the operating environment refused the
	// reservation). This is fatal for the arena: there is no retry built in.
	ErrAllocationFailed = errors.New("arena: allocation failed")

	// ErrClosed is returned when a closed arena is used.
	ErrClosed = errors.New("arena: closed")

	// ErrStaleHandle is returned when a handle from before the last Reset is
	// presented. Stale handles are rejected instead of silently mapping onto
	// reused memory.
	ErrStaleHandle = errors.New("arena: stale handle")
)

// OutOfMemoryError indicates that a single allocation would exceed the
// remaining capacity. It is recoverable at the arena layer only via Reset;
// callers (the scheduler) consult it as a value, never as a panic.
type OutOfMemoryError struct {
	// Requested is the size in bytes of the failed allocation.
	Requested int
	// Available is the number of bytes that were still free at the time of
	// the request.
	Available int
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("arena: out of memory: requested %d bytes, %d available", e.Requested, e.Available)
}

// IsOutOfMemory reports whether err is an OutOfMemoryError.
func IsOutOfMemory(err error) bool {
	var oom *OutOfMemoryError
	return errors.As(err, &oom)
}
