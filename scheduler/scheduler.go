// Package scheduler decides, for each layer load request, whether it fits
// in the weight arena, what should be evicted if not, and when a request is
// impossible even after eviction.
//
// The scheduler owns exactly one arena (same lifetime) and the ordered
// record of currently resident layer identifiers. The arena knows nothing
// about layers; the scheduler knows nothing about raw offsets beyond the
// handles the arena hands back.
//
// It is designed for single-writer use, like the arena underneath it.
package scheduler

import (
	"fmt"

	"github.com/edgemind/edgemind/arena"
)

// LayerID identifies a unit of weight data. The scheduler makes no
// assumptions about uniqueness: loading the same identifier twice records
// it twice.
type LayerID uint64

// Outcome classifies the result of a load request.
type Outcome uint8

const (
	// LoadSuccess means the arena had room and the layer is now resident.
	LoadSuccess Outcome = iota
	// MustUnload means the arena had no room but eviction would make room.
	// The decision names the least-recently-loaded resident layer as the
	// candidate; it is advisory, nothing has been freed.
	MustUnload
	// OOM means the arena had no room and nothing is resident: the request
	// can never succeed at the current capacity.
	OOM
	// Aborted means the allocator failed for a reason other than capacity
	// (e.g. the arena was closed). Decision.Err carries the cause.
	Aborted
)

var outcomeNames = map[Outcome]string{
	LoadSuccess: "LoadSuccess",
	MustUnload:  "MustUnload",
	OOM:         "OOM",
	Aborted:     "Aborted",
}

func (o Outcome) String() string {
	return outcomeNames[o]
}

// Decision is the classified result of RequestLoad. It is a value, not an
// error: capacity exhaustion is an expected state, never an exception.
type Decision struct {
	Outcome Outcome
	// Handle references the allocated sub-range. Valid only for LoadSuccess.
	Handle arena.Handle
	// Evict is the nominated eviction candidate. Valid only for MustUnload.
	Evict LayerID
	// Err is the underlying cause for Aborted decisions.
	Err error
}

// Scheduler owns one arena and the load-order record of resident layers.
type Scheduler struct {
	arena    *arena.Arena
	resident []LayerID
	observer Observer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver installs an observer invoked at allocation, eviction and
// flush points. The scheduler itself has no output mechanism.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o == nil {
			o = NopObserver{}
		}
		s.observer = o
	}
}

// Boot creates a scheduler with a hard memory limit, expressed in
// megabytes. The arena is reserved upfront; a failed reservation is fatal
// and propagates.
func Boot(memoryLimitMB int, opts ...Option) (*Scheduler, error) {
	return BootBytes(memoryLimitMB*1024*1024, opts...)
}

// BootBytes is Boot with the limit expressed directly in bytes.
func BootBytes(memoryLimitBytes int, opts ...Option) (*Scheduler, error) {
	a, err := arena.New(memoryLimitBytes)
	if err != nil {
		return nil, fmt.Errorf("scheduler: boot: %w", err)
	}

	s := &Scheduler{
		arena:    a,
		observer: NopObserver{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// RequestLoad asks for sizeBytes of arena space for the given layer.
//
// On success the layer is appended to the resident record exactly once.
// On capacity exhaustion the request is translated into MustUnload (when
// something is resident to evict) or OOM (when nothing is); in both cases
// the arena and the resident record are left untouched.
func (s *Scheduler) RequestLoad(layerID LayerID, sizeBytes int) Decision {
	s.observer.AllocationAttempted(layerID, sizeBytes)

	h, err := s.arena.Allocate(sizeBytes)
	if err == nil {
		s.resident = append(s.resident, layerID)
		return Decision{Outcome: LoadSuccess, Handle: h}
	}

	if !arena.IsOutOfMemory(err) {
		return Decision{Outcome: Aborted, Err: err}
	}

	s.observer.AllocationFailed(layerID, sizeBytes, s.arena.Capacity()-s.arena.UsedBytes())

	if len(s.resident) > 0 {
		victim := s.resident[0]
		s.observer.EvictionSuggested(victim)
		return Decision{Outcome: MustUnload, Evict: victim}
	}

	return Decision{Outcome: OOM}
}

// UnloadAll resets the arena and clears the resident record together.
// It is a full flush, not a selective eviction: the arena has no partial
// free, so the nominated candidate and everything else go at once.
func (s *Scheduler) UnloadAll() {
	freed := s.arena.UsedBytes()
	dropped := len(s.resident)

	s.arena.Reset()
	s.resident = s.resident[:0]

	s.observer.FlushPerformed(freed, dropped)
}

// Bytes resolves a handle returned by a LoadSuccess decision. Handles from
// before the last UnloadAll are rejected.
func (s *Scheduler) Bytes(h arena.Handle) ([]byte, error) {
	return s.arena.Bytes(h)
}

// MemoryUsage returns the arena's current watermark in bytes. Read-only,
// exposed for external telemetry.
func (s *Scheduler) MemoryUsage() int {
	return s.arena.UsedBytes()
}

// Capacity returns the fixed byte capacity chosen at boot.
func (s *Scheduler) Capacity() int {
	return s.arena.Capacity()
}

// Resident returns a copy of the resident-layer record in load order.
func (s *Scheduler) Resident() []LayerID {
	out := make([]LayerID, len(s.resident))
	copy(out, s.resident)
	return out
}

// ArenaStats returns a snapshot of the underlying arena counters.
func (s *Scheduler) ArenaStats() arena.Stats {
	return s.arena.Stats()
}

// Close releases the arena. Idempotent.
func (s *Scheduler) Close() error {
	return s.arena.Close()
}
