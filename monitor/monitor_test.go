package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectSink records samples under a lock.
type collectSink struct {
	mu      sync.Mutex
	samples []Sample
}

func (c *collectSink) Observe(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
}

func (c *collectSink) snapshot() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

func TestMonitor_StartStop(t *testing.T) {
	sink := &collectSink{}
	m := New(sink, WithUsageFunc(func() int { return 42 }))

	m.Start(10 * time.Millisecond)

	// The monitor emits an immediate first sample, so even a short run
	// observes at least one.
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	samples := sink.snapshot()
	require.NotEmpty(t, samples)

	first := samples[0]
	assert.False(t, first.Time.IsZero())
	assert.Equal(t, 42, first.ManagedBytes)

	// Stop is one-shot; a second call must not panic or block.
	m.Stop()

	// No further samples arrive after Stop returns.
	n := len(sink.snapshot())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, len(sink.snapshot()))
}

func TestMonitor_StartIdempotent(t *testing.T) {
	sink := &collectSink{}
	m := New(sink)

	m.Start(10 * time.Millisecond)
	m.Start(10 * time.Millisecond) // no second goroutine
	m.Stop()
}

func TestMonitor_StopWithoutStart(t *testing.T) {
	m := New(nil)
	m.Stop() // must not block or panic
}

func TestMonitor_NilSink(t *testing.T) {
	m := New(nil)
	m.Start(5 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	m.Stop()
}

func TestReadRSS(t *testing.T) {
	// RSS of a live test process should be nonzero on supported platforms.
	rss := readRSS()
	assert.NotZero(t, rss)
}
