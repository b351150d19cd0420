// Package monitor provides a background telemetry reporter that samples
// process resource counters (RSS, CPU) on a fixed interval and hands them
// to a structured sink.
//
// The monitor is architected independently from the allocator it observes:
// it shares no memory or locks with it, only reads externally visible
// counters plus an optional read-only usage callback. Stopping is
// cooperative and best-effort; no ordering guarantee exists between
// "monitor stopped" and "last allocation observed".
package monitor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Sample is one telemetry observation.
type Sample struct {
	// Time the sample was taken.
	Time time.Time
	// RSSBytes is the process resident set size.
	RSSBytes uint64
	// CPUPercent is the process CPU usage since the previous sample,
	// across all cores (0 on the first sample).
	CPUPercent float64
	// ManagedBytes is the value of the usage callback, typically the
	// arena watermark. Zero when no callback is configured.
	ManagedBytes int
}

// Sink receives samples. Implementations must be safe for calls from the
// monitor goroutine and must not block for long.
type Sink interface {
	Observe(Sample)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Sample)

func (f SinkFunc) Observe(s Sample) { f(s) }

// Monitor polls process resource counters until stopped.
type Monitor struct {
	sink      Sink
	usageFunc func() int

	stopCh  chan struct{}
	stopped atomic.Bool
	started atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithUsageFunc installs a read-only callback sampled alongside the process
// counters, typically the scheduler's MemoryUsage.
func WithUsageFunc(fn func() int) Option {
	return func(m *Monitor) {
		m.usageFunc = fn
	}
}

// New creates a monitor that reports to sink. A nil sink discards samples.
func New(sink Sink, opts ...Option) *Monitor {
	if sink == nil {
		sink = SinkFunc(func(Sample) {})
	}

	m := &Monitor{
		sink:   sink,
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start launches the background sampling goroutine. Calling Start more
// than once is a no-op.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if m.started.Swap(true) {
		return
	}

	m.wg.Add(1)
	go m.run(interval)
}

// Stop signals the sampling goroutine to terminate and waits for it to
// exit. The signal is one-shot; calling Stop again is a no-op.
func (m *Monitor) Stop() {
	if !m.started.Load() {
		return
	}
	if m.stopped.Swap(true) {
		return
	}
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) run(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev cpuTimes

	// Emit one sample immediately so short-lived processes still report.
	prev = m.sample(prev)

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			prev = m.sample(prev)
		}
	}
}

func (m *Monitor) sample(prev cpuTimes) cpuTimes {
	now := time.Now()

	s := Sample{
		Time:     now,
		RSSBytes: readRSS(),
	}

	curr := readCPUTimes(now)
	if !prev.wall.IsZero() {
		wall := curr.wall.Sub(prev.wall)
		if wall > 0 {
			busy := curr.busy - prev.busy
			s.CPUPercent = float64(busy) / float64(wall) * 100
		}
	}

	if m.usageFunc != nil {
		s.ManagedBytes = m.usageFunc()
	}

	m.sink.Observe(s)
	return curr
}

// cpuTimes is a point-in-time reading of process CPU consumption.
type cpuTimes struct {
	wall time.Time
	busy time.Duration
}
