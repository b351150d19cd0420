//go:build unix && !linux

package monitor

import (
	"time"

	"golang.org/x/sys/unix"
)

// readRSS approximates the resident set size from rusage. On BSD-derived
// systems Maxrss is in kilobytes and reports the peak rather than the
// current value, which is acceptable for advisory telemetry.
func readRSS() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return uint64(ru.Maxrss) * 1024
}

func readCPUTimes(now time.Time) cpuTimes {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return cpuTimes{wall: now}
	}

	busy := time.Duration(ru.Utime.Nano()) + time.Duration(ru.Stime.Nano())
	return cpuTimes{wall: now, busy: busy}
}
