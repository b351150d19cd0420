//go:build !unix

package monitor

import (
	"runtime"
	"time"
)

// readRSS falls back to Go heap statistics where no OS counters are
// available.
func readRSS() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}

func readCPUTimes(now time.Time) cpuTimes {
	return cpuTimes{wall: now}
}
