//go:build linux

package monitor

import (
	"bytes"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// readRSS reads the resident set size from /proc/self/statm (field 2,
// in pages).
func readRSS() uint64 {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0
	}

	fields := bytes.Fields(data)
	if len(fields) < 2 {
		return 0
	}

	pages, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}

	return pages * uint64(os.Getpagesize())
}

func readCPUTimes(now time.Time) cpuTimes {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return cpuTimes{wall: now}
	}

	busy := time.Duration(ru.Utime.Nano()) + time.Duration(ru.Stime.Nano())
	return cpuTimes{wall: now, busy: busy}
}
