package workers

import (
	"runtime"
)

// Count returns a worker count scaled to the CPUs available to the process.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound work
// such as encoding, more for work that mostly waits on I/O.
//
// The limit parameter caps the worker count. Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Resolve returns configured when it is positive and ForCPU(limit)
// otherwise. A configured value is not capped.
func Resolve(configured, limit int) int {
	if configured > 0 {
		return configured
	}
	return ForCPU(limit)
}
