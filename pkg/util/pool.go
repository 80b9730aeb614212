package util

import "runtime"

// GetOptimalPoolSize sizes the parser pools and the batch worker pool.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Parsing runs through cgo, so twice the core count keeps the CPUs busy
// while some goroutines sit in C. Each pooled parser holds a grammar, which
// is why the count is capped.
//
// Examples:
//   - 1-2 cores: 4
//   - 4 cores: 8
//   - 16 cores and up: 32
func GetOptimalPoolSize() int {
	size := runtime.NumCPU() * 2
	if size < 4 {
		size = 4
	}
	if size > 32 {
		size = 32
	}
	return size
}

// GetOptimalPoolSizeWithOverride returns override when it is positive and
// GetOptimalPoolSize otherwise.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
