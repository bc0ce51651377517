// Package spin provides the cooperative flag-based mutual exclusion
// primitive used throughout the allocator's hot path: critical sections
// are a handful of pointer operations, contention is expected to be rare
// given per-slot partitioning, so a spin-yield loop outperforms parking
// on an OS mutex.
package spin

import (
	"runtime"
	"sync/atomic"
)

// Flag is a single cooperative mutual-exclusion flag. The zero value is
// released (available). Flag must not be copied after first use.
type Flag struct {
	held atomic.Bool
}

// Acquire blocks the calling goroutine, yielding to the scheduler between
// attempts, until it takes the flag.
func (f *Flag) Acquire() {
	for !f.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// TryAcquire attempts to take the flag without blocking, reporting
// whether it succeeded.
func (f *Flag) TryAcquire() bool {
	return f.held.CompareAndSwap(false, true)
}

// Release gives up the flag. The caller must currently hold it.
func (f *Flag) Release() {
	f.held.Store(false)
}
