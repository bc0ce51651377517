// Package smallalloc implements a two-tier general-purpose memory
// subsystem: a segregated free-list small object allocator backed by a
// growable arena (see subpackage alloc), and a type-aware buffer pool
// that caches released fixed-size buffers for reuse (see subpackage
// pool). Both sit on top of a system shim that wraps the platform's raw
// allocator with an installable out-of-memory handler chain (see
// subpackage shim).
package smallalloc

import "github.com/pkg/errors"

// ErrOutOfMemory is wrapped and carried inside the panic raised when
// the system shim's raw allocator fails and no out-of-memory handler is
// installed to recover.
var ErrOutOfMemory error = errors.New("out of memory")

// ErrPowerOfTwo is returned when a value that is required to be a power
// of two is not.
var ErrPowerOfTwo error = errors.New("value must be a power of two")

// AlignUp rounds value up to the nearest multiple of alignment.
// alignment must be a power of two.
func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & ^(int(alignment) - 1)
}

// CheckPow2 returns ErrPowerOfTwo, annotated with name, if value is not
// a power of two.
func CheckPow2(value int, name string) error {
	if value <= 0 || value&(value-1) != 0 {
		return errors.Wrapf(ErrPowerOfTwo, "%s is %d", name, value)
	}
	return nil
}
