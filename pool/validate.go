package pool

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/lancelotpi/smallalloc"
)

// Validate runs the pool's consistency invariants: every cached buffer
// must still be tracked at the count it is cached under, no cached
// buffer may be tracked under a different count, and every tracked
// buffer's corruption-detection margin - written by GetBuffer when the
// debug_smallalloc build tag is present, and always considered intact
// otherwise - must still read back intact. It is meant to be invoked
// through smallalloc.DebugValidate, which no-ops outside that build
// tag.
func (p *Pool[T]) Validate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for num, queue := range p.availableBuffers {
		for _, ptr := range queue {
			tracked, ok := p.bufferSizes.Get(ptr)
			if !ok {
				return errors.Newf("pool: cached buffer %v at count %d has no bufferSizes entry", ptr, num)
			}
			if tracked != num {
				return errors.Newf("pool: cached buffer %v tracked at count %d but cached under count %d", ptr, tracked, num)
			}
		}
	}

	var margErr error
	p.bufferSizes.Iter(func(ptr unsafe.Pointer, num int) (stop bool) {
		if err := checkMargins(ptr, num, int(p.elemSize)); err != nil {
			margErr = err
			return true
		}
		return false
	})
	return margErr
}

// checkMargins reports whether the corruption-detection margins written
// by GetBuffer around a num-element, elemSize-byte buffer at ptr are
// still intact.
func checkMargins(ptr unsafe.Pointer, num, elemSize int) error {
	raw := unsafe.Add(ptr, -smallalloc.DebugMargin)
	if !smallalloc.ValidateMagicValue(raw, 0) {
		return errors.Newf("pool: corrupted leading margin at %v", ptr)
	}
	if !smallalloc.ValidateMagicValue(raw, smallalloc.DebugMargin+num*elemSize) {
		return errors.Newf("pool: corrupted trailing margin at %v", ptr)
	}
	return nil
}
