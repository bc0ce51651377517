package pool

import "unsafe"

// pointerPool is the single shared pool backing every pointer element
// type, keyed purely by slot count: a []*T buffer and a []*U buffer of
// the same length occupy the same number of pointer-sized slots, so
// there is exactly one underlying cache regardless of what T or U are.
var pointerPool = newPool[unsafe.Pointer]()

// pointerPoolView returns a Pool[T] for a pointer-kind T that shares
// pointerPool's mutex, allocator and bookkeeping maps - everything
// except the type parameter itself, which only affects the slice type
// GetBuffer/ReturnBuffer hand back. This mirrors the spec's design note
// that Pool<T*> is an alias for Pool<T> by convention in the source
// this package is modeled on, without reinterpreting one generic
// instantiation's struct layout as another's.
func pointerPoolView[T any](opts ...Option[T]) *Pool[T] {
	// Options on a pointer-typed For call configure nothing here - the
	// shared pointerPool was already constructed without them, and
	// pointer element pools never need a Constructor (the zero value,
	// nil, is already the correct "no element constructed yet" state)
	// or a distinct allocator.
	return &Pool[T]{
		alloc:            pointerPool.alloc,
		logger:           pointerPool.logger,
		elemSize:         pointerPool.elemSize,
		mu:               pointerPool.mu,
		bufferSizes:      pointerPool.bufferSizes,
		availableBuffers: pointerPool.availableBuffers,
	}
}
