// Package pool implements the type-aware Buffer Pool: a per-type cache
// that retains released fixed-size buffers, keyed by element count, for
// reuse by later requests of the same count. It is built directly on
// top of the alloc package's Small Object Allocator / large-request
// bypass rather than the Go runtime's GC-managed heap, so that buffer
// lifetime is explicit and under caller control.
package pool

import (
	"log/slog"
	"reflect"
	"sync"
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/lancelotpi/smallalloc/alloc"
)

// Constructor, if supplied, is called once per element to initialize a
// freshly allocated (never-before-issued) buffer. GetBuffer never calls
// it for a buffer served from the cache - cached buffers are handed
// back with whatever payload they held when returned, matching the
// spec's "no re-initialization" contract.
type Constructor[T any] func() T

// Pool is a per-type, per-count buffer cache sitting on top of a Small
// Object Allocator. The zero Pool is not valid; obtain one with For.
type Pool[T any] struct {
	alloc       *alloc.Allocator
	constructor Constructor[T]
	logger      *slog.Logger
	elemSize    uintptr

	mu               *sync.Mutex
	bufferSizes      *swiss.Map[unsafe.Pointer, int]
	availableBuffers map[int][]unsafe.Pointer
}

// Option configures a Pool created by For.
type Option[T any] func(*Pool[T])

// WithConstructor installs a per-element constructor run once when a
// buffer is allocated fresh (never-before-issued), not when one is
// reissued from the cache.
func WithConstructor[T any](ctor Constructor[T]) Option[T] {
	return func(p *Pool[T]) { p.constructor = ctor }
}

// WithAllocator overrides the Small Object Allocator instance backing
// the pool. The default is alloc.Default().
func WithAllocator[T any](a *alloc.Allocator) Option[T] {
	return func(p *Pool[T]) { p.alloc = a }
}

// WithLogger overrides the pool's diagnostic logger.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) { p.logger = logger }
}

func newPool[T any](opts ...Option[T]) *Pool[T] {
	var zero T
	p := &Pool[T]{
		alloc:            alloc.Default(),
		elemSize:         unsafe.Sizeof(zero),
		mu:               &sync.Mutex{},
		bufferSizes:      swiss.NewMap[unsafe.Pointer, int](16),
		availableBuffers: make(map[int][]unsafe.Pointer),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	return p
}

type discardWriter struct{}

func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }

var registry sync.Map // map[reflect.Type]*poolEntry

type poolEntry struct {
	once sync.Once
	pool any
}

// For returns the process-singleton Pool for element type T, lazily
// constructing it on first use with the given options (options are
// only honored on the call that wins the race to construct the
// instance, matching the spec's Scott-Meyers-style Instance() contract
// of first-use initialization with no explicit teardown).
//
// Pointer element types are routed to a single shared pointer-width
// pool, matching the spec's design note that Pool<T*> aliases Pool<T>
// by convention: an object-reuse cache keyed purely by count is
// independent of the pointed-to payload type, so every pointer type
// can share one underlying cache of unsafe.Pointer-sized slots.
func For[T any](opts ...Option[T]) *Pool[T] {
	var zero T
	t := reflect.TypeOf(&zero).Elem()

	if t.Kind() == reflect.Ptr {
		return pointerPoolView[T](opts...)
	}

	entryAny, _ := registry.LoadOrStore(t, &poolEntry{})
	entry := entryAny.(*poolEntry)
	entry.once.Do(func() {
		entry.pool = newPool[T](opts...)
	})
	return entry.pool.(*Pool[T])
}
