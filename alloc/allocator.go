// Package alloc implements the Small Object Allocator: requests at or
// below MaxBytes are served from one of NumFreeLists segregated
// free-lists indexed by rounded-up size; larger requests are delegated
// to the underlying system shim. Free-lists are fed by carving a
// geometrically growing arena.
package alloc

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/lancelotpi/smallalloc"
	"github.com/lancelotpi/smallalloc/internal/spin"
	"github.com/lancelotpi/smallalloc/shim"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
)

const (
	// Align is the minimum allocation granularity in bytes.
	Align uint = 8
	// NumFreeLists is the number of segregated free-list slots.
	NumFreeLists = 32
	// MaxBytes is the largest request size served from a free-list;
	// anything larger is delegated to the system shim.
	MaxBytes = NumFreeLists * int(Align)
)

// freeNode is the intrusive free-list link written into the first
// machine word of a free block. A block is, at any instant, either
// client-owned payload or a freeNode — never both.
type freeNode struct {
	next unsafe.Pointer
}

// Config carries the allocator's tunable parameters. New replaces a
// zero or negative DefaultNodeNum or InitPoolSize with the value from
// DefaultConfig.
type Config struct {
	// DefaultNodeNum is the batch size requested by refill.
	DefaultNodeNum int
	// InitPoolSize is the number of bytes requested from the system
	// shim to seed the arena on first use.
	InitPoolSize int
	// Logger receives allocator lifecycle diagnostics (arena growth,
	// etc). A nil Logger discards them.
	Logger *slog.Logger
	// OSAllocator is the raw allocator the system shim wraps. A nil
	// value selects the platform default (mmap on unix, heap-backed
	// elsewhere).
	OSAllocator shim.OSAllocator
}

// DefaultConfig returns the spec's default tunables: a batch size of
// 20 and an initial arena of 2048 bytes.
func DefaultConfig() Config {
	return Config{
		DefaultNodeNum: 20,
		InitPoolSize:   2048,
	}
}

// Allocator is the Small Object Allocator: segregated free-lists over a
// growable arena, falling back to the system shim for requests above
// MaxBytes. The zero Allocator is not valid; use New.
type Allocator struct {
	cfg    Config
	shim   *shim.Shim
	logger *slog.Logger

	freeList     [NumFreeLists]unsafe.Pointer
	freeListLock [NumFreeLists]spin.Flag

	arenaLock  spin.Flag
	growthLock spin.Flag

	startFree unsafe.Pointer
	endFree   unsafe.Pointer
	heapSize  int

	blockCount      atomic.Int64
	blockBytes      atomic.Int64
	allocationCount atomic.Int64

	once sync.Once
}

// New constructs an Allocator with the given configuration. The arena
// is not seeded until the first allocation.
func New(cfg Config) *Allocator {
	// freeListIndex's bit-free division and AlignUp's masking trick are
	// only correct when Align is a power of two; this is a compile-time
	// constant today, but debug builds still check it so a future change
	// to Align fails loudly instead of silently misrouting requests.
	smallalloc.DebugCheckPow2(int(Align), "Align")

	if cfg.DefaultNodeNum <= 0 {
		cfg.DefaultNodeNum = 20
	}
	if cfg.InitPoolSize <= 0 {
		cfg.InitPoolSize = 2048
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}

	raw := cfg.OSAllocator
	if raw == nil {
		raw = defaultOSAllocator()
	}

	a := &Allocator{
		cfg:    cfg,
		shim:   shim.New(raw, logger),
		logger: logger,
	}
	for i := range a.freeListLock {
		a.freeListLock[i] = spin.Flag{}
	}
	return a
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

var defaultAllocator = sync.OnceValue(func() *Allocator {
	return New(DefaultConfig())
})

// Default returns the process-singleton Allocator used when callers
// don't need a separate configuration. It is lazily initialized on
// first use and never torn down, matching the spec's singleton
// lifecycle contract.
func Default() *Allocator {
	return defaultAllocator()
}

func (a *Allocator) ensureSeeded() {
	a.once.Do(func() {
		a.startFree = a.shim.Allocate(a.cfg.InitPoolSize)
		a.heapSize = a.cfg.InitPoolSize
		a.endFree = unsafe.Add(a.startFree, a.cfg.InitPoolSize)
		a.blockCount.Add(1)
		a.blockBytes.Add(int64(a.cfg.InitPoolSize))
	})
}

// roundUp rounds n up to a multiple of Align.
func roundUp(n int) int {
	return smallalloc.AlignUp(n, Align)
}

// freeListIndex computes the segregated free-list slot for a request
// of n bytes, n in [1, MaxBytes].
func freeListIndex(n int) int {
	return (n+int(Align)-1)/int(Align) - 1
}

// Allocate returns a pointer to at least n usable, Align-aligned bytes.
// Requests above MaxBytes bypass the free-lists and go straight to the
// system shim.
func (a *Allocator) Allocate(n int) unsafe.Pointer {
	if n <= 0 {
		panic(errors.New("alloc: allocate requires a positive size"))
	}
	if n > MaxBytes {
		return a.shim.Allocate(n)
	}

	a.ensureSeeded()

	idx := freeListIndex(n)
	lock := &a.freeListLock[idx]

	for {
		lock.Acquire()
		head := a.freeList[idx]
		if head != nil {
			a.freeList[idx] = (*freeNode)(head).next
			lock.Release()
			a.allocationCount.Add(1)
			return head
		}
		lock.Release()

		p := a.refill(roundUp(n))
		if p != nil {
			a.allocationCount.Add(1)
			return p
		}
		// Another goroutine may have refilled concurrently; loop and
		// check the list again rather than growing the arena twice.
	}
}

// Deallocate returns a previously allocated block of n bytes. n must
// equal the size passed to the matching Allocate call; passing a
// different size is undefined behavior, as in the original C allocator
// this package is modeled on.
func (a *Allocator) Deallocate(p unsafe.Pointer, n int) {
	if p == nil {
		return
	}
	if n > MaxBytes {
		a.shim.Deallocate(p, n)
		return
	}

	idx := freeListIndex(n)
	lock := &a.freeListLock[idx]

	lock.Acquire()
	(*freeNode)(p).next = a.freeList[idx]
	a.freeList[idx] = p
	lock.Release()
	a.allocationCount.Add(-1)
}

// Reallocate is specified as Deallocate(p, oldSize) followed by
// Allocate(newSize): the returned pointer is unrelated to p and
// contents are not preserved. Callers that need preservation must copy
// explicitly before calling Reallocate.
func (a *Allocator) Reallocate(p unsafe.Pointer, oldSize, newSize int) unsafe.Pointer {
	a.Deallocate(p, oldSize)
	return a.Allocate(newSize)
}

// Stats returns a snapshot of allocator-wide statistics. Pure
// observability; never consulted by Allocate/Deallocate.
func (a *Allocator) Stats() smallalloc.Statistics {
	return smallalloc.Statistics{
		BlockCount:      int(a.blockCount.Load()),
		BlockBytes:      int(a.blockBytes.Load()),
		AllocationCount: int(a.allocationCount.Load()),
	}
}

// WriteStatsJSON writes a snapshot of Stats as a JSON object onto
// writer, in the same streaming-writer style the teacher's metadata
// package reports block/allocation statistics in.
func (a *Allocator) WriteStatsJSON(writer *jwriter.Writer) {
	stats := a.Stats()
	obj := writer.Object()
	stats.WriteJSON(obj)
	obj.End()
}
