// Package shim wraps the platform's raw allocator (an mmap-backed
// anonymous region on unix, a heap-backed fallback elsewhere) with an
// installable out-of-memory handler chain, mirroring the System Shim /
// AllocPrime layer of the allocator this package's sibling packages are
// built on.
package shim

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"log/slog"

	"github.com/lancelotpi/smallalloc"
	"github.com/pkg/errors"
)

// OSAllocator is the raw, unconditionally-failing-on-exhaustion
// allocator that the OOM handler chain sits in front of. Production
// code uses the platform backend (see backend_unix.go /
// backend_generic.go); tests substitute a fake or go.uber.org/mock
// implementation to drive the handler chain deterministically.
type OSAllocator interface {
	RawAllocate(n int) (unsafe.Pointer, error)
	RawReallocate(p unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error)
	RawDeallocate(p unsafe.Pointer, n int) error
}

// Handler is invoked by the OOM fallback loop in the hope that it will
// free memory elsewhere, or otherwise raise the process's ability to
// satisfy the retried request. It takes no arguments and returns
// nothing, matching the C `void(*)()` signature this chain is modeled
// on.
type Handler func()

// Shim is a System Shim instance: a raw OS allocator plus an
// installable OOM handler chain. The zero value is not usable; use New.
type Shim struct {
	raw    OSAllocator
	logger *slog.Logger

	handler      atomic.Pointer[Handler]
	handlerWrite atomic.Bool // spin-yield flag serializing handler installs
}

// New constructs a Shim over the given raw allocator. If logger is nil,
// a discard logger is used.
func New(raw OSAllocator, logger *slog.Logger) *Shim {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	return &Shim{raw: raw, logger: logger}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetOOMHandler atomically installs handler as the new OOM handler,
// returning whichever handler was previously installed (nil if none).
// Installation is serialized against concurrent installs and against
// reads performed by the fallback loop, per the spin-yield discipline
// used throughout this module.
func (s *Shim) SetOOMHandler(handler Handler) (old Handler) {
	for !s.handlerWrite.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
	defer s.handlerWrite.Store(false)

	var oldPtr *Handler
	if handler == nil {
		oldPtr = s.handler.Swap(nil)
	} else {
		h := handler
		oldPtr = s.handler.Swap(&h)
	}
	if oldPtr == nil {
		return nil
	}
	return *oldPtr
}

func (s *Shim) currentHandler() Handler {
	ptr := s.handler.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// Allocate requests n bytes from the raw allocator. On failure it
// invokes the OOM fallback loop: read the installed handler, panic with
// ErrOutOfMemory if none is installed, otherwise call it and retry,
// repeating until success or until the handler is cleared.
func (s *Shim) Allocate(n int) unsafe.Pointer {
	p, err := s.raw.RawAllocate(n)
	if err == nil {
		return p
	}
	return s.oomRetryAllocate(n, err)
}

func (s *Shim) oomRetryAllocate(n int, firstErr error) unsafe.Pointer {
	lastErr := firstErr
	for {
		handler := s.currentHandler()
		if handler == nil {
			s.logger.Error("out of memory, no handler installed", "bytes", n, "cause", lastErr)
			panic(errors.Wrap(smallalloc.ErrOutOfMemory, "shim: raw allocate failed and no OOM handler installed"))
		}

		s.logger.Warn("raw allocate failed, invoking OOM handler", "bytes", n, "cause", lastErr)
		handler()

		p, err := s.raw.RawAllocate(n)
		if err == nil {
			return p
		}
		lastErr = err
	}
}

// Reallocate resizes p (previously obtained via Allocate with a region
// of oldSize bytes) to newSize bytes, running the same OOM fallback loop
// as Allocate on failure.
func (s *Shim) Reallocate(p unsafe.Pointer, oldSize, newSize int) unsafe.Pointer {
	np, err := s.raw.RawReallocate(p, oldSize, newSize)
	if err == nil {
		return np
	}

	lastErr := err
	for {
		handler := s.currentHandler()
		if handler == nil {
			s.logger.Error("out of memory, no handler installed", "bytes", newSize, "cause", lastErr)
			panic(errors.Wrap(smallalloc.ErrOutOfMemory, "shim: raw reallocate failed and no OOM handler installed"))
		}

		s.logger.Warn("raw reallocate failed, invoking OOM handler", "bytes", newSize, "cause", lastErr)
		handler()

		np, err = s.raw.RawReallocate(p, oldSize, newSize)
		if err == nil {
			return np
		}
		lastErr = err
	}
}

// Deallocate releases p, which must have been obtained from Allocate or
// Reallocate with the given size. Deallocate never fails from the
// caller's perspective; an error from the raw allocator is logged and
// swallowed, matching the spec's "never fails" contract for this
// operation.
func (s *Shim) Deallocate(p unsafe.Pointer, n int) {
	if err := s.raw.RawDeallocate(p, n); err != nil {
		s.logger.Error("raw deallocate failed", "bytes", n, "cause", err)
	}
}
