package shim

import (
	"unsafe"

	"github.com/pkg/errors"
)

// HeapAllocator is the OSAllocator backend used on non-unix platforms,
// where an anonymous-mmap syscall isn't available through
// golang.org/x/sys/unix. It requests memory from the Go runtime's
// managed heap directly; because the runtime heap cannot report
// "ENOMEM" the way a raw OS allocator would, this backend treats a
// request above MaxRequestBytes as exhaustion, giving the OOM handler
// chain a real (if synthetic) failure mode to react to.
type HeapAllocator struct {
	// MaxRequestBytes caps the size of any single RawAllocate call. Zero
	// means unlimited.
	MaxRequestBytes int
}

// NewHeapAllocator constructs the heap-backed OSAllocator fallback.
func NewHeapAllocator() *HeapAllocator { return &HeapAllocator{} }

func (h *HeapAllocator) RawAllocate(n int) (unsafe.Pointer, error) {
	if n <= 0 {
		return nil, errors.New("shim: allocate requires a positive size")
	}
	if h.MaxRequestBytes > 0 && n > h.MaxRequestBytes {
		return nil, errors.Errorf("shim: simulated exhaustion, %d exceeds cap %d", n, h.MaxRequestBytes)
	}
	b := make([]byte, n)
	return unsafe.Pointer(&b[0]), nil
}

func (h *HeapAllocator) RawReallocate(p unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error) {
	np, err := h.RawAllocate(newSize)
	if err != nil {
		return nil, err
	}
	copyLen := oldSize
	if newSize < copyLen {
		copyLen = newSize
	}
	if copyLen > 0 && p != nil {
		src := unsafe.Slice((*byte)(p), copyLen)
		dst := unsafe.Slice((*byte)(np), copyLen)
		copy(dst, src)
	}
	return np, nil
}

func (h *HeapAllocator) RawDeallocate(p unsafe.Pointer, n int) error {
	// The Go GC reclaims heap-backed regions once unreferenced; there is
	// no explicit free. Nothing to do.
	return nil
}
