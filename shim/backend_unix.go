//go:build unix

package shim

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MmapAllocator is the production OSAllocator backend on unix
// platforms: it issues real anonymous-mmap regions rather than
// delegating to the Go runtime's managed heap, so arena growth and OOM
// are genuine OS-level events.
type MmapAllocator struct{}

// NewMmapAllocator constructs the mmap-backed OSAllocator.
func NewMmapAllocator() *MmapAllocator { return &MmapAllocator{} }

func (MmapAllocator) RawAllocate(n int) (unsafe.Pointer, error) {
	if n <= 0 {
		return nil, errors.New("shim: allocate requires a positive size")
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrap(err, "shim: mmap failed")
	}
	return unsafe.Pointer(&b[0]), nil
}

func (m MmapAllocator) RawReallocate(p unsafe.Pointer, oldSize, newSize int) (unsafe.Pointer, error) {
	np, err := m.RawAllocate(newSize)
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
	if err := m.RawDeallocate(p, oldSize); err != nil {
		return nil, err
	}
	return np, nil
}

func (MmapAllocator) RawDeallocate(p unsafe.Pointer, n int) error {
	if p == nil || n <= 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(p), n)
	return errors.Wrap(unix.Munmap(b), "shim: munmap failed")
}
