package alloc

import (
	"unsafe"

	"github.com/lancelotpi/smallalloc"
)

// chunkAlloc serves a request for up to *nobjs blocks of size bytes
// from the arena, reducing *nobjs on the way out if the arena can't
// satisfy the full batch. It implements the three-case arena-carving
// protocol: serve the full batch, serve a partial batch, or grow the
// arena and retry.
func (a *Allocator) chunkAlloc(size int, nobjs *int) unsafe.Pointer {
	a.arenaLock.Acquire()

	totalBytes := size * *nobjs
	bytesLeft := int(uintptr(a.endFree) - uintptr(a.startFree))

	if bytesLeft >= totalBytes {
		result := a.startFree
		a.startFree = unsafe.Add(a.startFree, totalBytes)
		a.arenaLock.Release()
		return result
	}

	if bytesLeft >= size {
		*nobjs = bytesLeft / size
		totalBytes = size * *nobjs
		result := a.startFree
		a.startFree = unsafe.Add(a.startFree, totalBytes)
		a.arenaLock.Release()
		return result
	}

	// Case 3: not even one block available. Only one goroutine may grow
	// the arena at a time; a goroutine that finds growth already in
	// progress yields its attempt so the grower's work isn't wasted.
	if !a.growthLock.TryAcquire() {
		a.arenaLock.Release()
		return a.chunkAlloc(size, nobjs)
	}

	bytesToGet := 2*totalBytes + smallalloc.AlignUp(a.heapSize>>4, Align)

	if bytesLeft > 0 {
		if bytesLeft <= MaxBytes {
			idx := freeListIndex(bytesLeft)
			lock := &a.freeListLock[idx]
			lock.Acquire()
			(*freeNode)(a.startFree).next = a.freeList[idx]
			a.freeList[idx] = a.startFree
			lock.Release()
		} else {
			a.logger.Warn("discarding arena remnant larger than MaxBytes", "bytes", bytesLeft)
		}
	}

	// The arena is left empty-but-consistent before the shim call: if
	// the shim's OOM handler chain is exhausted and it panics, there is
	// no dangling start/end pair describing memory we no longer own.
	a.startFree = nil
	a.endFree = nil

	newRegion := a.shim.Allocate(bytesToGet)

	a.heapSize += bytesToGet
	a.startFree = newRegion
	a.endFree = unsafe.Add(newRegion, bytesToGet)
	a.blockCount.Add(1)
	a.blockBytes.Add(int64(bytesToGet))

	a.growthLock.Release()
	a.arenaLock.Release()

	a.logger.Info("arena grew", "bytes", bytesToGet, "heapSize", a.heapSize)

	return a.chunkAlloc(size, nobjs)
}
