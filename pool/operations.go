package pool

import (
	"unsafe"

	"github.com/lancelotpi/smallalloc"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// GetBuffer acquires an array of num elements. A buffer previously
// returned via ReturnBuffer for the same count is reissued LIFO,
// without re-initialization - callers may observe stale payload from
// the previous tenant. Otherwise a fresh buffer is allocated through
// the Small Object Allocator and, if a Constructor was configured,
// each of the num elements is default-constructed.
//
// Under the debug_smallalloc build tag, a freshly allocated buffer is
// bracketed by smallalloc.DebugMargin bytes of corruption-detection
// margin on either side of its payload; those margins are checked by
// Validate whenever a tracked buffer is touched. Outside that build
// tag DebugMargin is 0 and this costs nothing extra.
func (p *Pool[T]) GetBuffer(num int) []T {
	if num <= 0 {
		return nil
	}
	smallalloc.DebugValidate(p)

	p.mu.Lock()
	queue := p.availableBuffers[num]
	if len(queue) > 0 {
		buf := queue[len(queue)-1]
		p.availableBuffers[num] = queue[:len(queue)-1]
		p.mu.Unlock()
		return unsafe.Slice((*T)(buf), num)
	}
	p.mu.Unlock()

	payload := num * int(p.elemSize)
	raw := p.alloc.Allocate(payload + 2*smallalloc.DebugMargin)
	dataPtr := unsafe.Add(raw, smallalloc.DebugMargin)
	smallalloc.WriteMagicValue(raw, 0)
	smallalloc.WriteMagicValue(raw, smallalloc.DebugMargin+payload)

	slice := unsafe.Slice((*T)(dataPtr), num)

	if p.constructor != nil {
		ctor := p.constructor
		for i := range slice {
			slice[i] = ctor()
		}
	} else {
		var zero T
		for i := range slice {
			slice[i] = zero
		}
	}

	p.mu.Lock()
	p.bufferSizes.Put(dataPtr, num)
	p.mu.Unlock()

	return slice
}

// ReturnBuffer places buf back into the pool's cache for future
// GetBuffer calls requesting the same element count. It performs no
// destruction. A nil buf is a no-op. If buf was not obtained from
// GetBuffer on this pool (and is still outstanding - i.e. has not
// already been released), the call is rejected: it is logged and
// otherwise ignored, and the allocator still considers the memory
// owned by the caller.
func (p *Pool[T]) ReturnBuffer(buf []T) {
	if buf == nil {
		return
	}
	smallalloc.DebugValidate(p)
	ptr := unsafe.Pointer(&buf[0])

	p.mu.Lock()
	defer p.mu.Unlock()

	num, ok := p.bufferSizes.Get(ptr)
	if !ok {
		p.logger.Warn("returned buffer is not tracked by this pool", "ptr", ptr)
		return
	}

	p.availableBuffers[num] = append(p.availableBuffers[num], ptr)
}

// ReleaseBuffer resets every element at buf to T's zero value (whether
// or not a Constructor is configured) and returns the underlying memory
// to the Small Object Allocator. Any bufferSizes entry for buf is
// removed. A nil buf is a no-op.
func (p *Pool[T]) ReleaseBuffer(buf []T) {
	if buf == nil {
		return
	}
	smallalloc.DebugValidate(p)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked(buf)
}

// releaseLocked performs the mutating work of ReleaseBuffer assuming
// the caller already holds p.mu. Factored out so ReleaseBuffers can
// call it directly instead of re-entering the public, locking
// ReleaseBuffer while the pool lock is already held - the spec's
// Design Notes flag the source's try-lock/fallback dance here as an
// artifact of not having refactored this way.
func (p *Pool[T]) releaseLocked(buf []T) {
	ptr := unsafe.Pointer(&buf[0])
	num := len(buf)

	var zero T
	for i := range buf {
		buf[i] = zero
	}

	p.bufferSizes.Delete(ptr)
	raw := unsafe.Add(ptr, -smallalloc.DebugMargin)
	p.alloc.Deallocate(raw, num*int(p.elemSize)+2*smallalloc.DebugMargin)
}

// ReleaseBuffers drains the entire cache: every queued buffer across
// every element count is released back to the Small Object Allocator,
// and availableBuffers is cleared. The map itself is emptied in place
// rather than replaced, so the drain is visible through every Pool[T]
// wrapper sharing this map (see pointer.go) rather than just the
// receiver's own reference to it.
func (p *Pool[T]) ReleaseBuffers() {
	smallalloc.DebugValidate(p)
	p.mu.Lock()
	defer p.mu.Unlock()

	for num, queue := range p.availableBuffers {
		for _, ptr := range queue {
			p.releaseLocked(unsafe.Slice((*T)(ptr), num))
		}
	}
	for num := range p.availableBuffers {
		delete(p.availableBuffers, num)
	}
}

// Stats returns a snapshot of pool-wide statistics: the number of
// buffers currently outstanding (issued but not yet released) and the
// number currently cached in availableBuffers, in bytes and counts.
// Pure observability; never consulted by GetBuffer/ReturnBuffer.
func (p *Pool[T]) Stats() smallalloc.Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stats smallalloc.Statistics
	stats.Clear()

	var outstanding smallalloc.Statistics
	outstanding.AllocationCount = p.bufferSizes.Count()
	p.bufferSizes.Iter(func(_ unsafe.Pointer, num int) (stop bool) {
		outstanding.AllocationBytes += num * int(p.elemSize)
		return false
	})
	stats.AddStatistics(&outstanding)

	var cached smallalloc.Statistics
	for num, queue := range p.availableBuffers {
		cached.BlockCount += len(queue)
		cached.BlockBytes += len(queue) * num * int(p.elemSize)
	}
	stats.AddStatistics(&cached)

	return stats
}

// WriteStatsJSON writes a snapshot of Stats as a JSON object onto
// writer, in the same streaming-writer style the teacher's block list
// reports its own statistics in.
func (p *Pool[T]) WriteStatsJSON(writer *jwriter.Writer) {
	stats := p.Stats()
	obj := writer.Object()
	stats.WriteJSON(obj)
	obj.End()
}
