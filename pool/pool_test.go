package pool_test

import (
	"testing"
	"unsafe"

	"github.com/lancelotpi/smallalloc/pool"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
)

type widget struct {
	x int
}

// S6: LIFO reuse. Returning p then q and asking for the same count
// again hands back q first.
func TestGetBufferLIFOReuse(t *testing.T) {
	p := pool.For[widget]()

	a := p.GetBuffer(4)
	b := p.GetBuffer(4)
	require.NotEqual(t, &a[0], &b[0])

	p.ReturnBuffer(a)
	p.ReturnBuffer(b)

	c := p.GetBuffer(4)
	require.Equal(t, &b[0], &c[0])

	p.ReleaseBuffer(c)
	p.ReleaseBuffer(a)
}

// Invariant 7: a get/return round trip at a fixed count hands the same
// buffer back on the next get of that count.
func TestGetReturnGetRoundTrip(t *testing.T) {
	p := pool.For[widget]()

	a := p.GetBuffer(6)
	p.ReturnBuffer(a)
	b := p.GetBuffer(6)
	require.Equal(t, &a[0], &b[0])

	p.ReleaseBuffer(b)
}

// Invariant 8: caches for different counts are isolated - returning a
// buffer at one count never satisfies a request at another.
func TestPoolIsolatedByCount(t *testing.T) {
	p := pool.For[widget]()

	a := p.GetBuffer(3)
	p.ReturnBuffer(a)

	b := p.GetBuffer(5)
	require.NotEqual(t, &a[0], &b[0])

	p.ReleaseBuffer(a)
	p.ReleaseBuffer(b)
}

// Invariant 9: ReleaseBuffers drains every cached count, leaving both
// Stats()'s cached-block count and any further reuse unaffected by
// buffers that existed before the drain. The drained memory goes back
// to the allocator, whose free-list may hand the same address out
// again, so the next GetBuffer is checked for being a fresh allocation
// (tracked in bufferSizes) rather than for having a different address.
func TestReleaseBuffersDrainsCache(t *testing.T) {
	p := pool.For[int]()

	a := p.GetBuffer(2)
	b := p.GetBuffer(9)
	p.ReturnBuffer(a)
	p.ReturnBuffer(b)

	require.Greater(t, p.Stats().BlockCount, 0)

	p.ReleaseBuffers()

	require.Equal(t, 0, p.Stats().BlockCount)
	require.Equal(t, 0, p.Stats().AllocationCount)

	c := p.GetBuffer(2)
	require.Equal(t, 1, p.Stats().AllocationCount)
	p.ReleaseBuffer(c)
}

// Returning a buffer the pool never issued (or already released) is
// rejected: it is not added to the cache.
func TestReturnUntrackedBufferIsNoop(t *testing.T) {
	p := pool.For[widget]()

	foreign := make([]widget, 4)
	p.ReturnBuffer(foreign)

	got := p.GetBuffer(4)
	require.NotEqual(t, &foreign[0], &got[0])
	p.ReleaseBuffer(got)
}

// A nil buffer is a no-op for every mutating operation.
func TestNilBufferIsNoop(t *testing.T) {
	p := pool.For[widget]()
	p.ReturnBuffer(nil)
	p.ReleaseBuffer(nil)
}

// Pointer element types alias a single shared pool regardless of what
// they point to: returning a *int buffer and asking for a *string
// buffer of the same count reuses the same underlying slots.
func TestPointerPoolsShareUnderlyingCache(t *testing.T) {
	ints := pool.For[*int]()
	strs := pool.For[*string]()

	a := ints.GetBuffer(5)
	ints.ReturnBuffer(a)

	b := strs.GetBuffer(5)
	require.Equal(t, unsafe.Pointer(&a[0]), unsafe.Pointer(&b[0]))

	strs.ReleaseBuffer(b)
}

// ReleaseBuffers on a pointer-typed pool must drain the cache that
// every other pointer-typed pool shares with it, not just its own
// throwaway wrapper - otherwise a later GetBuffer on a different
// pointer type could reissue memory this call already released.
func TestPointerPoolsShareReleaseBuffers(t *testing.T) {
	ints := pool.For[*int]()
	floats := pool.For[*float64]()

	a := ints.GetBuffer(7)
	ints.ReturnBuffer(a)

	ints.ReleaseBuffers()

	require.Equal(t, 0, floats.Stats().BlockCount)

	b := floats.GetBuffer(7)
	require.Equal(t, 1, floats.Stats().AllocationCount)
	floats.ReleaseBuffer(b)
}

// Stats is built from Clear/AddStatistics rather than ad hoc field
// writes, and WriteStatsJSON renders the same snapshot as JSON.
func TestStatsJSONReflectsOutstandingAndCached(t *testing.T) {
	p := pool.For[widget]()

	a := p.GetBuffer(11)
	stats := p.Stats()
	require.Equal(t, 1, stats.AllocationCount)

	writer := jwriter.NewWriter()
	p.WriteStatsJSON(&writer)
	require.NoError(t, writer.Error())
	out := writer.Bytes()
	require.Contains(t, string(out), `"AllocationCount":1`)

	p.ReleaseBuffer(a)
}
