package shim_test

import (
	"testing"
	"unsafe"

	"github.com/lancelotpi/smallalloc/shim"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAllocateSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	raw := shim.NewMockOSAllocator(ctrl)
	buf := make([]byte, 8)
	want := unsafe.Pointer(&buf[0])
	raw.EXPECT().RawAllocate(8).Return(want, nil)

	s := shim.New(raw, nil)
	got := s.Allocate(8)
	require.Equal(t, want, got)
}

// TestOOMHandlerInvokedThenSucceeds drives scenario S5: the raw
// allocator fails once, the installed handler marks that it ran, and
// the retried allocation succeeds.
func TestOOMHandlerInvokedThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	raw := shim.NewMockOSAllocator(ctrl)
	buf := make([]byte, 16)
	want := unsafe.Pointer(&buf[0])

	gomock.InOrder(
		raw.EXPECT().RawAllocate(16).Return(nil, assertErr),
		raw.EXPECT().RawAllocate(16).Return(want, nil),
	)

	s := shim.New(raw, nil)

	var handlerCalls int
	old := s.SetOOMHandler(func() { handlerCalls++ })
	require.Nil(t, old)

	got := s.Allocate(16)
	require.Equal(t, want, got)
	require.Equal(t, 1, handlerCalls)
}

// TestOOMHandlerClearedPanics drives the remainder of S5: once the
// handler is cleared and the raw allocator is still failing, Allocate
// panics rather than looping forever.
func TestOOMHandlerClearedPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	raw := shim.NewMockOSAllocator(ctrl)
	raw.EXPECT().RawAllocate(4).Return(nil, assertErr).AnyTimes()

	s := shim.New(raw, nil)

	var handlerCalls int
	s.SetOOMHandler(func() {
		handlerCalls++
		s.SetOOMHandler(nil)
	})

	require.Panics(t, func() {
		s.Allocate(4)
	})
	require.Equal(t, 1, handlerCalls)
}

func TestSetOOMHandlerReturnsPrevious(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	raw := shim.NewMockOSAllocator(ctrl)
	s := shim.New(raw, nil)

	first := func() {}
	old := s.SetOOMHandler(first)
	require.Nil(t, old)

	second := func() {}
	old = s.SetOOMHandler(second)
	require.NotNil(t, old)
}

func TestDeallocateNeverFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	raw := shim.NewMockOSAllocator(ctrl)
	buf := make([]byte, 8)
	p := unsafe.Pointer(&buf[0])
	raw.EXPECT().RawDeallocate(p, 8).Return(assertErr)

	s := shim.New(raw, nil)
	require.NotPanics(t, func() {
		s.Deallocate(p, 8)
	})
}

var assertErr = errSentinel{}

type errSentinel struct{}

func (errSentinel) Error() string { return "raw allocator exhausted" }
