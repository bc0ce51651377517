//go:build !unix

package alloc

import (
	"github.com/lancelotpi/smallalloc/shim"
)

func defaultOSAllocator() shim.OSAllocator {
	return shim.NewHeapAllocator()
}
