//go:build debug_smallalloc

package smallalloc

import "unsafe"

const (
	// DebugMargin is the number of bytes of corruption-detection margin
	// written around buffer pool payloads when the debug_smallalloc
	// build tag is present.
	DebugMargin int = 16

	corruptionMagic uint32 = 0x7F84E666
)

// WriteMagicValue stamps an easy-to-identify marker across DebugMargin
// bytes at data+offset. No-ops unless debug_smallalloc is set.
func WriteMagicValue(data unsafe.Pointer, offset int) {
	dest := unsafe.Add(data, offset)
	words := DebugMargin / int(unsafe.Sizeof(uint32(0)))
	for i := 0; i < words; i++ {
		*(*uint32)(dest) = corruptionMagic
		dest = unsafe.Add(dest, unsafe.Sizeof(uint32(0)))
	}
}

// ValidateMagicValue reports whether the marker written by
// WriteMagicValue is still intact. Always true unless debug_smallalloc
// is set.
func ValidateMagicValue(data unsafe.Pointer, offset int) bool {
	src := unsafe.Add(data, offset)
	words := DebugMargin / int(unsafe.Sizeof(uint32(0)))
	for i := 0; i < words; i++ {
		if *(*uint32)(src) != corruptionMagic {
			return false
		}
		src = unsafe.Add(src, unsafe.Sizeof(uint32(0)))
	}
	return true
}

// DebugValidate calls v.Validate and panics on error. No-ops unless
// debug_smallalloc is set.
func DebugValidate(v Validatable) {
	if err := v.Validate(); err != nil {
		panic(err)
	}
}

// DebugCheckPow2 panics if value is not a power of two. No-ops unless
// debug_smallalloc is set.
func DebugCheckPow2(value int, name string) {
	if err := CheckPow2(value, name); err != nil {
		panic(err)
	}
}
