//go:build !debug_smallalloc

package smallalloc

import "unsafe"

// DebugMargin is 0 outside of debug_smallalloc builds: no corruption
// margin is written around buffer pool payloads.
const DebugMargin int = 0

// WriteMagicValue no-ops unless debug_smallalloc is set.
func WriteMagicValue(data unsafe.Pointer, offset int) {}

// ValidateMagicValue always reports true unless debug_smallalloc is set.
func ValidateMagicValue(data unsafe.Pointer, offset int) bool { return true }

// DebugValidate no-ops unless debug_smallalloc is set.
func DebugValidate(v Validatable) {}

// DebugCheckPow2 no-ops unless debug_smallalloc is set.
func DebugCheckPow2(value int, name string) {}
