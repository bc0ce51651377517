package smallalloc

// Validatable is implemented by any component that can run an internal
// consistency check. DebugValidate uses it to turn those checks into
// panics under the debug_smallalloc build tag, and to no-op otherwise.
type Validatable interface {
	Validate() error
}
