package lua

import "errors"

// Runtime errors.
var (
	// ErrStateClosed is returned when using a closed Lua state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrUnknownConfigType is returned for activation configs the
	// runtime does not understand.
	ErrUnknownConfigType = errors.New("unknown activation config type")
)
