package allocation

import "errors"

var (
	// ErrUnknownMethod is returned for an allocation method the engine does not implement
	ErrUnknownMethod = errors.New("unknown allocation method")

	// ErrUnknownTarget is returned when an edit names a target that is not in the set
	ErrUnknownTarget = errors.New("target not in allocation set")
)
