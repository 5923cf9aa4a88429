package receipt

import "errors"

// ErrInvalidThreshold is returned for a review threshold outside 0..100
var ErrInvalidThreshold = errors.New("invalid confidence threshold")
