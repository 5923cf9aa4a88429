package duplicate

import "errors"

// ErrInvalidTolerance is returned for a non-positive amount tolerance
var ErrInvalidTolerance = errors.New("amount tolerance must be positive")
