package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrAmountNotPositive is returned for a zero or negative expense amount
	ErrAmountNotPositive = errors.New("amount must be positive")

	// ErrAmountTooLarge is returned for an amount above the configured limit
	ErrAmountTooLarge = errors.New("amount exceeds maximum limit")

	// ErrInvalidTargetID is returned for an asset id that is empty or has unexpected characters
	ErrInvalidTargetID = errors.New("invalid target id")
)

var (
	controlChars  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	targetIDShape = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:\-]{0,63}$`)
)

// ValidateAmount validates an expense amount given in minor units.
// A maxMinor of zero disables the upper bound.
func ValidateAmount(minor, maxMinor int64) error {
	if minor <= 0 {
		return ErrAmountNotPositive
	}
	if maxMinor > 0 && minor > maxMinor {
		return fmt.Errorf("%w: %d > %d", ErrAmountTooLarge, minor, maxMinor)
	}
	return nil
}

// ValidateTargetID validates an asset or vehicle id
func ValidateTargetID(id string) error {
	if !targetIDShape.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidTargetID, id)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace from form input
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
