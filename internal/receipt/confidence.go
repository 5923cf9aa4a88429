package receipt

import "fmt"

// DefaultReviewThreshold is the recognition confidence below which fields are flagged
const DefaultReviewThreshold = 70.0

// ConfidenceThreshold decides when extracted fields need manual verification.
// Confidence is on the recognition engine's 0..100 scale.
type ConfidenceThreshold struct {
	ReviewBelow float64
}

// DefaultConfidenceThreshold returns the default threshold configuration
func DefaultConfidenceThreshold() ConfidenceThreshold {
	return ConfidenceThreshold{ReviewBelow: DefaultReviewThreshold}
}

// Validate ensures the threshold lies on the confidence scale
func (ct ConfidenceThreshold) Validate() error {
	if ct.ReviewBelow < 0 || ct.ReviewBelow > 100 {
		return fmt.Errorf("%w: must be between 0 and 100, got %.2f", ErrInvalidThreshold, ct.ReviewBelow)
	}
	return nil
}

// IsLow reports whether confidence falls below the threshold
func (ct ConfidenceThreshold) IsLow(confidence float64) bool {
	return confidence < ct.ReviewBelow
}
