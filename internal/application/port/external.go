package port

import (
	"context"
	"errors"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// ErrUnsupportedMedia is returned by a Recognizer for files it cannot read
var ErrUnsupportedMedia = errors.New("unsupported receipt media type")

// RecognitionResult is what the recognition engine returns for one receipt
type RecognitionResult struct {
	RawText    string
	Confidence float64 // 0..100
}

// Recognizer turns a receipt image or PDF into raw text. It may be slow or fail;
// callers discard stale results themselves.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (*RecognitionResult, error)
}

// AllocationSheet is everything written to an allocation export
type AllocationSheet struct {
	Draft  entity.DraftExpense
	Report *entity.ValidationReport
}

// AllocationExporter renders an allocation into a downloadable document
type AllocationExporter interface {
	Export(ctx context.Context, sheet AllocationSheet) ([]byte, error)
}
