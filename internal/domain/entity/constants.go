package entity

// ErrorCode classifies a field-scoped validation problem
type ErrorCode string

// Field error codes
const (
	CodeAllocationMismatch      ErrorCode = "ALLOCATION_MISMATCH"
	CodeNegativeAllocation      ErrorCode = "NEGATIVE_ALLOCATION"
	CodePercentageSum           ErrorCode = "PERCENTAGE_SUM"
	CodeDuplicateSuspected      ErrorCode = "DUPLICATE_SUSPECTED"
	CodeExtractionLowConfidence ErrorCode = "EXTRACTION_LOW_CONFIDENCE"
	CodeExtractionEmpty         ErrorCode = "EXTRACTION_EMPTY"
	CodeInvalidAmount           ErrorCode = "INVALID_AMOUNT"
	CodeRequired                ErrorCode = "REQUIRED"
	CodeDuplicateTarget         ErrorCode = "DUPLICATE_TARGET"
	CodeInvalidMethod           ErrorCode = "INVALID_METHOD"
)

// Field names used when attaching errors to form controls
const (
	FieldAmount           = "amount"
	FieldCategory         = "category"
	FieldDescription      = "description"
	FieldDate             = "date"
	FieldTargets          = "targets"
	FieldAllocationMethod = "allocation_method"
	FieldAllocations      = "allocations"
	FieldPercentage       = "percentage"
	FieldReceipt          = "receipt"
)

// Severity separates blocking errors from advisories
type Severity string

// Severities
const (
	SeverityError    Severity = "ERROR"
	SeverityAdvisory Severity = "ADVISORY"
)
