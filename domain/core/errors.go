package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Load-time errors
	ErrEmptyInput      = errors.New("input table has no data rows")
	ErrMissingColumn   = errors.New("required column missing")
	ErrTypeMismatch    = errors.New("column has values of the wrong type")
	ErrRaggedRow       = errors.New("row has cells past the last header")
	ErrOutOfDomain     = errors.New("value outside expected domain")
	ErrDuplicateID     = fmt.Errorf("%w: duplicate customer id", ErrOutOfDomain)
	ErrMissingValue    = fmt.Errorf("%w: blank value in non-nullable column", ErrOutOfDomain)
	ErrUnknownCategory = fmt.Errorf("%w: unknown category value", ErrOutOfDomain)

	// Scoring errors
	ErrMissingSignal  = errors.New("required risk signal missing")
	ErrErrorBudget    = errors.New("scoring error rate exceeds configured maximum")
	ErrInvalidScale   = errors.New("invalid threshold scale")
	ErrInvalidWeights = errors.New("invalid risk weights")
)

// NewValidationError mirrors the style used for configuration checks
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}
