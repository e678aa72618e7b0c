package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Shape and alignment errors - always fatal
	ErrShapeMismatch    = errors.New("shape mismatch between features and labels")
	ErrRunMismatch      = errors.New("run vector length disagrees with sample count")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Configuration errors
	ErrLagTooLarge    = errors.New("hemodynamic lag exceeds sequence length")
	ErrNegativeShift  = errors.New("shift count must be non-negative")
	ErrInvalidGrid    = errors.New("invalid acquisition grid")
	ErrOnsetOutOfRun  = errors.New("onset time falls outside its run")
	ErrOnsetNotSorted = errors.New("onset times must strictly increase within a run")

	// Protocol errors
	ErrLeakage = errors.New("data leakage detected")

	// Diagnostic conditions surfaced as warnings, kept as errors for errors.Is checks
	ErrEmptyRun = errors.New("run contains no labeled acquisitions")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewShapeError(rows, labels int) error {
	return fmt.Errorf("%w: %d feature rows vs %d labels", ErrShapeMismatch, rows, labels)
}

func NewLagError(shift, length int) error {
	return fmt.Errorf("%w: shift %d over %d acquisitions", ErrLagTooLarge, shift, length)
}

func NewEmptyRunWarning(run int) error {
	return fmt.Errorf("%w: run %d", ErrEmptyRun, run)
}

// Error checking helpers
func IsShapeError(err error) bool {
	return errors.Is(err, ErrShapeMismatch) || errors.Is(err, ErrRunMismatch)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrLagTooLarge) ||
		errors.Is(err, ErrNegativeShift) ||
		errors.Is(err, ErrInvalidGrid)
}

func IsEmptyRunWarning(err error) bool {
	return errors.Is(err, ErrEmptyRun)
}
