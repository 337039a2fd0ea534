package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Session lifecycle
	ErrSessionNotFound = errors.New("session not found or no dataset loaded")

	// Upload-time errors, recoverable by re-upload
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDataset      = errors.New("dataset has no rows or columns")

	// Dispatcher errors - no mutation occurred
	ErrInvalidOperation  = errors.New("unknown method or method not applicable to column type")
	ErrInvalidParameters = errors.New("invalid operation parameters")

	// History errors - recoverable no-ops
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	// Metadata errors
	ErrInvalidType    = errors.New("invalid column type")
	ErrColumnNotFound = errors.New("column not found")

	// Invariant violation - indicates a transform broke its contract.
	// The only propagation-worthy condition in the core.
	ErrRowCountMismatch = errors.New("row count mismatch across columns")
)

// Error constructors with context
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
}

func NewInvalidOperationError(operation, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidOperation, operation, reason)
}

func NewInvalidParametersError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, reason)
}

func NewInvalidTypeError(column, value string) error {
	return fmt.Errorf("%w: %q for column %s", ErrInvalidType, value, column)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrColumnNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrInvalidParameters) ||
		errors.Is(err, ErrInvalidType)
}

func IsHistoryEmptyError(err error) bool {
	return errors.Is(err, ErrNothingToUndo) || errors.Is(err, ErrNothingToRedo)
}
