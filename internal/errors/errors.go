package errors

import (
	"fmt"

	"goclean/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeEmptyDataset      = "EMPTY_DATASET"
	CodeInvalidOperation  = "INVALID_OPERATION"
	CodeInvalidParameters = "INVALID_PARAMETERS"
	CodeNothingToUndo     = "NOTHING_TO_UNDO"
	CodeNothingToRedo     = "NOTHING_TO_REDO"
	CodeInvalidType       = "INVALID_TYPE"
	CodeNotFound          = "NOT_FOUND"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Common error constructors. The Code carries the classification; the HTTP
// edge maps codes to statuses, so a constructor only sets a Cause when a
// domain sentinel must stay reachable through errors.Is.

func ConfigInvalid(message string) *AppError {
	return &AppError{Code: CodeConfigInvalid, Message: message}
}

func UnsupportedFormat(ext string) *AppError {
	return &AppError{
		Code:    CodeUnsupportedFormat,
		Message: fmt.Sprintf("unsupported file format %q, expected .csv or .xlsx", ext),
		Cause:   core.ErrUnsupportedFormat,
	}
}

// FileProcessing marks a supported file that could not be parsed.
func FileProcessing(kind string, cause error) *AppError {
	return &AppError{
		Code:    CodeUnsupportedFormat,
		Message: fmt.Sprintf("failed to parse %s file", kind),
		Cause:   cause,
	}
}

func InvalidParameters(message string) *AppError {
	return &AppError{Code: CodeInvalidParameters, Message: message}
}
