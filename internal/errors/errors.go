// Package errors provides the structured error type (DocError) used to classify
// configuration, filter and build failures for logging and CLI exit codes.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory classifies a DocError.
type ErrorCategory string

const (
	// Configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Snippet processing errors
	CategoryFilter    ErrorCategory = "filter"
	CategoryHighlight ErrorCategory = "highlight"

	// Site build errors
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryIndex      ErrorCategory = "index"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
)

// ContextFields carries structured context for DocError
type ContextFields map[string]any

// DocError is a structured error with category, severity and context.
type DocError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

func (e *DocError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

func (e *DocError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocError) WithContext(key string, value any) *DocError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DocError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocError {
	return &DocError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DocError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocError {
	return &DocError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the outermost DocError in err's chain.
func As(err error) (*DocError, bool) {
	var de *DocError
	if stdErrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsCategory checks if an error chain carries a DocError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	if de, ok := As(err); ok {
		return de.Category == category
	}
	return false
}

// IsFatal reports whether err carries a fatal DocError.
func IsFatal(err error) bool {
	if de, ok := As(err); ok {
		return de.Severity == SeverityFatal
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DocError
func GetCategory(err error) ErrorCategory {
	if de, ok := As(err); ok {
		return de.Category
	}
	return CategoryInternal
}
