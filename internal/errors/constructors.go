package errors

// Config errors

func ConfigNotFound(path string) *DocError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *DocError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Filter errors

// UnmatchedParenthesis reports a marker call whose argument list never closes.
// cause is normally the codefilter sentinel so callers can match it with errors.Is.
func UnmatchedParenthesis(marker, snippet string, cause error) *DocError {
	return Wrap(cause, CategoryFilter, SeverityFatal, "unmatched parenthesis in "+marker+" call").
		WithContext("marker", marker).
		WithContext("snippet", snippet)
}

func UnknownFilter(language, name string) *DocError {
	return New(CategoryConfig, SeverityFatal, "unknown code filter").
		WithContext("language", language).
		WithContext("filter", name)
}

func HighlightFailed(language string, cause error) *DocError {
	return Wrap(cause, CategoryHighlight, SeverityFatal, "syntax highlighting failed").
		WithContext("language", language)
}

// Build errors

func RenderFailed(page string, cause error) *DocError {
	return Wrap(cause, CategoryRender, SeverityFatal, "page rendering failed").
		WithContext("page", page)
}

func FileSystemError(operation string, cause error) *DocError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

func IndexError(operation string, cause error) *DocError {
	return Wrap(cause, CategoryIndex, SeverityError, "search index operation failed").
		WithContext("operation", operation)
}

func InternalError(message string, cause error) *DocError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
