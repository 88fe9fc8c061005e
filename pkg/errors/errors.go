// Package errors classifies back-office failures so the CLI can pick an exit
// code and the API a status, and so staff get a hint on how to fix them.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by the exit code they map to
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStorage       ErrorCategory = "storage"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode identifies a failure within its category
type ErrorCode string

const (
	// File errors
	CodeFileNotFound    ErrorCode = "file_not_found"
	CodeFilePermission  ErrorCode = "file_permission"
	CodeUnsupportedFile ErrorCode = "unsupported_file"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeEmptySheet    ErrorCode = "empty_sheet"

	// Validation errors
	CodeInvalidMonth  ErrorCode = "invalid_month"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeUnknownDoctor ErrorCode = "unknown_doctor"
	CodeMissingField  ErrorCode = "missing_field"
	CodeOutOfRange    ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Storage errors
	CodeConnectionFailed  ErrorCode = "connection_failed"
	CodeQueryFailed       ErrorCode = "query_failed"
	CodeInvalidIdentifier ErrorCode = "invalid_identifier"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// BackofficeError is returned by every layer of the back office
type BackofficeError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *BackofficeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *BackofficeError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *BackofficeError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryInternal:
		return 5
	case CategoryStorage:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *BackofficeError) WithContext(key string, value interface{}) *BackofficeError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *BackofficeError) WithSuggestion(suggestion string) *BackofficeError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BackofficeError
func New(category ErrorCategory, code ErrorCode, message string) *BackofficeError {
	return &BackofficeError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with BackofficeError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *BackofficeError {
	if err == nil {
		return nil
	}

	return &BackofficeError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(category ErrorCategory, code ErrorCode, message string, err error) *BackofficeError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *BackofficeError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeUnsupportedFile:
		message = fmt.Sprintf("unsupported export format: %s", path)
		suggestion = "export the report as .csv or .xlsx"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return build(CategoryFile, code, message, err).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, column string, err error) *BackofficeError {
	var message, suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in %s at line %d", file, line)
		suggestion = "check the export was not edited by hand"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in %s", column, file)
		suggestion = "verify the export has the expected headers or adjust the column names in the config"
	case CodeEmptySheet:
		message = fmt.Sprintf("no rows found in %s", file)
		suggestion = "check the export covers the requested date range"
	default:
		message = fmt.Sprintf("parse error in %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	return build(CategoryParse, code, message, err).
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *BackofficeError {
	var message, suggestion string

	switch code {
	case CodeInvalidMonth:
		message = fmt.Sprintf("invalid month in field '%s': %v", field, value)
		suggestion = "use a Spanish month name such as Enero, Febrero ... Diciembre"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeUnknownDoctor:
		message = fmt.Sprintf("no commission rules configured for doctor '%v'", value)
		suggestion = "add the doctor to the commission rule table"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return build(CategoryValidation, code, message, err).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *BackofficeError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(CategoryConfiguration, code, message, err).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// StorageError creates a database-related error
func StorageError(code ErrorCode, operation string, err error) *BackofficeError {
	var message, suggestion string

	switch code {
	case CodeConnectionFailed:
		message = fmt.Sprintf("database connection failed during %s", operation)
		suggestion = "check the DSN and that the database is reachable"
	case CodeQueryFailed:
		message = fmt.Sprintf("query failed during %s", operation)
		suggestion = "check the table has been loaded for the requested range"
	case CodeInvalidIdentifier:
		message = fmt.Sprintf("invalid table or column name in %s", operation)
		suggestion = "identifiers may only contain letters, digits and underscores"
	default:
		message = fmt.Sprintf("storage error during %s", operation)
		suggestion = "try again or check the database logs"
	}

	return build(CategoryStorage, code, message, err).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError reports a failure that is a bug rather than bad input
func InternalError(code ErrorCode, operation string, err error) *BackofficeError {
	return build(CategoryInternal, code, fmt.Sprintf("unexpected error during %s", operation), err).
		WithSuggestion("report it with the error details").
		WithContext("operation", operation)
}

// AsBackofficeError extracts a BackofficeError from an error chain
func AsBackofficeError(err error) (*BackofficeError, bool) {
	var backofficeErr *BackofficeError
	if errors.As(err, &backofficeErr) {
		return backofficeErr, true
	}
	return nil, false
}

// IsCode reports whether the first BackofficeError in the chain of err has code
func IsCode(err error, code ErrorCode) bool {
	be, ok := AsBackofficeError(err)
	return ok && be.Code == code
}
