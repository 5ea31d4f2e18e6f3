package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures raised below the HTTP layer.
type ErrorType string

const (
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError is a typed domain failure. Fields travel to problem responses
// as extensions.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Fields  map[string]any
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithField attaches a key/value that is reported alongside the error.
func (e *AppError) WithField(key string, value any) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewParsingError reports an unreadable workbook or sheet.
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAppValidationError reports input that was readable but unacceptable.
func NewAppValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

func NewNotFoundError(resource string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, resource+" not found", cause)
}

func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err wraps an AppError of type t.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// appErrorProblems maps the client-facing error types to responses. Types
// missing here are server faults.
var appErrorProblems = map[ErrorType]struct {
	status int
	typ    string
	title  string
}{
	ErrTypeValidation: {http.StatusBadRequest, TypeValidation, "Validation Failed"},
	ErrTypeNotFound:   {http.StatusNotFound, TypeNotFound, "Resource Not Found"},
	ErrTypeParsing:    {http.StatusUnprocessableEntity, TypeUnprocessableFile, "Unprocessable File"},
}

// Problem renders e as problem details, or reports false for server-side
// error types.
func (e *AppError) Problem(instance string) (*ProblemDetails, bool) {
	m, ok := appErrorProblems[e.Type]
	if !ok {
		return nil, false
	}
	problem := NewProblemDetails(m.status, m.typ, m.title, e.Message, instance).
		WithExtension("error_type", string(e.Type))
	for k, v := range e.Fields {
		problem.WithExtension(k, v)
	}
	return problem, true
}
