package errors

import (
	"fmt"
	"net/http"
)

// APIError is a request-level failure with a fixed HTTP status, a stable
// machine-readable code and the problem type it renders as.
type APIError struct {
	Status  int
	Code    string
	Type    string
	Message string
	Details any
}

func define(status int, code, problemType, message string) *APIError {
	return &APIError{Status: status, Code: code, Type: problemType, Message: message}
}

func (e *APIError) Error() string {
	return e.Message
}

// Is matches any APIError with the same code, so copies made by WithDetails
// still match their sentinel.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details any) *APIError {
	c := *e
	c.Details = details
	return &c
}

// Problem renders e as problem details for the given request path.
func (e *APIError) Problem(instance string) *ProblemDetails {
	problem := NewProblemDetails(e.Status, e.Type, http.StatusText(e.Status), e.Message, instance).
		WithExtension("error_code", e.Code)
	if e.Details != nil {
		problem.WithExtension("details", e.Details)
	}
	return problem
}

var (
	ErrInvalidRequest   = define(http.StatusBadRequest, "INVALID_REQUEST", TypeValidation, "Invalid request format")
	ErrValidationFailed = define(http.StatusBadRequest, "VALIDATION_FAILED", TypeValidation, "Request validation failed")
	ErrMissingFiles     = define(http.StatusBadRequest, "MISSING_FILES", TypeValidation, "No files were selected")
	ErrTooManyFiles     = define(http.StatusBadRequest, "TOO_MANY_FILES", TypeValidation, "Too many files in one upload")
	ErrInvalidChartKind = define(http.StatusBadRequest, "INVALID_CHART_KIND", TypeValidation, "Chart type must be one of bar, line, pie, doughnut")

	ErrNoDataset = define(http.StatusNotFound, "NO_DATASET", TypeNoDataset, "No consolidated data is available yet")

	ErrBatchInProgress = define(http.StatusConflict, "BATCH_IN_PROGRESS", TypeConflict, "Another upload is being processed")
	ErrPayloadTooLarge = define(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", TypePayloadTooLarge, "The upload exceeds the maximum allowed size")
	ErrRateLimited     = define(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", TypeRateLimit, "Rate limit exceeded, please retry shortly")

	ErrChartRender = define(http.StatusInternalServerError, "CHART_RENDER_FAILED", TypeChartRender, "Chart rendering failed")
)

// ValidationError describes one rejected field or file.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a multi-field failure.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// InvalidRequestWithError reports a malformed request body.
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.WithDetails(err.Error())
}

// ErrValidation reports a single bad field.
func ErrValidation(field, message string) *APIError {
	return ErrValidationFailed.WithDetails(ValidationError{Field: field, Message: message})
}

func NewValidationErrors(errs []ValidationError) *APIError {
	return ErrValidationFailed.WithDetails(ValidationErrors{Errors: errs})
}

// TooManyFiles reports an upload above the per-batch file limit.
func TooManyFiles(limit, got int) *APIError {
	e := ErrTooManyFiles.WithDetails(map[string]int{"max_files": limit, "files": got})
	e.Message = fmt.Sprintf("At most %d files can be uploaded at once", limit)
	return e
}

// ChartRenderError wraps a rendering failure.
func ChartRenderError(kind string, err error) *APIError {
	e := ErrChartRender.WithDetails(err.Error())
	e.Message = fmt.Sprintf("Failed to render %s chart", kind)
	return e
}
