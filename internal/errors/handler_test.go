package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/infrastructure"
)

func newTestHandler(buf *bytes.Buffer) *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewJSONHandler(buf, nil)), false)
}

func decodeProblem(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&problem))
	return problem
}

func TestErrorToProblem(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})
	req := httptest.NewRequest(http.MethodGet, "/api/chart", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("render: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "max bytes",
			err:        fmt.Errorf("multipart: %w", &http.MaxBytesError{Limit: 1024}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "api error",
			err:        ErrInvalidChartKind,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "wrapped no dataset",
			err:        fmt.Errorf("chart: %w", ErrNoDataset),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNoDataset,
		},
		{
			name:       "batch in progress",
			err:        ErrBatchInProgress,
			wantStatus: http.StatusConflict,
			wantType:   TypeConflict,
		},
		{
			name:       "app validation",
			err:        NewAppValidationError("unsupported extension", nil),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "app not found",
			err:        NewNotFoundError("dataset", nil),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "app parsing",
			err:        NewParsingError("corrupt workbook", io.ErrUnexpectedEOF),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUnprocessableFile,
		},
		{
			name:       "app config is internal",
			err:        NewConfigError("bad palette", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "plain error",
			err:        io.ErrClosedPipe,
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/chart", problem.Instance)
		})
	}
}

func TestHandleError_RendersProblemJSON(t *testing.T) {
	var logs bytes.Buffer
	h := newTestHandler(&logs)

	req := httptest.NewRequest(http.MethodGet, "/api/chart?kind=radar", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, ErrInvalidChartKind)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec.Body)
	assert.Equal(t, TypeValidation, problem["type"])
	assert.Equal(t, "INVALID_CHART_KIND", problem["error_code"])
	assert.Equal(t, "trace-1", problem["trace_id"])
	assert.Contains(t, logs.String(), "request failed")
}

func TestHandleError_NilIsNoop(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
}

func TestAppErrorFieldsBecomeExtensions(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})
	err := NewAppValidationError("file rejected", nil).WithField("file", "~$lock.xlsx")

	problem := h.ErrorToProblem(fmt.Errorf("upload: %w", err), httptest.NewRequest(http.MethodPost, "/api/uploads", nil))

	assert.Equal(t, "~$lock.xlsx", problem.Extensions["file"])
	assert.Equal(t, "VALIDATION", problem.Extensions["error_type"])
}

func TestHandleError_TooManyFilesDetails(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/uploads", nil), TooManyFiles(2, 3))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec.Body)
	assert.Equal(t, "TOO_MANY_FILES", problem["error_code"])
	assert.Equal(t, map[string]interface{}{"max_files": float64(2), "files": float64(3)}, problem["details"])
	assert.NotContains(t, problem, "trace_id")
}

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	h := newTestHandler(&logs)

	handler := h.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, rec.Body)["type"])
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.True(t, strings.Contains(decodeProblem(t, rec.Body)["detail"].(string), "DELETE"))
}
