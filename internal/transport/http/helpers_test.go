package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespulse/internal/chart"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ProcessBatch(ctx context.Context, uploads []services.Upload) (domain.BatchResult, error) {
	args := m.Called(uploads)
	return args.Get(0).(domain.BatchResult), args.Error(1)
}

func (m *MockDashboardService) RenderChart(ctx context.Context, kind chart.Kind, format chart.Format) (*chart.Instance, error) {
	args := m.Called(kind, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chart.Instance), args.Error(1)
}

func (m *MockDashboardService) ChartSpec(kind chart.Kind) (chart.Spec, error) {
	args := m.Called(kind)
	return args.Get(0).(chart.Spec), args.Error(1)
}

func (m *MockDashboardService) SelectedKind() chart.Kind {
	return m.Called().Get(0).(chart.Kind)
}

func (m *MockDashboardService) Snapshot() domain.DashboardSnapshot {
	return m.Called().Get(0).(domain.DashboardSnapshot)
}

func (m *MockDashboardService) Records() ([]domain.FlatRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlatRecord), args.Error(1)
}

func (m *MockDashboardService) Table() (domain.SummaryTable, error) {
	args := m.Called()
	return args.Get(0).(domain.SummaryTable), args.Error(1)
}

func (m *MockDashboardService) State() domain.DashboardState {
	return m.Called().Get(0).(domain.DashboardState)
}

func testLogger() *slog.Logger {
	return infrastructure.NewLogger(io.Discard, "debug")
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}

type part struct {
	name string
	data string
}

func multipartBody(t *testing.T, field string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(field, p.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func newUploadRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()

	body, contentType := multipartBody(t, uploadField, parts...)
	req, err := http.NewRequest(http.MethodPost, "/api/uploads", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	return req
}
