package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salesbi/internal/dataprocessing"
	apierrors "salesbi/internal/errors"
	"salesbi/internal/middleware"
	"salesbi/internal/services"
	"salesbi/internal/shared/testutil"
	"salesbi/pkg/contracts/domain"
)

// MockReportService is a mock implementation of ReportServiceInterface
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Report(ctx context.Context, name string, params services.ReportParams) (any, error) {
	args := m.Called(name, params)
	return args.Get(0), args.Error(1)
}

func (m *MockReportService) Summary(ctx context.Context, params services.ReportParams) (*services.SummaryResult, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryResult), args.Error(1)
}

func (m *MockReportService) Dashboard(ctx context.Context, params services.ReportParams) (map[domain.ReportType]any, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.ReportType]any), args.Error(1)
}

func (m *MockReportService) FilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	args := m.Called()
	return args.Get(0).(domain.FilterOptions), args.Error(1)
}

func (m *MockReportService) Suggest(ctx context.Context, search string, params services.ReportParams) ([]domain.CustomerRef, error) {
	args := m.Called(search, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CustomerRef), args.Error(1)
}

func (m *MockReportService) ExportWorkbook(ctx context.Context, w io.Writer, params services.ReportParams, reports ...domain.ReportType) error {
	args := m.Called(w, params, reports)
	return args.Error(0)
}

func (m *MockReportService) ExportCSV(ctx context.Context, w io.Writer, name string, params services.ReportParams) error {
	args := m.Called(w, name, params)
	return args.Error(0)
}

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Info(ctx context.Context) (domain.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) Issues(ctx context.Context) ([]*dataprocessing.MalformedRowError, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dataprocessing.MalformedRowError), args.Error(1)
}

func (m *MockDatasetService) Reload(ctx context.Context) (domain.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) Upload(ctx context.Context, name string, data []byte) (domain.DatasetInfo, error) {
	args := m.Called(name, data)
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func newTestErrorHandler(t *testing.T) *apierrors.ErrorHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := apierrors.NewErrorHandler(logger, false)
	RegisterErrors(h)
	return h
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// envelope is the success body
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Count  *int            `json:"count"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func newTestValidator() *middleware.Validator {
	return middleware.NewValidator()
}
