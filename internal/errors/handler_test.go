package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesbi/internal/dataprocessing"
	"salesbi/internal/infrastructure"
	"salesbi/internal/shared/testutil"
)

var errDatasetMissing = errors.New("no dataset loaded")

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)
	assert.Len(t, handler.mappings, 3)

	assert.NotNil(t, NewErrorHandler(nil, false).logger)
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	handler.Register(errDatasetMissing, http.StatusServiceUnavailable, TypeNoDataset, "No Dataset")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"wrapped cancel", fmt.Errorf("compute: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout},
		{"unknown report", fmt.Errorf("%w: forecast", dataprocessing.ErrUnknownReport), http.StatusNotFound, TypeUnknownReport},
		{"unsupported format", fmt.Errorf("%w: .pdf", dataprocessing.ErrUnsupportedFormat), http.StatusUnsupportedMediaType, TypeUnsupportedFormat},
		{"no header", dataprocessing.ErrNoHeader, http.StatusUnprocessableEntity, TypeUnreadableSheet},
		{"registered", fmt.Errorf("reports: %w", errDatasetMissing), http.StatusServiceUnavailable, TypeNoDataset},
		{"api error", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil)
			problem := handler.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/reports/summary", problem.Instance)
		})
	}
}

func TestErrorHandler_RegisterOverrides(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	handler.Register(dataprocessing.ErrNoHeader, http.StatusBadRequest, TypeValidation, "Bad Upload")

	req := httptest.NewRequest(http.MethodPost, "/api/dataset/upload", nil)
	problem := handler.ErrorToProblem(dataprocessing.ErrNoHeader, req)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "Bad Upload", problem.Title)
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	type query struct {
		Month int `validate:"min=1,max=12"`
		Top   int `validate:"min=0"`
	}
	err := validator.New().Struct(query{Month: 13, Top: -1})
	require.Error(t, err)

	handler := NewErrorHandler(slog.Default(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/reports/summary?month=13", nil)
	problem := handler.ErrorToProblem(err, req)

	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, TypeValidation, problem.Type)
	fields := problem.Extensions["errors"].([]ValidationError)
	require.Len(t, fields, 2)
	assert.Equal(t, "Month", fields[0].Field)
	assert.Equal(t, "must be at most 12", fields[0].Message)
	assert.Equal(t, "must be at least 0", fields[1].Message)
}

func TestErrorHandler_HandleError(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/forecast", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
	rec := httptest.NewRecorder()

	handler.HandleError(rec, req, fmt.Errorf("%w: forecast", dataprocessing.ErrUnknownReport))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeUnknownReport, body["type"])
	assert.Equal(t, "trace-1", body["trace_id"])
	assert.NotContains(t, body, "stack", "stacks are only attached to server errors")
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "request failed")

	rec = httptest.NewRecorder()
	handler.HandleError(rec, req, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeProblem(t, rec), "stack")
	testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")

	rec = httptest.NewRecorder()
	handler.HandleError(rec, req, nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil)
	rec := httptest.NewRecorder()
	handler.HandlePanic(rec, req, "nil map")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadGateway, TypeSourceUnavailable, "Bad Gateway", "", "/api/dataset/reload").
		WithExtension("source", "sheets").
		WithExtension("type", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeSourceUnavailable, body["type"], "standard members win over extensions")
	assert.Equal(t, "sheets", body["source"])
	assert.Equal(t, float64(http.StatusBadGateway), body["status"])
	assert.NotContains(t, body, "detail")

	var empty ProblemDetails
	empty.WithExtension("k", "v")
	assert.Equal(t, "v", empty.Extensions["k"])
}
