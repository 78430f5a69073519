package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"salesbi/internal/shared/testutil"
	"salesbi/pkg/contracts/domain"
)

type MockDatasetStatus struct {
	mock.Mock
}

func (m *MockDatasetStatus) Current() (domain.DatasetInfo, bool) {
	args := m.Called()
	return args.Get(0).(domain.DatasetInfo), args.Bool(1)
}

func TestHealthService_Readiness(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name    string
		info    domain.DatasetInfo
		loaded  bool
		status  string
		message string
	}{
		{"no dataset", domain.DatasetInfo{}, false, "not_ready", "no dataset loaded yet"},
		{"loaded", domain.DatasetInfo{Source: "vendas.xlsx", LoadedAt: time.Now()}, true, "ready", "vendas.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			datasets := &MockDatasetStatus{}
			datasets.On("Current").Return(tt.info, tt.loaded)

			hs := NewHealthService("1.0.0", "", datasets, nil, logger)
			got := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.status, got.Status)
			dataset := got.Services["dataset"].(ServiceHealth)
			assert.Equal(t, tt.message, dataset.Message)
			datasets.AssertExpectations(t)
		})
	}
}

func TestHealthService_NilDatasets(t *testing.T) {
	hs := NewHealthService("1.0.0", "", nil, nil, nil)

	assert.Equal(t, "not_ready", hs.ReadinessCheck(context.Background()).Status)
	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)
}

func TestHealthService_Liveness(t *testing.T) {
	hs := NewHealthService("1.0.0", "2026-01-01", nil, nil, nil)

	got := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", got.Status)
	assert.Contains(t, got.Runtime, "goroutines")
	assert.Contains(t, got.Runtime, "go_version")
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("1.2.3", "2026-01-01", nil, nil, nil)

	v := hs.Version()
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "2026-01-01", v["build_time"])

	assert.NotContains(t, NewHealthService("1.2.3", "", nil, nil, nil).Version(), "build_time")
}

func TestHealthService_ReportServiceStatus(t *testing.T) {
	svc := fixtureService(t)
	hs := NewHealthService("1.0.0", "", svc, nil, nil)
	assert.Equal(t, "not_ready", hs.ReadinessCheck(context.Background()).Status)

	_, err := svc.Info(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "ready", hs.ReadinessCheck(context.Background()).Status)
}
