package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salesbi/internal/dataprocessing"
	"salesbi/internal/files"
	"salesbi/internal/shared/testutil"
)

// MockSource is a testify mock of files.Source
type MockSource struct {
	mock.Mock
}

// Kind implements files.Source
func (m *MockSource) Kind() string { return files.KindFile }

// Load implements files.Source
func (m *MockSource) Load(ctx context.Context) (*files.Document, error) {
	args := m.Called(ctx)
	doc, _ := args.Get(0).(*files.Document)
	return doc, args.Error(1)
}

// MockUploadStore is a testify mock of UploadStore
type MockUploadStore struct {
	mock.Mock
}

// SaveUpload implements UploadStore
func (m *MockUploadStore) SaveUpload(name string, data []byte) (string, error) {
	args := m.Called(name, data)
	return args.String(0), args.Error(1)
}

// fixtureDocument loads the sales fixture as a source document
func fixtureDocument(t *testing.T) *files.Document {
	t.Helper()
	doc, err := files.NewFileSource(testutil.WriteSalesCSV(t, t.TempDir()), "", "").Load(context.Background())
	require.NoError(t, err)
	return doc
}

// testClock is a settable clock
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestService builds a report service over source with a fixed clock
func newTestService(t *testing.T, source files.Source, cfg ReportServiceConfig, opts ...ReportServiceOption) (*ReportService, *testClock) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	clock := newTestClock()
	svc := NewReportService(source, dataprocessing.NewProcessor(dataprocessing.DefaultRules(), logger, nil), cfg, logger, opts...)
	svc.now = clock.Now
	return svc, clock
}
