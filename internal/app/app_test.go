package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesbi/internal/config"
	"salesbi/internal/files"
	"salesbi/internal/shared/testutil"
)

// createTestLogger creates a logger that discards output for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// testConfig reads the sales fixture from a temp dir and disables the
// rate limiter
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Security.RateLimit.Enabled = false
	cfg.Source.Dir = ""
	cfg.Source.Path = testutil.WriteSalesCSV(t, t.TempDir())
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(context.Background(), cfg, createTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

func get(app *Application, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.Equal(t, ":0", app.Server.Addr)
	assert.NotNil(t, app.Services.Reports)
	assert.NotNil(t, app.Services.Health)
	assert.Nil(t, app.Services.Uploads)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/api/health", http.StatusOK, `"status":"ok"`},
		{"/api/health/live", http.StatusOK, `"alive"`},
		{"/api/version", http.StatusOK, config.AppVersion},
		{"/api/reports/summary", http.StatusOK, `"net_revenue":1500`},
		{"/api/reports/summary?salesperson=BRUNO", http.StatusOK, `"net_revenue":700`},
		{"/api/reports/rankings/salespeople", http.StatusOK, `"ANA"`},
		{"/api/reports/summary?month=13", http.StatusBadRequest, "/errors/validation"},
		{"/api/reports/forecast", http.StatusNotFound, "/errors/report/unknown"},
		{"/api/dataset", http.StatusOK, `"rows":5`},
		{"/api/nothing-here", http.StatusNotFound, "/errors/not-found"},
		{"/metrics", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(app, tt.path)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_ReadinessFollowsDataset(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	assert.Equal(t, http.StatusServiceUnavailable, get(app, "/api/health/ready").Code)
	require.NoError(t, app.performStartupHealthCheck(context.Background()))
	assert.Equal(t, http.StatusOK, get(app, "/api/health/ready").Code)
}

func TestApplication_SharedSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.SharedSecret = "s3cret"
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, get(app, "/api/reports/summary").Code)
	assert.Equal(t, http.StatusUnauthorized, get(app, "/api/reports/summary", "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(app, "/api/reports/summary", "X-API-Key", "s3cret").Code)
	assert.Equal(t, http.StatusOK, get(app, "/api/reports/summary?api_key=s3cret").Code)

	// health stays open
	assert.Equal(t, http.StatusOK, get(app, "/api/health").Code)
}

func TestApplication_InvalidSecretHash(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.SharedSecretHash = "not-a-bcrypt-hash"

	_, err := New(context.Background(), cfg, createTestLogger())
	assert.Error(t, err)
}

func TestApplication_UploadWithoutSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Path = ""
	cfg.Source.UploadDir = t.TempDir()
	app := newTestApp(t, cfg)
	require.NotNil(t, app.Services.Uploads)

	rec := get(app, "/api/reports/summary")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/data/not-loaded")

	content, err := os.ReadFile(testutil.WriteSalesCSV(t, t.TempDir()))
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "vendas.csv")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	up := httptest.NewRecorder()
	app.Router.ServeHTTP(up, req)
	require.Equal(t, http.StatusOK, up.Code, up.Body.String())

	rec = get(app, "/api/reports/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Data struct {
			Summary struct {
				NetRevenue float64 `json:"net_revenue"`
			} `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.InDelta(t, 1500, summary.Data.Summary.NetRevenue, 0.001)

	kept, err := files.NewDiscovery("").FindSpreadsheets(cfg.Source.UploadDir)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestApplication_BuildSources(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.SourceConfig)
		kind      string
		reference bool
	}{
		{"file", func(s *config.SourceConfig) {}, files.KindFile, false},
		{"file with reference", func(s *config.SourceConfig) { s.ReferencePath = "referencia.csv" }, files.KindFile, true},
		{"sheets", func(s *config.SourceConfig) {
			s.SheetID = "sheet-123"
			s.GoogleAPIKey = "key"
			s.ReferenceSheetID = "sheet-456"
		}, files.KindSheets, true},
		{"none", func(s *config.SourceConfig) { s.Path = "" }, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg.Source)
			app := &Application{Config: cfg, Logger: createTestLogger()}

			source, reference, err := app.buildSources(context.Background())
			require.NoError(t, err)
			if tt.kind == "" {
				assert.Nil(t, source)
			} else {
				require.NotNil(t, source)
				assert.Equal(t, tt.kind, source.Kind())
			}
			assert.Equal(t, tt.reference, reference != nil)
		})
	}
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.ShutdownTimeout = 5 * time.Second
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	assert.Eventually(t, func() bool {
		_, ok := app.Services.Reports.Current()
		return ok
	}, 5*time.Second, 20*time.Millisecond, "startup should load the dataset")

	require.NoError(t, app.Stop(context.Background()))
}
