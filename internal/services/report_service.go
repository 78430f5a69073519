package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"salesbi/internal/dataprocessing"
	"salesbi/internal/exporter"
	"salesbi/internal/files"
	"salesbi/internal/infrastructure"
	"salesbi/pkg/contracts/domain"
)

// UploadStore keeps a copy of uploaded spreadsheets
type UploadStore interface {
	SaveUpload(name string, data []byte) (string, error)
}

// ReportServiceConfig tunes the report service
type ReportServiceConfig struct {
	// CacheTTL bounds the age of a dataset read from the source; 0 never
	// expires. Uploaded datasets do not expire.
	CacheTTL     time.Duration
	DefaultTopN  int
	SuggestLimit int
	// Sheet selects the workbook sheet of uploads; blank auto-detects
	Sheet string
}

// ReportService serves reports over an immutable dataset snapshot. The
// snapshot is replaced whole on reload or upload, so readers never see a
// partial dataset.
type ReportService struct {
	source    files.Source
	reference files.Source
	processor *dataprocessing.Processor
	uploads   UploadStore
	metrics   *infrastructure.BusinessMetrics
	cfg       ReportServiceConfig
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	snapshot *snapshot
	reloads  singleflight.Group
}

type snapshot struct {
	dataset  *dataprocessing.Dataset
	catalog  *dataprocessing.Catalog
	loadedAt time.Time
	pinned   bool
}

// ReportServiceOption configures optional collaborators
type ReportServiceOption func(*ReportService)

// WithReference sets the reference catalogue source
func WithReference(src files.Source) ReportServiceOption {
	return func(s *ReportService) { s.reference = src }
}

// WithUploadStore keeps a copy of every upload
func WithUploadStore(store UploadStore) ReportServiceOption {
	return func(s *ReportService) { s.uploads = store }
}

// WithMetrics records reload, report and export metrics
func WithMetrics(metrics *infrastructure.BusinessMetrics) ReportServiceOption {
	return func(s *ReportService) { s.metrics = metrics }
}

// NewReportService creates the service. source may be nil, in which case
// data only arrives through Upload.
func NewReportService(source files.Source, processor *dataprocessing.Processor, cfg ReportServiceConfig, logger *slog.Logger, opts ...ReportServiceOption) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = 10
	}
	if cfg.SuggestLimit <= 0 {
		cfg.SuggestLimit = 10
	}
	s := &ReportService{
		source:    source,
		processor: processor,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "report_service")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the info of the loaded dataset without loading one
func (s *ReportService) Current() (domain.DatasetInfo, bool) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return domain.DatasetInfo{}, false
	}
	return snap.dataset.Info(), true
}

// Dataset returns the current dataset, loading it from the source when none
// is loaded or the loaded one has expired. A failed refresh keeps serving
// the previous dataset.
func (s *ReportService) Dataset(ctx context.Context) (*dataprocessing.Dataset, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.dataset, nil
}

func (s *ReportService) current(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	if snap != nil && !s.expired(snap) {
		return snap, nil
	}
	if s.source == nil {
		if snap != nil {
			return snap, nil
		}
		return nil, ErrNoDataset
	}

	fresh, err := s.reload(ctx)
	if err != nil {
		if snap != nil {
			s.logger.WarnContext(ctx, "refresh failed, serving previous dataset",
				slog.String("dataset_id", snap.dataset.ID),
				slog.String("error", err.Error()))
			return snap, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (s *ReportService) expired(snap *snapshot) bool {
	if snap.pinned || s.cfg.CacheTTL <= 0 {
		return false
	}
	return s.now().Sub(snap.loadedAt) > s.cfg.CacheTTL
}

// Reload forces a fresh load from the configured source. Concurrent calls
// share one load.
func (s *ReportService) Reload(ctx context.Context) (domain.DatasetInfo, error) {
	if s.source == nil {
		return domain.DatasetInfo{}, fmt.Errorf("%w: no source configured", ErrNoDataset)
	}
	snap, err := s.reload(ctx)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return snap.dataset.Info(), nil
}

func (s *ReportService) reload(ctx context.Context) (*snapshot, error) {
	ch := s.reloads.DoChan("reload", func() (interface{}, error) {
		// Detached so one caller giving up does not fail the others
		return s.load(context.WithoutCancel(ctx), s.source, false)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot), nil
	}
}

// load reads src and the reference table, processes them and swaps the
// snapshot in
func (s *ReportService) load(ctx context.Context, src files.Source, pinned bool) (*snapshot, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dataset.load", attribute.String("source.kind", src.Kind()))
	defer span.End()

	start := s.now()
	snap, err := s.build(ctx, src, pinned)
	s.metrics.RecordReload(ctx, src.Kind(), s.now().Sub(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", src.Kind()),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset_id", snap.dataset.ID),
		slog.String("source", snap.dataset.Source),
		slog.Int("rows", len(snap.dataset.Transactions)),
		slog.Int("issues", snap.dataset.IssueCount),
		slog.Bool("pinned", pinned))
	return snap, nil
}

func (s *ReportService) build(ctx context.Context, src files.Source, pinned bool) (*snapshot, error) {
	doc, err := src.Load(ctx)
	if err != nil {
		if src.Kind() == files.KindUpload {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	ds, err := s.processor.Process(ctx, doc.Name, doc.Table, catalog)
	if err != nil {
		return nil, err
	}
	return &snapshot{dataset: ds, catalog: catalog, loadedAt: s.now(), pinned: pinned}, nil
}

// catalog loads the reference table when one is configured
func (s *ReportService) catalog(ctx context.Context) (*dataprocessing.Catalog, error) {
	if s.reference == nil {
		return nil, nil
	}
	catalog, issues, err := files.LoadCatalog(ctx, s.reference)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		s.logger.WarnContext(ctx, "reference table has unreadable rows",
			slog.Int("issues", len(issues)),
			slog.String("first", issues[0].Error()))
	}
	return catalog, nil
}

// Upload replaces the dataset with an uploaded spreadsheet. The uploaded
// dataset stays until the next explicit reload or upload.
func (s *ReportService) Upload(ctx context.Context, name string, data []byte) (domain.DatasetInfo, error) {
	if len(data) == 0 {
		return domain.DatasetInfo{}, ErrEmptyUpload
	}

	snap, err := s.load(ctx, files.NewUploadSource(name, data, s.cfg.Sheet), true)
	if err != nil {
		return domain.DatasetInfo{}, err
	}

	if s.uploads != nil {
		if path, err := s.uploads.SaveUpload(name, data); err != nil {
			s.logger.WarnContext(ctx, "failed to keep upload copy",
				slog.String("name", name),
				slog.String("error", err.Error()))
		} else {
			s.logger.DebugContext(ctx, "upload copy kept", slog.String("path", path))
		}
	}

	return snap.dataset.Info(), nil
}

// Info returns the info of the current dataset, loading it if needed
func (s *ReportService) Info(ctx context.Context) (domain.DatasetInfo, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.Info(), nil
}

// view filters the dataset for one request
func (s *ReportService) view(ctx context.Context, params ReportParams) (*dataprocessing.Dataset, dataprocessing.View, error) {
	criteria, err := params.Criteria()
	if err != nil {
		return nil, dataprocessing.View{}, err
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, dataprocessing.View{}, err
	}
	return ds, dataprocessing.NewView(ds.Transactions, criteria), nil
}

func (s *ReportService) options(ds *dataprocessing.Dataset, params ReportParams) dataprocessing.ReportOptions {
	limit := params.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultTopN
	}
	return dataprocessing.ReportOptions{
		Rules:        s.processor.Rules(),
		Now:          s.now(),
		Limit:        limit,
		SuggestLimit: s.cfg.SuggestLimit,
		WithCatalog:  ds.HasCatalog,
	}
}

func (s *ReportService) compute(ctx context.Context, report domain.ReportType, view dataprocessing.View, opts dataprocessing.ReportOptions) (any, error) {
	start := time.Now()
	result, err := dataprocessing.Compute(report, view, opts)
	s.metrics.RecordReport(ctx, string(report), time.Since(start), err)
	return result, err
}

// Report computes one report by name, e.g. "revenue_by_region"
func (s *ReportService) Report(ctx context.Context, name string, params ReportParams) (any, error) {
	report, err := dataprocessing.ParseReportType(name)
	if err != nil {
		return nil, err
	}

	ctx, span := infrastructure.StartSpan(ctx, "report.compute", attribute.String("report", string(report)))
	defer span.End()

	ds, view, err := s.view(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, report, view, s.options(ds, params))
}

// Dashboard computes every report concurrently over one snapshot
func (s *ReportService) Dashboard(ctx context.Context, params ReportParams) (map[domain.ReportType]any, error) {
	return s.computeAll(ctx, params, domain.AllReportTypes)
}

func (s *ReportService) computeAll(ctx context.Context, params ReportParams, reports []domain.ReportType) (map[domain.ReportType]any, error) {
	ctx, span := infrastructure.StartSpan(ctx, "report.dashboard", attribute.Int("reports", len(reports)))
	defer span.End()

	ds, view, err := s.view(ctx, params)
	if err != nil {
		return nil, err
	}
	opts := s.options(ds, params)

	var mu sync.Mutex
	results := make(map[domain.ReportType]any, len(reports))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, report := range reports {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := s.compute(gctx, report, view, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", report, err)
			}
			mu.Lock()
			results[report] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SummaryResult is the headline view: KPIs, filter choices and dataset info
type SummaryResult struct {
	Summary       domain.Summary       `json:"summary"`
	FilterOptions domain.FilterOptions `json:"filter_options"`
	Dataset       domain.DatasetInfo   `json:"dataset"`
}

// Summary computes the KPIs of the filtered window with the filter options
func (s *ReportService) Summary(ctx context.Context, params ReportParams) (*SummaryResult, error) {
	ds, view, err := s.view(ctx, params)
	if err != nil {
		return nil, err
	}
	result, err := s.compute(ctx, domain.ReportSummary, view, s.options(ds, params))
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		Summary:       result.(domain.Summary),
		FilterOptions: dataprocessing.FilterOptions(ds.Transactions),
		Dataset:       ds.Info(),
	}, nil
}

// FilterOptions lists the salespeople, regions and years of the dataset
func (s *ReportService) FilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return dataprocessing.FilterOptions(ds.Transactions), nil
}

// Suggest lists customers matching search for autocompletion. The search
// respects the salesperson and region of params but not its period.
func (s *ReportService) Suggest(ctx context.Context, search string, params ReportParams) ([]domain.CustomerRef, error) {
	params.Customer = ""
	_, view, err := s.view(ctx, params)
	if err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = s.cfg.SuggestLimit
	}
	return dataprocessing.SuggestCustomers(view.History, search, limit), nil
}

// Issues returns the kept malformed-row issues of the dataset
func (s *ReportService) Issues(ctx context.Context) ([]*dataprocessing.MalformedRowError, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Issues, nil
}

// Tables computes reports and flattens them for export. No reports means
// every report.
func (s *ReportService) Tables(ctx context.Context, params ReportParams, reports ...domain.ReportType) ([]exporter.Table, error) {
	if len(reports) == 0 {
		reports = domain.AllReportTypes
	}
	results, err := s.computeAll(ctx, params, reports)
	if err != nil {
		return nil, err
	}
	tables := make([]exporter.Table, 0, len(reports))
	for _, report := range reports {
		table, err := exporter.BuildTable(report, results[report])
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// ExportWorkbook writes the reports as an xlsx workbook, one sheet each
func (s *ReportService) ExportWorkbook(ctx context.Context, w io.Writer, params ReportParams, reports ...domain.ReportType) error {
	tables, err := s.Tables(ctx, params, reports...)
	if err != nil {
		return err
	}
	if err := exporter.WriteWorkbook(w, tables); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.metrics.RecordExport(ctx, "xlsx", len(tables))
	return nil
}

// ExportCSV writes one report as CSV
func (s *ReportService) ExportCSV(ctx context.Context, w io.Writer, name string, params ReportParams) error {
	report, err := dataprocessing.ParseReportType(name)
	if err != nil {
		return err
	}
	result, err := s.Report(ctx, string(report), params)
	if err != nil {
		return err
	}
	table, err := exporter.BuildTable(report, result)
	if err != nil {
		return err
	}
	if err := exporter.WriteCSV(w, table); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	s.metrics.RecordExport(ctx, "csv", 1)
	return nil
}
