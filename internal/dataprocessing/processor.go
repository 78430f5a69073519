package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"salesbi/internal/config"
	"salesbi/pkg/contracts/domain"
)

// RequiredFields are the columns every sales table must carry. Rows are
// still processed when some are missing; the gap is reported on the dataset.
var RequiredFields = []Field{
	FieldInvoiceNumber,
	FieldMovementType,
	FieldIssueDate,
	FieldGrossAmount,
	FieldCustomerID,
}

// Dataset is the immutable result of one pipeline run
type Dataset struct {
	ID                string
	Source            string
	Sheet             string
	LoadedAt          time.Time
	Transactions      []domain.Transaction
	Issues            []*MalformedRowError
	IssueCount        int
	Uncatalogued      []*MissingReferenceDataError
	UncataloguedCount int
	HasCatalog        bool
	HasDueDates       bool
	MissingColumns    []Field
}

// Info summarizes the dataset for the API
func (d *Dataset) Info() domain.DatasetInfo {
	missing := make([]string, len(d.MissingColumns))
	for i, f := range d.MissingColumns {
		missing[i] = string(f)
	}
	return domain.DatasetInfo{
		ID:                d.ID,
		Source:            d.Source,
		Sheet:             d.Sheet,
		LoadedAt:          d.LoadedAt,
		Rows:              len(d.Transactions),
		Invoices:          len(DedupeByInvoice(d.Transactions)),
		IssueCount:        d.IssueCount,
		UncataloguedCount: d.UncataloguedCount,
		HasCatalog:        d.HasCatalog,
		HasDueDates:       d.HasDueDates,
		MissingColumns:    missing,
	}
}

// MetricsRecorder receives pipeline counters
type MetricsRecorder interface {
	RecordPipelineRun(ctx context.Context, source string, rows, malformed, uncatalogued int, duration time.Duration)
}

// Processor turns a raw table into a Dataset by normalizing and deriving
// every row
type Processor struct {
	rules   Rules
	logger  *slog.Logger
	metrics MetricsRecorder
	now     func() time.Time
}

// NewProcessor creates a processor. metrics may be nil.
func NewProcessor(rules Rules, logger *slog.Logger, metrics MetricsRecorder) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		rules:   rules,
		logger:  logger.With(slog.String("component", "processor")),
		metrics: metrics,
		now:     time.Now,
	}
}

// Rules returns the thresholds the processor derives with
func (p *Processor) Rules() Rules {
	return p.rules
}

// Process normalizes and derives every non-blank row of table. Bad cells
// never abort the run: they are defaulted and collected as issues. catalog
// may be nil. The context is checked between rows.
func (p *Processor) Process(ctx context.Context, source string, table *RawTable, catalog *Catalog) (*Dataset, error) {
	if table == nil || len(table.Headers) == 0 {
		return nil, ErrNoHeader
	}
	start := p.now()

	index := ResolveHeaders(table.Headers)
	ds := &Dataset{
		ID:             uuid.NewString(),
		Source:         source,
		Sheet:          table.Sheet,
		LoadedAt:       start,
		Transactions:   make([]domain.Transaction, 0, len(table.Rows)),
		HasCatalog:     catalog != nil,
		HasDueDates:    index.Has(FieldDueDates),
		MissingColumns: index.Missing(RequiredFields...),
	}
	if len(ds.MissingColumns) > 0 {
		p.logger.WarnContext(ctx, "sales table is missing columns",
			slog.Any("missing", ds.MissingColumns),
			slog.Any("headers", table.Headers))
	}

	for i, cells := range table.Rows {
		if i%config.CancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if IsBlankRow(cells) {
			continue
		}

		rowNumber := table.RowNumber(i)
		tx, issues := NormalizeRow(rowNumber, cells, index, table.Numbers)
		for _, issue := range issues {
			ds.addIssue(issue)
		}

		tx, err := Derive(tx, catalog, p.rules)
		var missing *MissingReferenceDataError
		if errors.As(err, &missing) {
			ds.UncataloguedCount++
			if len(ds.Uncatalogued) < config.MaxReportedIssues {
				ds.Uncatalogued = append(ds.Uncatalogued, missing)
			}
		}
		ds.Transactions = append(ds.Transactions, tx)
	}

	duration := p.now().Sub(start)
	p.logger.InfoContext(ctx, "dataset processed",
		slog.String("dataset_id", ds.ID),
		slog.String("source", source),
		slog.String("sheet", ds.Sheet),
		slog.Int("rows", len(ds.Transactions)),
		slog.Int("issues", ds.IssueCount),
		slog.Int("uncatalogued", ds.UncataloguedCount),
		slog.Duration("duration", duration))
	if p.metrics != nil {
		p.metrics.RecordPipelineRun(ctx, source, len(ds.Transactions), ds.IssueCount, ds.UncataloguedCount, duration)
	}

	return ds, nil
}

func (d *Dataset) addIssue(issue *MalformedRowError) {
	d.IssueCount++
	if len(d.Issues) < config.MaxReportedIssues {
		d.Issues = append(d.Issues, issue)
	}
}
