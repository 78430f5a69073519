package http

import (
	"context"
	"io"

	"salesbi/internal/dataprocessing"
	"salesbi/internal/services"
	"salesbi/pkg/contracts/domain"
)

// ReportServiceInterface defines the report operations the handlers use
type ReportServiceInterface interface {
	Report(ctx context.Context, name string, params services.ReportParams) (any, error)
	Summary(ctx context.Context, params services.ReportParams) (*services.SummaryResult, error)
	Dashboard(ctx context.Context, params services.ReportParams) (map[domain.ReportType]any, error)
	FilterOptions(ctx context.Context) (domain.FilterOptions, error)
	Suggest(ctx context.Context, search string, params services.ReportParams) ([]domain.CustomerRef, error)
	ExportWorkbook(ctx context.Context, w io.Writer, params services.ReportParams, reports ...domain.ReportType) error
	ExportCSV(ctx context.Context, w io.Writer, name string, params services.ReportParams) error
}

// DatasetServiceInterface defines the dataset operations the handlers use
type DatasetServiceInterface interface {
	Info(ctx context.Context) (domain.DatasetInfo, error)
	Issues(ctx context.Context) ([]*dataprocessing.MalformedRowError, error)
	Reload(ctx context.Context) (domain.DatasetInfo, error)
	Upload(ctx context.Context, name string, data []byte) (domain.DatasetInfo, error)
}
