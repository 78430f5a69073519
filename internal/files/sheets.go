package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"salesbi/internal/dataprocessing"
)

// SheetsConfig locates a Google Sheets range
type SheetsConfig struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string
	APIKey          string
	Timeout         time.Duration
}

// SheetsSource reads a range of a Google spreadsheet
type SheetsSource struct {
	service *sheets.Service
	cfg     SheetsConfig
	logger  *slog.Logger
}

// NewSheetsSource creates the Sheets client. Credentials come from a service
// account file, or an API key for spreadsheets shared by link. Extra options
// are appended last.
func NewSheetsSource(ctx context.Context, cfg SheetsConfig, logger *slog.Logger, opts ...option.ClientOption) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	if cfg.Range == "" {
		cfg.Range = "A:Z"
	}
	if logger == nil {
		logger = slog.Default()
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsSource{
		service: service,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "sheets_source")),
	}, nil
}

// Kind implements Source
func (s *SheetsSource) Kind() string { return KindSheets }

// Load fetches the range with unformatted values, so numbers arrive as
// numbers and dates as serial numbers
func (s *SheetsSource) Load(ctx context.Context) (*Document, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.service.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.Range).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.WarnContext(ctx, "sheets fetch failed",
			slog.String("spreadsheet_id", s.cfg.SpreadsheetID),
			slog.String("range", s.cfg.Range),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to fetch %s!%s: %w", s.cfg.SpreadsheetID, s.cfg.Range, err)
	}

	table, err := dataprocessing.TableFromValues(resp.Range, resp.Values)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet range %s: %w", resp.Range, err)
	}

	s.logger.InfoContext(ctx, "sheets range fetched",
		slog.String("spreadsheet_id", s.cfg.SpreadsheetID),
		slog.String("range", resp.Range),
		slog.Int("rows", table.Len()),
		slog.Duration("duration", time.Since(start)))

	return &Document{
		Name:  "sheets:" + s.cfg.SpreadsheetID,
		Kind:  KindSheets,
		Table: table,
	}, nil
}
