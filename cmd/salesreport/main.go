package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"salesbi/internal/config"
	"salesbi/internal/dataprocessing"
	"salesbi/internal/exporter"
	"salesbi/internal/files"
	"salesbi/internal/infrastructure"
	"salesbi/internal/middleware"
	"salesbi/internal/services"
	"salesbi/pkg/contracts/domain"
)

// options are the parsed command line flags
type options struct {
	in      string
	ref     string
	out     string
	sheet   string
	lines   string
	reports []domain.ReportType
	params  services.ReportParams
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read .env file", slog.String("error", err.Error()))
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Invalid arguments", slog.String("error", err.Error()))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load configuration, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	out, err := run(context.Background(), opts, cfg, logger, time.Now())
	if err != nil {
		logger.Error("Report export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Report written", slog.String("path", out))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts    options
		reports string
	)
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.in, "in", "", "sales spreadsheet (.xlsx, .xls or .csv) or a directory holding them (defaults to the configured source)")
	fs.StringVar(&opts.ref, "ref", "", "product reference spreadsheet (defaults to the configured reference file)")
	fs.StringVar(&opts.out, "out", "", "output file; .xlsx writes a workbook, .csv writes one report (defaults to sales-report-YYYYMMDD.xlsx)")
	fs.StringVar(&opts.sheet, "sheet", "", "workbook sheet to read (blank auto-detects)")
	fs.StringVar(&opts.lines, "lines", "", "also write the filtered transaction lines to this CSV file")
	fs.StringVar(&reports, "reports", "", "comma separated reports to export (defaults to all)")
	fs.StringVar(&opts.params.DateFrom, "from", "", "first issue date, YYYY-MM-DD")
	fs.StringVar(&opts.params.DateTo, "to", "", "last issue date, YYYY-MM-DD")
	fs.StringVar(&opts.params.Salesperson, "salesperson", "", "salesperson filter")
	fs.StringVar(&opts.params.Region, "region", "", "region filter")
	fs.IntVar(&opts.params.Month, "month", 0, "month filter, 1-12")
	fs.IntVar(&opts.params.Year, "year", 0, "year filter")
	fs.StringVar(&opts.params.Customer, "customer", "", "customer name or tax id search")
	fs.IntVar(&opts.params.Limit, "top", 0, "size of the ranking reports (defaults to the configured top N)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	for _, name := range strings.Split(reports, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		report, err := dataprocessing.ParseReportType(name)
		if err != nil {
			return opts, err
		}
		opts.reports = append(opts.reports, report)
	}
	return opts, nil
}

// run loads the dataset, writes the requested export and returns its path
func run(ctx context.Context, opts options, cfg *config.Config, logger *slog.Logger, now time.Time) (string, error) {
	if err := middleware.NewValidator().Struct(opts.params); err != nil {
		return "", fmt.Errorf("invalid filters: %w", err)
	}

	source, err := salesSource(opts, cfg.Source)
	if err != nil {
		return "", err
	}

	var svcOpts []services.ReportServiceOption
	ref := opts.ref
	if ref == "" {
		ref = cfg.Source.ReferencePath
	}
	if ref != "" {
		svcOpts = append(svcOpts, services.WithReference(files.NewFileSource(ref, "", "")))
	}

	processor := dataprocessing.NewProcessor(dataprocessing.RulesFromConfig(cfg.Analytics), logger, nil)
	svc := services.NewReportService(source, processor, services.ReportServiceConfig{
		DefaultTopN:  cfg.Analytics.DefaultTopN,
		SuggestLimit: cfg.Analytics.SuggestLimit,
	}, logger, svcOpts...)

	info, err := svc.Info(ctx)
	if err != nil {
		return "", err
	}
	logger.Info("Dataset loaded",
		slog.String("source", info.Source),
		slog.Int("rows", info.Rows),
		slog.Int("issues", info.IssueCount),
	)

	out := opts.out
	if out == "" {
		out = fmt.Sprintf("%s-%s.xlsx", config.ExportFilePrefix, now.Format("20060102"))
	}
	if err := export(ctx, svc, out, opts); err != nil {
		return "", err
	}

	if opts.lines != "" {
		if err := writeLines(ctx, svc, opts.lines, opts.params); err != nil {
			return "", err
		}
	}

	summary, err := svc.Summary(ctx, opts.params)
	if err != nil {
		return "", err
	}
	logger.Info("Sales summary",
		slog.Float64("net_revenue", summary.Summary.NetRevenue),
		slog.Int("invoices", summary.Summary.InvoiceCount),
		slog.Int("customers", summary.Summary.CustomerCount),
		slog.Float64("average_ticket", summary.Summary.AverageTicket),
	)
	return out, nil
}

// salesSource reads -in as a file or a directory, falling back to the
// configured source
func salesSource(opts options, cfg config.SourceConfig) (files.Source, error) {
	sheet := opts.sheet
	if sheet == "" {
		sheet = cfg.Sheet
	}
	if opts.in == "" {
		if cfg.Path == "" && cfg.Dir == "" {
			return nil, errors.New("no input: pass -in or configure a data file")
		}
		return files.NewFileSource(cfg.Path, cfg.Dir, sheet), nil
	}
	st, err := os.Stat(opts.in)
	if err != nil {
		return nil, fmt.Errorf("input not found: %w", err)
	}
	if st.IsDir() {
		return files.NewFileSource("", opts.in, sheet), nil
	}
	return files.NewFileSource(opts.in, "", sheet), nil
}

func export(ctx context.Context, svc *services.ReportService, out string, opts options) error {
	ext := strings.ToLower(filepath.Ext(out))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("unsupported output %q: use .xlsx or .csv", out)
	}
	if ext == ".csv" && len(opts.reports) != 1 {
		return fmt.Errorf("a .csv output holds exactly one report, got %d", len(opts.reports))
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if ext == ".csv" {
		err = svc.ExportCSV(ctx, f, string(opts.reports[0]), opts.params)
	} else {
		err = svc.ExportWorkbook(ctx, f, opts.params, opts.reports...)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return err
	}
	return nil
}

// writeLines streams the filtered transaction lines to path
func writeLines(ctx context.Context, svc *services.ReportService, path string, params services.ReportParams) error {
	ds, err := svc.Dataset(ctx)
	if err != nil {
		return err
	}
	criteria, err := params.Criteria()
	if err != nil {
		return err
	}
	table := exporter.TransactionTable("lines", dataprocessing.ApplyFilters(ds.Transactions, criteria))

	sw, err := exporter.NewCSVWriter("").CreateStreamWriter(path, table.Headers)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := sw.WriteRow(row); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write line: %w", err)
		}
	}
	return sw.Close()
}
