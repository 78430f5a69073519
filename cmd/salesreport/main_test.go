package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesbi/internal/config"
	"salesbi/internal/dataprocessing"
	"salesbi/internal/shared/testutil"
	"salesbi/pkg/contracts/domain"
)

var fixedNow = time.Date(2026, 1, 18, 10, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Source.Dir = ""
	cfg.Source.Path = ""
	return cfg
}

func testLogger(t *testing.T) *slog.Logger {
	logger, _ := testutil.NewTestLogger(t)
	return logger
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{
		"-in", "vendas.xlsx",
		"-ref", "referencia.csv",
		"-from", "2025-11-01",
		"-to", "2025-12-31",
		"-salesperson", "ANA",
		"-month", "12",
		"-top", "5",
		"-reports", "summary, salesperson-ranking",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "vendas.xlsx", opts.in)
	assert.Equal(t, "referencia.csv", opts.ref)
	assert.Equal(t, "2025-11-01", opts.params.DateFrom)
	assert.Equal(t, "2025-12-31", opts.params.DateTo)
	assert.Equal(t, "ANA", opts.params.Salesperson)
	assert.Equal(t, 12, opts.params.Month)
	assert.Equal(t, 5, opts.params.Limit)
	assert.Equal(t, []domain.ReportType{domain.ReportSummary, domain.ReportSalespersonRanking}, opts.reports)
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown report", []string{"-reports", "forecast"}},
		{"bad number", []string{"-month", "dec"}},
		{"stray argument", []string{"-in", "a.csv", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}

	_, err := parseFlags([]string{"-reports", "forecast"}, io.Discard)
	assert.ErrorIs(t, err, dataprocessing.ErrUnknownReport)
}

func TestRunWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		in:      testutil.WriteSalesCSV(t, dir),
		ref:     testutil.WriteReferenceCSV(t, dir),
		out:     filepath.Join(dir, "out", "report.xlsx"),
		reports: []domain.ReportType{domain.ReportSummary, domain.ReportRevenueByPeriod},
	}

	out, err := run(context.Background(), opts, testConfig(), testLogger(t), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, opts.out, out)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"summary", "revenue_by_period"}, f.GetSheetList())
}

func TestRunDefaultOutputName(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteSalesCSV(t, dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	out, err := run(context.Background(), options{in: in}, testConfig(), testLogger(t), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "sales-report-20260118.xlsx", out)
	assert.FileExists(t, filepath.Join(dir, out))
}

func TestRunWritesCSVAndLines(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		in:      dir,
		out:     filepath.Join(dir, "ranking.csv"),
		lines:   filepath.Join(dir, "lines.csv"),
		reports: []domain.ReportType{domain.ReportSalespersonRanking},
	}
	testutil.WriteSalesCSV(t, dir)
	opts.params.Salesperson = "ANA"

	_, err := run(context.Background(), opts, testConfig(), testLogger(t), fixedNow)
	require.NoError(t, err)

	ranking := readCSV(t, opts.out)
	require.Len(t, ranking, 2)
	assert.Contains(t, ranking[1], "ANA")

	lines := readCSV(t, opts.lines)
	require.Len(t, lines, 4)
	assert.Equal(t, "Invoice", lines[0][0])
	for _, line := range lines[1:] {
		assert.Contains(t, line, "ANA")
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteSalesCSV(t, dir)

	tests := []struct {
		name string
		opts options
	}{
		{
			name: "missing input",
			opts: options{in: filepath.Join(dir, "missing.csv"), out: filepath.Join(dir, "a.xlsx")},
		},
		{
			name: "invalid month",
			opts: func() options {
				o := options{in: in, out: filepath.Join(dir, "b.xlsx")}
				o.params.Month = 13
				return o
			}(),
		},
		{
			name: "unsupported output",
			opts: options{in: in, out: filepath.Join(dir, "c.pdf")},
		},
		{
			name: "csv needs one report",
			opts: options{in: in, out: filepath.Join(dir, "d.csv")},
		},
		{
			name: "no input configured",
			opts: options{out: filepath.Join(dir, "e.xlsx")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(context.Background(), tt.opts, testConfig(), testLogger(t), fixedNow)
			require.Error(t, err)
			assert.NoFileExists(t, tt.opts.out)
		})
	}
}
