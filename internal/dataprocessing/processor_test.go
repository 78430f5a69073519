package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesbi/internal/config"
	"salesbi/pkg/contracts/domain"
)

type recordedRun struct {
	source                        string
	rows, malformed, uncatalogued int
}

type fakeMetrics struct {
	runs []recordedRun
}

func (m *fakeMetrics) RecordPipelineRun(_ context.Context, source string, rows, malformed, uncatalogued int, _ time.Duration) {
	m.runs = append(m.runs, recordedRun{source: source, rows: rows, malformed: malformed, uncatalogued: uncatalogued})
}

func salesTable(rows ...[]string) *RawTable {
	return &RawTable{
		Sheet:   "Vendas",
		Headers: []string{"Numero_NF", "TipoMov", "DataEmissao", "TotalProduto", "CPF_CNPJ", "CodigoProduto", "PrecoUnit", "DataVencimento"},
		Rows:    rows,
	}
}

func TestProcessor_Process(t *testing.T) {
	metrics := &fakeMetrics{}
	p := NewProcessor(DefaultRules(), slog.Default(), metrics)
	catalog := NewCatalog([]CatalogProduct{{Code: "3", ReferencePrice: 100, Group: "Biscoitos"}})

	table := salesTable(
		[]string{"1001", "NF Venda", "18/12/2025", "1.060,00", "111", "3.0", "106", "2026-01-15;2026-01-22"},
		[]string{"", "", "", "", "", "", "", ""},
		[]string{"1002", "NF Dev.Venda", "ontem", "150", "222", "77", "10", ""},
	)

	ds, err := p.Process(context.Background(), "vendas.xlsx", table, catalog)
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "vendas.xlsx", ds.Source)
	assert.Equal(t, "Vendas", ds.Sheet)
	assert.True(t, ds.HasCatalog)
	assert.True(t, ds.HasDueDates)
	assert.Empty(t, ds.MissingColumns)
	require.Len(t, ds.Transactions, 2, "blank rows are skipped")

	sale := ds.Transactions[0]
	assert.Equal(t, 2, sale.Row)
	assert.Equal(t, []int{28, 35}, sale.SettlementTerms)
	assert.Equal(t, domain.CommissionTier4, sale.CommissionTier)
	assert.Equal(t, "Biscoitos", sale.ProductName)

	ret := ds.Transactions[1]
	assert.Equal(t, 4, ret.Row)
	assert.Equal(t, -150.0, ret.NetAmount)

	require.Len(t, ds.Issues, 1)
	assert.Equal(t, 4, ds.Issues[0].Row)
	assert.ErrorIs(t, ds.Issues[0], ErrInvalidDate)
	assert.Equal(t, 1, ds.UncataloguedCount)
	assert.Equal(t, "77", ds.Uncatalogued[0].ProductCode)

	require.Len(t, metrics.runs, 1)
	assert.Equal(t, recordedRun{source: "vendas.xlsx", rows: 2, malformed: 1, uncatalogued: 1}, metrics.runs[0])

	info := ds.Info()
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, 2, info.Invoices)
	assert.Equal(t, 1, info.IssueCount)
	assert.Empty(t, info.MissingColumns)
}

func TestProcessor_DisplayNumbers(t *testing.T) {
	p := NewProcessor(DefaultRules(), slog.Default(), nil)
	row := []string{"1001", "NF Venda", "18/12/2025", "1.060", "111", "3", "106", ""}

	raw, err := p.Process(context.Background(), "vendas.xlsx", salesTable(row), nil)
	require.NoError(t, err)
	require.Len(t, raw.Transactions, 1)
	assert.InDelta(t, 1.06, raw.Transactions[0].NetAmount, 1e-9)

	table := salesTable(row)
	table.Numbers = NumbersDisplay
	text, err := p.Process(context.Background(), "vendas.csv", table, nil)
	require.NoError(t, err)
	require.Len(t, text.Transactions, 1)
	assert.InDelta(t, 1060.0, text.Transactions[0].NetAmount, 1e-9)
}

func TestProcessor_IssuesAreCapped(t *testing.T) {
	p := NewProcessor(DefaultRules(), nil, nil)

	var rows [][]string
	for i := 0; i < config.MaxReportedIssues+20; i++ {
		rows = append(rows, []string{fmt.Sprint(i), "NF Venda", "nunca", "10", "1", "", "", ""})
	}

	ds, err := p.Process(context.Background(), "big.csv", salesTable(rows...), nil)
	require.NoError(t, err)
	assert.Len(t, ds.Transactions, config.MaxReportedIssues+20)
	assert.Len(t, ds.Issues, config.MaxReportedIssues)
	assert.Equal(t, config.MaxReportedIssues+20, ds.IssueCount)
	assert.False(t, ds.HasCatalog)
	assert.Zero(t, ds.UncataloguedCount, "no catalogue means nothing is reported missing")
}

func TestProcessor_MissingColumns(t *testing.T) {
	p := NewProcessor(DefaultRules(), nil, nil)
	table := &RawTable{Headers: []string{"Numero_NF", "Vendedor"}, Rows: [][]string{{"1", "ANA"}}}

	ds, err := p.Process(context.Background(), "partial.csv", table, nil)
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldMovementType, FieldIssueDate, FieldGrossAmount, FieldCustomerID}, ds.MissingColumns)
	assert.False(t, ds.HasDueDates)
	assert.Len(t, ds.Transactions, 1)
}

func TestProcessor_Errors(t *testing.T) {
	p := NewProcessor(DefaultRules(), nil, nil)

	_, err := p.Process(context.Background(), "x", nil, nil)
	assert.ErrorIs(t, err, ErrNoHeader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, "x", salesTable([]string{"1"}), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
