package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"salesbi/pkg/contracts/domain"
)

func filterFixture() []domain.Transaction {
	rows := []domain.Transaction{
		{Row: 1, InvoiceNumber: "1", IssueDate: ymd(2025, time.November, 3), Salesperson: "ANA", Region: "SP", CustomerName: "Mercado São João", CustomerID: "12.345.678/0001-90"},
		{Row: 2, InvoiceNumber: "2", IssueDate: ymd(2025, time.December, 18), Salesperson: "BRUNO", Region: "MG", CustomerName: "Padaria Central", CustomerID: "98765432000111"},
		{Row: 3, InvoiceNumber: "3", IssueDate: ymd(2026, time.January, 5), Salesperson: "ANA", Region: "MG", CustomerName: "Açougue Boi Gordo", CustomerID: "11122233344"},
		{Row: 4, InvoiceNumber: "4", Salesperson: "ANA", Region: "SP", CustomerName: "Sem Data", CustomerID: "55"},
	}
	for i := range rows {
		rows[i], _ = Derive(rows[i], nil, DefaultRules())
	}
	return rows
}

func rowsOf(txs []domain.Transaction) []int {
	rows := make([]int, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, tx.Row)
	}
	return rows
}

func TestApplyFilters(t *testing.T) {
	txs := filterFixture()

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []int
	}{
		{name: "no criteria", criteria: FilterCriteria{}, want: []int{1, 2, 3, 4}},
		{name: "salesperson", criteria: FilterCriteria{Salesperson: "ANA"}, want: []int{1, 3, 4}},
		{name: "region", criteria: FilterCriteria{Region: "MG"}, want: []int{2, 3}},
		{name: "date range inclusive", criteria: FilterCriteria{DateFrom: ymd(2025, time.December, 18), DateTo: ymd(2026, time.January, 5)}, want: []int{2, 3}},
		{name: "open start", criteria: FilterCriteria{DateTo: ymd(2025, time.December, 1)}, want: []int{1}},
		{name: "open end", criteria: FilterCriteria{DateFrom: ymd(2026, time.January, 1)}, want: []int{3}},
		{name: "bounds with time of day", criteria: FilterCriteria{DateFrom: time.Date(2025, time.December, 18, 23, 0, 0, 0, time.UTC), DateTo: time.Date(2025, time.December, 18, 1, 0, 0, 0, time.UTC)}, want: []int{2}},
		{name: "inverted range", criteria: FilterCriteria{DateFrom: ymd(2026, time.January, 5), DateTo: ymd(2025, time.November, 3)}, want: []int{}},
		{name: "month", criteria: FilterCriteria{Month: 12}, want: []int{2}},
		{name: "year", criteria: FilterCriteria{Year: 2025}, want: []int{1, 2}},
		{name: "composed", criteria: FilterCriteria{Salesperson: "ANA", Region: "MG", Year: 2026}, want: []int{3}},
		{name: "customer accent insensitive", criteria: FilterCriteria{CustomerSearch: "sao joao"}, want: []int{1}},
		{name: "customer case insensitive", criteria: FilterCriteria{CustomerSearch: "AÇOUGUE"}, want: []int{3}},
		{name: "customer tax id digits", criteria: FilterCriteria{CustomerSearch: "12345678"}, want: []int{1}},
		{name: "customer tax id punctuated", criteria: FilterCriteria{CustomerSearch: "98.765"}, want: []int{2}},
		{name: "blank customer search", criteria: FilterCriteria{CustomerSearch: "   "}, want: []int{1, 2, 3, 4}},
		{name: "no match", criteria: FilterCriteria{Salesperson: "CARLA"}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(txs, tt.criteria)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, rowsOf(got))
		})
	}
}

func TestApplyFiltersComposes(t *testing.T) {
	txs := filterFixture()
	a := FilterCriteria{Salesperson: "ANA"}
	b := FilterCriteria{Year: 2026}

	stepwise := ApplyFilters(ApplyFilters(txs, a), b)
	combined := ApplyFilters(txs, FilterCriteria{Salesperson: "ANA", Year: 2026})
	assert.Equal(t, rowsOf(combined), rowsOf(stepwise))
}

func TestApplyFiltersDoesNotAlias(t *testing.T) {
	txs := filterFixture()
	got := ApplyFilters(txs, FilterCriteria{})
	got[0].Salesperson = "CHANGED"
	assert.Equal(t, "ANA", txs[0].Salesperson)
}

func TestFilterCriteriaScope(t *testing.T) {
	c := FilterCriteria{
		DateFrom:       ymd(2025, time.January, 1),
		DateTo:         ymd(2025, time.December, 31),
		Month:          3,
		Year:           2025,
		Salesperson:    "ANA",
		Region:         "SP",
		CustomerSearch: "mercado",
	}
	scope := c.Scope()

	assert.False(t, scope.HasPeriod())
	assert.True(t, c.HasPeriod())
	assert.Equal(t, "ANA", scope.Salesperson)
	assert.Equal(t, "SP", scope.Region)
	assert.Equal(t, "mercado", scope.CustomerSearch)
	assert.True(t, FilterCriteria{}.IsEmpty())
	assert.False(t, scope.IsEmpty())
}

func TestFilterCriteriaMatches(t *testing.T) {
	tx := filterFixture()[1]
	assert.True(t, FilterCriteria{Region: "MG"}.Matches(tx))
	assert.False(t, FilterCriteria{Region: "SP"}.Matches(tx))
	assert.False(t, FilterCriteria{DateFrom: ymd(2026, time.January, 1), DateTo: ymd(2025, time.January, 1)}.Matches(tx))
}
