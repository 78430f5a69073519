package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salesbi/pkg/contracts/domain"
)

func TestDedupeByInvoice(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.Transaction
		want  []int
	}{
		{
			name: "keeps first line of each invoice",
			input: []domain.Transaction{
				{InvoiceNumber: "A", Row: 1},
				{InvoiceNumber: "A", Row: 2},
				{InvoiceNumber: "B", Row: 1},
			},
			want: []int{1, 1},
		},
		{
			name: "interleaved invoices keep input order",
			input: []domain.Transaction{
				{InvoiceNumber: "B", Row: 10},
				{InvoiceNumber: "A", Row: 11},
				{InvoiceNumber: "B", Row: 12},
				{InvoiceNumber: "C", Row: 13},
			},
			want: []int{10, 11, 13},
		},
		{
			name: "blank invoice numbers collapse",
			input: []domain.Transaction{
				{InvoiceNumber: "", Row: 1},
				{InvoiceNumber: "", Row: 2},
			},
			want: []int{1},
		},
		{
			name:  "empty",
			input: nil,
			want:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupeByInvoice(tt.input)
			assert.NotNil(t, got)
			rows := make([]int, 0, len(got))
			for _, tx := range got {
				rows = append(rows, tx.Row)
			}
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestDedupeByInvoiceInvoiceCounts(t *testing.T) {
	lines := []domain.Transaction{
		{InvoiceNumber: "A", NetAmount: 100},
		{InvoiceNumber: "A", NetAmount: 100},
		{InvoiceNumber: "A", NetAmount: 100},
		{InvoiceNumber: "B", NetAmount: 50},
	}

	invoices := DedupeByInvoice(lines)
	assert.Len(t, invoices, 2)

	var total float64
	for _, tx := range invoices {
		total += tx.NetAmount
	}
	assert.Equal(t, 150.0, total)
}
