package dataprocessing

import (
	"salesbi/pkg/contracts/domain"
)

// DedupeByInvoice keeps the first line of every invoice number, in input
// order. Invoice-level totals and counts must be computed on its output;
// summing the raw lines counts multi-line invoices more than once.
func DedupeByInvoice(txs []domain.Transaction) []domain.Transaction {
	seen := make(map[string]struct{}, len(txs))
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, dup := seen[tx.InvoiceNumber]; dup {
			continue
		}
		seen[tx.InvoiceNumber] = struct{}{}
		out = append(out, tx)
	}
	return out
}
