package dataprocessing

import (
	"sort"
	"time"

	"salesbi/pkg/contracts/domain"
)

// AgeReceivables lists one open installment per sale invoice and due date.
// The invoice value is the sum of its sale lines split evenly over its due
// dates. Invoices with a payment date are settled and skipped. now is read
// once by the caller so every row is bucketed against the same day.
func AgeReceivables(lines []domain.Transaction, now time.Time, rules Rules) []domain.Receivable {
	type invoice struct {
		first   domain.Transaction
		total   float64
		due     []time.Time
		settled bool
	}
	index := make(map[string]*invoice)
	var invoices []*invoice
	for _, tx := range lines {
		if !tx.IsSale() {
			continue
		}
		inv, ok := index[tx.InvoiceNumber]
		if !ok {
			inv = &invoice{first: tx}
			index[tx.InvoiceNumber] = inv
			invoices = append(invoices, inv)
		}
		inv.total += tx.GrossSaleAmount
		if len(inv.due) == 0 && len(tx.DueDates) > 0 {
			inv.due = tx.DueDates
		}
		if tx.IsSettled() {
			inv.settled = true
		}
	}

	today := midnight(now)
	rows := make([]domain.Receivable, 0, len(invoices))
	for _, inv := range invoices {
		if inv.settled || len(inv.due) == 0 {
			continue
		}
		n := len(inv.due)
		share := round2(inv.total / float64(n))
		for i, due := range inv.due {
			amount := share
			if i == n-1 {
				amount = round2(inv.total - share*float64(n-1))
			}
			days := daysBetween(midnight(due), today)
			if days < 0 {
				days = 0
			}
			rows = append(rows, domain.Receivable{
				InvoiceNumber: inv.first.InvoiceNumber,
				CustomerID:    customerKey(inv.first),
				CustomerName:  inv.first.CustomerName,
				Salesperson:   keyOrUnspecified(inv.first.Salesperson),
				Bank:          inv.first.Bank,
				IssueDate:     inv.first.IssueDate,
				DueDate:       midnight(due),
				Installment:   i + 1,
				Installments:  n,
				Amount:        amount,
				DaysOverdue:   days,
				Bucket:        AgingBucket(days, rules.AgingBoundaries),
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DaysOverdue > rows[j].DaysOverdue })
	return rows
}

// SummarizeAging totals receivables per bucket, listing every bucket in
// ascending order including empty ones
func SummarizeAging(receivables []domain.Receivable, rules Rules) []domain.AgingBucketTotal {
	labels := AgingBucketLabels(rules.AgingBoundaries)
	totals := make([]domain.AgingBucketTotal, len(labels))
	position := make(map[string]int, len(labels))
	for i, label := range labels {
		totals[i].Bucket = label
		position[label] = i
	}
	for _, r := range receivables {
		i, ok := position[r.Bucket]
		if !ok {
			continue
		}
		totals[i].Count++
		totals[i].Amount += r.Amount
	}
	for i := range totals {
		totals[i].Amount = round2(totals[i].Amount)
	}
	return totals
}
