package exporter

import (
	"fmt"
	"strconv"

	"salesbi/internal/dataprocessing"
	"salesbi/pkg/contracts/domain"
)

// Table is a report flattened to a header row and cell rows. Cells hold
// string, float64, int, bool or time.Time values.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Len returns the number of data rows
func (t Table) Len() int {
	return len(t.Rows)
}

// BuildTable flattens the result of dataprocessing.Compute for report
func BuildTable(report domain.ReportType, data any) (Table, error) {
	t := Table{Name: string(report)}
	switch rows := data.(type) {
	case domain.Summary:
		t.Headers = []string{"Metric", "Value"}
		t.Rows = [][]any{
			{"Net revenue", rows.NetRevenue},
			{"Gross sale revenue", rows.GrossSaleRevenue},
			{"Returns", rows.ReturnsTotal},
			{"Invoices", rows.InvoiceCount},
			{"Lines", rows.LineCount},
			{"Customers", rows.CustomerCount},
			{"Average ticket", rows.AverageTicket},
			{"Uncatalogued lines", rows.UncataloguedCount},
		}
	case []domain.PeriodRevenue:
		t.Headers = []string{"Period", "Net Revenue", "Invoices"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.Period, r.NetRevenue, r.InvoiceCount})
		}
	case []domain.GroupRevenue:
		t.Headers = []string{groupHeader(report), "Net Revenue", "Invoices"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.Key, r.NetRevenue, r.InvoiceCount})
		}
	case []domain.CustomerRanking:
		t.Headers = []string{"Customer ID", "Customer", "City", "Region", "Net Revenue", "Invoices"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.CustomerID, r.CustomerName, r.City, r.Region, r.NetRevenue, r.InvoiceCount})
		}
	case []domain.PositivationRow:
		t.Headers = []string{groupHeader(report), "Reached", "Customer Base", "Coverage %"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.Key, r.Reached, r.TotalBase, r.Percentage})
		}
	case []domain.ChurnRow:
		t.Headers = []string{"Customer ID", "Customer", "City", "Region", "Last Salesperson", "Last Purchase", "Historical Value"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.CustomerID, r.CustomerName, r.City, r.Region, r.LastSalesperson, r.LastPurchaseDate, r.HistoricalValue})
		}
	case []domain.Transaction:
		return TransactionTable(string(report), rows), nil
	case []domain.Receivable:
		t.Headers = []string{"Invoice", "Customer ID", "Customer", "Salesperson", "Bank", "Issue Date", "Due Date", "Installment", "Amount", "Days Overdue", "Bucket"}
		for _, r := range rows {
			installment := strconv.Itoa(r.Installment) + "/" + strconv.Itoa(r.Installments)
			t.Rows = append(t.Rows, []any{r.InvoiceNumber, r.CustomerID, r.CustomerName, r.Salesperson, r.Bank, r.IssueDate, r.DueDate, installment, r.Amount, r.DaysOverdue, r.Bucket})
		}
	case []domain.AgingBucketTotal:
		t.Headers = []string{"Bucket", "Receivables", "Amount"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.Bucket, r.Count, r.Amount})
		}
	case []domain.PricePoint:
		t.Headers = []string{"Product Code", "Product", "Period", "Average Price", "Quantity", "Lines"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.ProductCode, r.ProductName, r.Period, r.AveragePrice, r.Quantity, r.LineCount})
		}
	case []domain.CommissionRow:
		t.Headers = []string{"Salesperson", "Tier", "Rate %", "Sale Value", "Commission", "Lines"}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.Salesperson, r.Tier.Label(), r.Rate, r.SaleValue, r.CommissionAmount, r.LineCount})
		}
	default:
		return Table{}, fmt.Errorf("%w: no table layout for %s (%T)", dataprocessing.ErrUnknownReport, report, data)
	}
	return t, nil
}

// TransactionTable lists transaction lines with their derived fields
func TransactionTable(name string, txs []domain.Transaction) Table {
	t := Table{
		Name: name,
		Headers: []string{
			"Invoice", "Issue Date", "Movement", "Customer ID", "Customer", "City", "Region",
			"Salesperson", "Product Code", "Product", "Quantity", "Unit Price", "Gross Amount",
			"Net Amount", "Settlement Terms", "Commission Tier", "Catalogued",
		},
		Rows: make([][]any, 0, len(txs)),
	}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []any{
			tx.InvoiceNumber, tx.IssueDate, tx.MovementLabel, tx.CustomerID, tx.CustomerName, tx.City, tx.Region,
			tx.Salesperson, tx.ProductCode, tx.ProductName, tx.Quantity, tx.UnitPrice, tx.GrossAmount,
			tx.NetAmount, tx.SettlementTermsLabel(), tx.CommissionTier.Label(), tx.Catalogued,
		})
	}
	return t
}

func groupHeader(report domain.ReportType) string {
	switch report {
	case domain.ReportRevenueByRegion, domain.ReportPositivationRegion:
		return "Region"
	case domain.ReportSalespersonRanking, domain.ReportPositivation:
		return "Salesperson"
	default:
		return "Group"
	}
}
