package dataprocessing

import (
	"fmt"
	"strings"
	"time"

	"salesbi/pkg/contracts/domain"
)

// View is the slice of a dataset one request reports on
type View struct {
	// All is the unfiltered dataset, the base of positivation and churn
	All []domain.Transaction
	// History is the dataset narrowed only by who the request is about
	// (salesperson, region, customer), never by time
	History []domain.Transaction
	// Lines are the transactions matching every criterion
	Lines []domain.Transaction
	// Invoices holds the first line of each invoice in Lines
	Invoices []domain.Transaction
	Criteria FilterCriteria
}

// NewView applies criteria to the dataset transactions
func NewView(txs []domain.Transaction, criteria FilterCriteria) View {
	lines := ApplyFilters(txs, criteria)
	return View{
		All:      txs,
		History:  ApplyFilters(txs, criteria.Scope()),
		Lines:    lines,
		Invoices: DedupeByInvoice(lines),
		Criteria: criteria,
	}
}

// ReportOptions carries what reports need beyond the view
type ReportOptions struct {
	Rules        Rules
	Now          time.Time
	Limit        int
	SuggestLimit int
	WithCatalog  bool
}

// ParseReportType resolves a report name such as "revenue_by_region" or
// "revenue-by-region"
func ParseReportType(name string) (domain.ReportType, error) {
	normalized := domain.ReportType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	for _, rt := range domain.AllReportTypes {
		if rt == normalized {
			return rt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReport, name)
}

// Compute builds one report over the view. The result is the report's row
// slice, or domain.Summary for the summary report.
func Compute(report domain.ReportType, view View, opts ReportOptions) (any, error) {
	switch report {
	case domain.ReportSummary:
		return Summarize(view.Lines, view.Invoices, opts.WithCatalog), nil
	case domain.ReportRevenueByPeriod:
		return RevenueByPeriod(view.Invoices), nil
	case domain.ReportRevenueByRegion:
		return RevenueByRegion(view.Invoices, opts.Limit), nil
	case domain.ReportPositivation:
		return Positivation(view.All, view.Lines), nil
	case domain.ReportPositivationRegion:
		return PositivationByRegion(view.All, view.Lines), nil
	case domain.ReportChurn:
		return Churn(view.All, view.Lines), nil
	case domain.ReportSalespersonRanking:
		return RankSalespeople(view.Invoices, opts.Limit), nil
	case domain.ReportCustomerRanking:
		return RankCustomers(view.Invoices, opts.Limit), nil
	case domain.ReportCustomerHistory:
		return CustomerHistory(view.History, view.Criteria.CustomerSearch), nil
	case domain.ReportAging:
		return AgeReceivables(view.Lines, opts.Now, opts.Rules), nil
	case domain.ReportAgingSummary:
		return SummarizeAging(AgeReceivables(view.Lines, opts.Now, opts.Rules), opts.Rules), nil
	case domain.ReportPriceTrend:
		return AveragePriceTrend(view.Lines), nil
	case domain.ReportCommission:
		return CommissionSummary(view.Lines), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReport, report)
	}
}
