package domain

import (
	"time"
)

// UnspecifiedKey groups rows whose grouping field is blank so totals still
// reconcile with the unaggregated sum.
const UnspecifiedKey = "Unspecified"

// ReportType names a report table
type ReportType string

const (
	ReportSummary            ReportType = "summary"
	ReportRevenueByPeriod    ReportType = "revenue_by_period"
	ReportRevenueByRegion    ReportType = "revenue_by_region"
	ReportPositivation       ReportType = "positivation"
	ReportPositivationRegion ReportType = "positivation_by_region"
	ReportChurn              ReportType = "churn"
	ReportSalespersonRanking ReportType = "salesperson_ranking"
	ReportCustomerRanking    ReportType = "customer_ranking"
	ReportCustomerHistory    ReportType = "customer_history"
	ReportAging              ReportType = "aging"
	ReportAgingSummary       ReportType = "aging_summary"
	ReportPriceTrend         ReportType = "price_trend"
	ReportCommission         ReportType = "commission"
)

// AllReportTypes lists the report tables in export order
var AllReportTypes = []ReportType{
	ReportSummary,
	ReportRevenueByPeriod,
	ReportRevenueByRegion,
	ReportPositivation,
	ReportPositivationRegion,
	ReportChurn,
	ReportSalespersonRanking,
	ReportCustomerRanking,
	ReportCustomerHistory,
	ReportAging,
	ReportAgingSummary,
	ReportPriceTrend,
	ReportCommission,
}

// Summary holds the headline KPIs of the filtered window.
// metric: net for NetRevenue, gross sale-only for GrossSaleRevenue.
type Summary struct {
	NetRevenue        float64 `json:"net_revenue"`
	GrossSaleRevenue  float64 `json:"gross_sale_revenue"`
	ReturnsTotal      float64 `json:"returns_total"`
	InvoiceCount      int     `json:"invoice_count"`
	LineCount         int     `json:"line_count"`
	CustomerCount     int     `json:"customer_count"`
	AverageTicket     float64 `json:"average_ticket"`
	UncataloguedCount int     `json:"uncatalogued_count"`
}

// FilterOptions lists the distinct values offered by the filter controls
type FilterOptions struct {
	Salespeople []string `json:"salespeople"`
	Regions     []string `json:"regions"`
	Years       []int    `json:"years"`
}

// PeriodRevenue is one point of the revenue time series. metric: net.
type PeriodRevenue struct {
	Period       string  `json:"period"`
	NetRevenue   float64 `json:"net_revenue"`
	InvoiceCount int     `json:"invoice_count"`
}

// GroupRevenue is one row of a region or salesperson ranking. metric: net.
type GroupRevenue struct {
	Key          string  `json:"key"`
	NetRevenue   float64 `json:"net_revenue"`
	InvoiceCount int     `json:"invoice_count"`
}

// CustomerRanking is one row of the customer ranking. metric: net.
type CustomerRanking struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	City         string  `json:"city"`
	Region       string  `json:"region"`
	NetRevenue   float64 `json:"net_revenue"`
	InvoiceCount int     `json:"invoice_count"`
}

// CustomerRef identifies a customer inside another report row
type CustomerRef struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	City         string `json:"city"`
	Region       string `json:"region"`
}

// ReachedCustomer is a customer with at least one sale in the window.
// metric: gross sale-only.
type ReachedCustomer struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	City         string  `json:"city"`
	Region       string  `json:"region"`
	SaleValue    float64 `json:"sale_value"`
}

// PositivationRow is the customer coverage of one salesperson or region
type PositivationRow struct {
	Key        string            `json:"key"`
	Reached    int               `json:"reached"`
	TotalBase  int               `json:"total_base"`
	Percentage float64           `json:"percentage"`
	Customers  []ReachedCustomer `json:"customers"`
}

// ChurnRow is a historical customer without sales in the filter window.
// metric: gross sale-only for HistoricalValue.
type ChurnRow struct {
	CustomerID       string    `json:"customer_id"`
	CustomerName     string    `json:"customer_name"`
	City             string    `json:"city"`
	Region           string    `json:"region"`
	LastSalesperson  string    `json:"last_salesperson"`
	LastPurchaseDate time.Time `json:"last_purchase_date"`
	HistoricalValue  float64   `json:"historical_value"`
}

// Receivable is one open installment of a sale invoice
type Receivable struct {
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Salesperson   string    `json:"salesperson"`
	Bank          string    `json:"bank,omitempty"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`
	Installment   int       `json:"installment"`
	Installments  int       `json:"installments"`
	Amount        float64   `json:"amount"`
	DaysOverdue   int       `json:"days_overdue"`
	Bucket        string    `json:"bucket"`
}

// AgingBucketTotal sums the receivables of one aging bucket
type AgingBucketTotal struct {
	Bucket string  `json:"bucket"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// PricePoint is the average unit price of a product in one period
type PricePoint struct {
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	Period       string  `json:"period"`
	AveragePrice float64 `json:"average_price"`
	Quantity     float64 `json:"quantity"`
	LineCount    int     `json:"line_count"`
}

// CommissionRow totals the sale value of one salesperson within one tier.
// metric: gross sale-only.
type CommissionRow struct {
	Salesperson      string         `json:"salesperson"`
	Tier             CommissionTier `json:"tier"`
	Rate             float64        `json:"rate"`
	SaleValue        float64        `json:"sale_value"`
	CommissionAmount float64        `json:"commission_amount"`
	LineCount        int            `json:"line_count"`
}

// DatasetInfo describes the loaded dataset
type DatasetInfo struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	Sheet             string    `json:"sheet,omitempty"`
	LoadedAt          time.Time `json:"loaded_at"`
	Rows              int       `json:"rows"`
	Invoices          int       `json:"invoices"`
	IssueCount        int       `json:"issue_count"`
	UncataloguedCount int       `json:"uncatalogued_count"`
	HasCatalog        bool      `json:"has_catalog"`
	HasDueDates       bool      `json:"has_due_dates"`
	MissingColumns    []string  `json:"missing_columns,omitempty"`
}
