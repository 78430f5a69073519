package domain

import (
	"strconv"
	"strings"
	"time"
)

// MovementType classifies an invoice line by the kind of fiscal movement
type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementSaleReturn MovementType = "sale_return"
	MovementOther      MovementType = "other"
)

// CommissionTier is the commission band assigned from the price deviation
// against the reference price. The empty tier means no tier could be assigned.
type CommissionTier string

const (
	CommissionTier4   CommissionTier = "T4"
	CommissionTier3   CommissionTier = "T3"
	CommissionTier2_5 CommissionTier = "T2_5"
	CommissionTier2   CommissionTier = "T2"
	CommissionNone    CommissionTier = ""
)

// Rate returns the commission percentage paid for the tier
func (t CommissionTier) Rate() float64 {
	switch t {
	case CommissionTier4:
		return 4
	case CommissionTier3:
		return 3
	case CommissionTier2_5:
		return 2.5
	case CommissionTier2:
		return 2
	default:
		return 0
	}
}

// Label returns a display label for the tier
func (t CommissionTier) Label() string {
	if t == CommissionNone {
		return "None"
	}
	return strconv.FormatFloat(t.Rate(), 'f', -1, 64) + "%"
}

// Transaction is one normalized spreadsheet line-item. It is never mutated
// after the processor hands it out.
type Transaction struct {
	Row             int            `json:"row"`
	InvoiceNumber   string         `json:"invoice_number"`
	MovementType    MovementType   `json:"movement_type"`
	MovementLabel   string         `json:"movement_label"`
	IssueDate       time.Time      `json:"issue_date"`
	CustomerID      string         `json:"customer_id"`
	CustomerName    string         `json:"customer_name"`
	City            string         `json:"city"`
	Region          string         `json:"region"`
	Salesperson     string         `json:"salesperson"`
	ProductCode     string         `json:"product_code"`
	ProductName     string         `json:"product_name"`
	Quantity        float64        `json:"quantity"`
	UnitPrice       float64        `json:"unit_price"`
	GrossAmount     float64        `json:"gross_amount"`
	NetAmount       float64        `json:"net_amount"`
	GrossSaleAmount float64        `json:"gross_sale_amount"`
	Month           int            `json:"month,omitempty"`
	Year            int            `json:"year,omitempty"`
	PeriodKey       string         `json:"period_key,omitempty"`
	DueDates        []time.Time    `json:"due_dates,omitempty"`
	SettlementTerms []int          `json:"settlement_terms,omitempty"`
	CommissionTier  CommissionTier `json:"commission_tier,omitempty"`
	ReferencePrice  float64        `json:"reference_price,omitempty"`
	Catalogued      bool           `json:"catalogued"`
	Bank            string         `json:"bank,omitempty"`
	PaymentDate     time.Time      `json:"payment_date,omitempty"`
}

// HasIssueDate reports whether the issue date was parsed
func (t Transaction) HasIssueDate() bool {
	return !t.IssueDate.IsZero()
}

// IsSale reports whether the line is a sale movement
func (t Transaction) IsSale() bool {
	return t.MovementType == MovementSale
}

// IsSettled reports whether a payment date was recorded for the invoice
func (t Transaction) IsSettled() bool {
	return !t.PaymentDate.IsZero()
}

// SettlementTermsLabel renders the settlement terms slash-joined, e.g. "28/35/42"
func (t Transaction) SettlementTermsLabel() string {
	if len(t.SettlementTerms) == 0 {
		return ""
	}
	parts := make([]string, len(t.SettlementTerms))
	for i, d := range t.SettlementTerms {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "/")
}
