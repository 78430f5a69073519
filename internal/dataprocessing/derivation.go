package dataprocessing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"salesbi/internal/config"
	"salesbi/pkg/contracts/domain"
)

// PeriodLayout formats period keys; keys sort lexicographically in time order
const PeriodLayout = "2006-01"

// Rules holds the configurable thresholds of the derivation engine and the
// aggregator
type Rules struct {
	TierTopPct        float64
	TierBasePct       float64
	TierFloorPct      float64
	SettlementMinDays int
	SettlementMaxDays int
	DueDateMinYear    int
	DueDateMaxYear    int
	AgingBoundaries   []int
}

// DefaultRules returns the standard thresholds
func DefaultRules() Rules {
	return RulesFromConfig(config.DefaultAnalytics())
}

// RulesFromConfig converts the analytics configuration section
func RulesFromConfig(cfg config.AnalyticsConfig) Rules {
	boundaries := make([]int, len(cfg.AgingBoundaries))
	copy(boundaries, cfg.AgingBoundaries)
	return Rules{
		TierTopPct:        cfg.TierTopPct,
		TierBasePct:       cfg.TierBasePct,
		TierFloorPct:      cfg.TierFloorPct,
		SettlementMinDays: cfg.SettlementMinDays,
		SettlementMaxDays: cfg.SettlementMaxDays,
		DueDateMinYear:    cfg.DueDateMinYear,
		DueDateMaxYear:    cfg.DueDateMaxYear,
		AgingBoundaries:   boundaries,
	}
}

// PeriodKey returns the "YYYY-MM" bucket of t, or "" for the zero time
func PeriodKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(PeriodLayout)
}

// Derive computes every derived field of tx in one place: net and gross-sale
// metrics, period fields, settlement terms, the catalogue join, commission
// tier and product name. It is deterministic and idempotent. When a
// catalogue is given and the product is absent, the row is kept and a
// *MissingReferenceDataError is returned alongside it.
func Derive(tx domain.Transaction, catalog *Catalog, rules Rules) (domain.Transaction, error) {
	tx.NetAmount, tx.GrossSaleAmount = netAmounts(tx.MovementType, tx.GrossAmount)

	tx.Month, tx.Year, tx.PeriodKey = 0, 0, ""
	if tx.HasIssueDate() {
		tx.IssueDate = midnight(tx.IssueDate)
		tx.Month = int(tx.IssueDate.Month())
		tx.Year = tx.IssueDate.Year()
		tx.PeriodKey = PeriodKey(tx.IssueDate)
	}

	tx.SettlementTerms = settlementTerms(tx.IssueDate, tx.DueDates, rules)

	tx.ProductCode = NormalizeProductCode(tx.ProductCode)
	product, found := catalog.Lookup(tx.ProductCode)

	var missing error
	if found {
		tx.Catalogued = true
		tx.ReferencePrice = product.ReferencePrice
		tx.CommissionTier = CalcCommissionTier(tx.UnitPrice, product.ReferencePrice, rules)
		tx.ProductName = FormatProductName(tx.ProductCode, rowProductName(tx), &product)
	} else {
		tx.Catalogued = false
		tx.ReferencePrice = 0
		tx.CommissionTier = domain.CommissionNone
		tx.ProductName = FormatProductName(tx.ProductCode, rowProductName(tx), nil)
		if catalog != nil {
			missing = &MissingReferenceDataError{Row: tx.Row, ProductCode: tx.ProductCode}
		}
	}

	return tx, missing
}

// rowProductName drops a placeholder left by an earlier derivation so that
// deriving twice gives the same name
func rowProductName(tx domain.Transaction) string {
	if tx.ProductName == FormatProductName(tx.ProductCode, "", nil) {
		return ""
	}
	return tx.ProductName
}

// netAmounts applies the sign rule: a sale counts positive, anything else
// negative. The gross sale metric is kept separately.
func netAmounts(movement domain.MovementType, gross float64) (net, grossSale float64) {
	if gross == 0 {
		return 0, 0
	}
	if movement == domain.MovementSale {
		return gross, gross
	}
	return -gross, 0
}

// CalcSettlementTerms parses a packed due-date cell and returns the day
// counts between issue and each due date that fall within the configured
// bounds, in input order
func CalcSettlementTerms(issue time.Time, rawDueDates string, rules Rules) []int {
	return settlementTerms(midnight(issue), ParseDueDates(rawDueDates), rules)
}

func settlementTerms(issue time.Time, dueDates []time.Time, rules Rules) []int {
	if issue.IsZero() || len(dueDates) == 0 {
		return nil
	}
	var terms []int
	for _, d := range dueDates {
		if y := d.Year(); y < rules.DueDateMinYear || y > rules.DueDateMaxYear {
			continue
		}
		days := daysBetween(issue, midnight(d))
		if days < rules.SettlementMinDays || days > rules.SettlementMaxDays {
			continue
		}
		terms = append(terms, days)
	}
	return terms
}

// daysBetween counts whole days from a to b; both are midnight UTC
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// CalcCommissionTier compares the unit price with the reference price, both
// rounded to cents. A missing or non-positive reference price yields no
// tier; a zero unit price is a full discount and lands in the lowest tier.
func CalcCommissionTier(unitPrice, referencePrice float64, rules Rules) domain.CommissionTier {
	reference := decimal.NewFromFloat(referencePrice).Round(2)
	price := decimal.NewFromFloat(unitPrice).Round(2)
	if !reference.IsPositive() {
		return domain.CommissionNone
	}

	variation := price.Sub(reference).Div(reference).Mul(decimal.NewFromInt(100))
	switch {
	case variation.GreaterThanOrEqual(decimal.NewFromFloat(rules.TierTopPct)):
		return domain.CommissionTier4
	case variation.GreaterThanOrEqual(decimal.NewFromFloat(rules.TierBasePct)):
		return domain.CommissionTier3
	case variation.GreaterThan(decimal.NewFromFloat(rules.TierFloorPct)):
		return domain.CommissionTier2_5
	default:
		return domain.CommissionTier2
	}
}

// AgingBucket labels a receivable by days overdue using ascending boundaries,
// e.g. [30 60 90] gives "Not yet due", "1-30 dias", "31-60 dias", "61-90 dias"
// and ">90 dias"
func AgingBucket(daysOverdue int, boundaries []int) string {
	if daysOverdue <= 0 {
		return BucketNotYetDue
	}
	lower := 1
	for _, upper := range boundaries {
		if daysOverdue <= upper {
			return fmt.Sprintf("%d-%d dias", lower, upper)
		}
		lower = upper + 1
	}
	if len(boundaries) == 0 {
		return ">0 dias"
	}
	return fmt.Sprintf(">%d dias", boundaries[len(boundaries)-1])
}

// BucketNotYetDue labels receivables whose due date has not passed
const BucketNotYetDue = "Not yet due"

// AgingBucketLabels lists every bucket label in ascending order
func AgingBucketLabels(boundaries []int) []string {
	labels := []string{BucketNotYetDue}
	lower := 1
	for _, upper := range boundaries {
		labels = append(labels, fmt.Sprintf("%d-%d dias", lower, upper))
		lower = upper + 1
	}
	if len(boundaries) == 0 {
		return append(labels, ">0 dias")
	}
	return append(labels, fmt.Sprintf(">%d dias", boundaries[len(boundaries)-1]))
}
