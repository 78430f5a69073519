package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"salesbi/pkg/contracts/domain"
)

// Spreadsheet serial dates count days from this epoch
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Largest serial a spreadsheet can hold (9999-12-31)
const maxSerialDate = 2958465

// Day-first layouts tried before ISO ones. Single-digit layout elements also
// accept two digits.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2-1-2006",
	"2-1-2006 15:04:05",
	"2.1.2006",
	"2/1/06",
	"2006-1-2",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/1/2",
}

// ParseDate reads a spreadsheet serial number or a day-first date string and
// returns it at midnight UTC. A blank cell yields the zero time and no error.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= 1 && serial <= maxSerialDate {
			return serialEpoch.AddDate(0, 0, int(math.Floor(serial))), nil
		}
		if t, err := time.Parse("20060102", s); err == nil {
			return midnight(t), nil
		}
		return time.Time{}, ErrInvalidDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseDueDates splits a packed due-date cell and parses every entry. Entries
// that fail to parse are skipped.
func ParseDueDates(raw string) []time.Time {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ',' || r == '|' || r == '\n' || r == '\r'
	})

	var dates []time.Time
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if d, err := ParseDate(part); err == nil && !d.IsZero() {
			dates = append(dates, d)
			continue
		}
		// "15/01/2026 22/01/2026"
		for _, word := range strings.Fields(part) {
			if d, err := ParseDate(word); err == nil && !d.IsZero() {
				dates = append(dates, d)
			}
		}
	}
	return dates
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NumberFormat tells how a table's numeric cells were written
type NumberFormat int

const (
	// NumbersRaw are machine values such as raw workbook cells. A lone dot
	// is the decimal separator, so "1.234" reads as 1.234.
	NumbersRaw NumberFormat = iota
	// NumbersDisplay are display text such as a CSV export, where a lone
	// dot followed by exactly three digits groups thousands, so "1.234"
	// reads as 1234.
	NumbersDisplay
)

// Parse reads raw as a number written in format f
func (f NumberFormat) Parse(raw string) (float64, error) {
	return parseNumber(raw, f == NumbersDisplay)
}

// ParseNumber reads plain ("1234.56"), Brazilian ("1.234,56") and currency
// ("R$ 1.234,56", "(12,00)") numbers. A blank cell yields 0 and no error.
// A lone dot is a decimal separator; see NumbersDisplay for text exports.
func ParseNumber(raw string) (float64, error) {
	return parseNumber(raw, false)
}

func parseNumber(raw string, display bool) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("R$", "", "$", "", " ", "", "\u00a0", "", "%", "").Replace(s)
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	if s == "" {
		return 0, ErrInvalidNumber
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case display && isThousandsGroup(s):
		s = strings.Replace(s, ".", "", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumber
	}
	if negative {
		v = -v
	}
	return v, nil
}

// isThousandsGroup reports whether s is one dot grouping, as in "1.234"
func isThousandsGroup(s string) bool {
	s = strings.TrimPrefix(s, "-")
	i := strings.IndexByte(s, '.')
	if i < 1 || i > 3 || len(s)-i-1 != 3 || s[0] == '0' {
		return false
	}
	return isDigits(s[:i]) && isDigits(s[i+1:])
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseMovementType classifies a free-text movement label such as "NF Venda"
// or "NF Dev.Venda"
func ParseMovementType(label string) domain.MovementType {
	folded := FoldText(label)
	switch {
	case strings.Contains(folded, "dev"):
		return domain.MovementSaleReturn
	case strings.Contains(folded, "venda"):
		return domain.MovementSale
	default:
		return domain.MovementOther
	}
}

func trimCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

// IsBlankRow reports whether every cell is blank
func IsBlankRow(cells []string) bool {
	for _, c := range cells {
		if trimCell(c) != "" {
			return false
		}
	}
	return true
}

// NormalizeRow builds a Transaction from one raw row. It never fails: fields
// that cannot be read are defaulted and reported as MalformedRowError.
func NormalizeRow(rowNumber int, cells []string, index HeaderIndex, numbers NumberFormat) (domain.Transaction, []*MalformedRowError) {
	var issues []*MalformedRowError
	report := func(field Field, value string, err error) {
		issues = append(issues, &MalformedRowError{Row: rowNumber, Field: field, Value: value, Err: err})
	}

	number := func(field Field) float64 {
		raw := index.Cell(cells, field)
		v, err := numbers.Parse(raw)
		if err != nil {
			report(field, raw, err)
		}
		return v
	}
	date := func(field Field) time.Time {
		raw := index.Cell(cells, field)
		d, err := ParseDate(raw)
		if err != nil {
			report(field, raw, err)
		}
		return d
	}

	label := index.Cell(cells, FieldMovementType)
	tx := domain.Transaction{
		Row:           rowNumber,
		InvoiceNumber: index.Cell(cells, FieldInvoiceNumber),
		MovementType:  ParseMovementType(label),
		MovementLabel: label,
		IssueDate:     date(FieldIssueDate),
		CustomerID:    index.Cell(cells, FieldCustomerID),
		CustomerName:  index.Cell(cells, FieldCustomerName),
		City:          index.Cell(cells, FieldCity),
		Region:        index.Cell(cells, FieldRegion),
		Salesperson:   index.Cell(cells, FieldSalesperson),
		ProductCode:   index.Cell(cells, FieldProductCode),
		ProductName:   index.Cell(cells, FieldProductName),
		Quantity:      number(FieldQuantity),
		UnitPrice:     number(FieldUnitPrice),
		GrossAmount:   number(FieldGrossAmount),
		Bank:          index.Cell(cells, FieldBank),
	}

	if index.Has(FieldPaymentDate) {
		tx.PaymentDate = date(FieldPaymentDate)
	}
	if index.Has(FieldDueDates) {
		raw := index.Cell(cells, FieldDueDates)
		tx.DueDates = ParseDueDates(raw)
		if raw != "" && len(tx.DueDates) == 0 {
			report(FieldDueDates, raw, ErrInvalidDate)
		}
	}

	if tx.InvoiceNumber == "" {
		report(FieldInvoiceNumber, "", ErrMissingValue)
	}
	if tx.CustomerID == "" {
		report(FieldCustomerID, "", ErrMissingValue)
	}

	return tx, issues
}
