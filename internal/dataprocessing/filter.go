package dataprocessing

import (
	"strings"
	"time"
	"unicode"

	"salesbi/pkg/contracts/domain"
)

// FilterCriteria selects transactions. Every field is optional: the zero
// value of a field leaves that criterion out.
type FilterCriteria struct {
	DateFrom       time.Time `json:"date_from,omitempty"`
	DateTo         time.Time `json:"date_to,omitempty"`
	Salesperson    string    `json:"salesperson,omitempty"`
	Region         string    `json:"region,omitempty"`
	Month          int       `json:"month,omitempty"`
	Year           int       `json:"year,omitempty"`
	CustomerSearch string    `json:"customer,omitempty"`
}

// IsEmpty reports whether the criteria select everything
func (c FilterCriteria) IsEmpty() bool {
	return c.DateFrom.IsZero() && c.DateTo.IsZero() &&
		c.Salesperson == "" && c.Region == "" &&
		c.Month == 0 && c.Year == 0 &&
		strings.TrimSpace(c.CustomerSearch) == ""
}

// HasPeriod reports whether any time criterion is set
func (c FilterCriteria) HasPeriod() bool {
	return !c.DateFrom.IsZero() || !c.DateTo.IsZero() || c.Month != 0 || c.Year != 0
}

// Scope drops the time criteria, keeping who the report is about. Customer
// history and suggestions use it to select the history they search.
func (c FilterCriteria) Scope() FilterCriteria {
	return FilterCriteria{
		Salesperson:    c.Salesperson,
		Region:         c.Region,
		CustomerSearch: c.CustomerSearch,
	}
}

// ApplyFilters returns the transactions matching every set criterion, in
// input order. An inverted date range yields an empty result.
func ApplyFilters(txs []domain.Transaction, criteria FilterCriteria) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	if criteria.IsEmpty() {
		return append(out, txs...)
	}

	m := newMatcher(criteria)
	if m.empty {
		return out
	}
	for _, tx := range txs {
		if m.match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Matches reports whether one transaction satisfies the criteria
func (c FilterCriteria) Matches(tx domain.Transaction) bool {
	m := newMatcher(c)
	return !m.empty && m.match(tx)
}

type matcher struct {
	criteria FilterCriteria
	from, to time.Time
	customer customerMatcher
	empty    bool
}

func newMatcher(c FilterCriteria) matcher {
	m := matcher{criteria: c, customer: newCustomerMatcher(c.CustomerSearch)}
	if !c.DateFrom.IsZero() {
		m.from = midnight(c.DateFrom)
	}
	if !c.DateTo.IsZero() {
		m.to = midnight(c.DateTo)
	}
	m.empty = !m.from.IsZero() && !m.to.IsZero() && m.from.After(m.to)
	return m
}

func (m matcher) match(tx domain.Transaction) bool {
	c := m.criteria
	if !m.from.IsZero() || !m.to.IsZero() {
		if !tx.HasIssueDate() {
			return false
		}
		if !m.from.IsZero() && tx.IssueDate.Before(m.from) {
			return false
		}
		if !m.to.IsZero() && tx.IssueDate.After(m.to) {
			return false
		}
	}
	if c.Salesperson != "" && tx.Salesperson != c.Salesperson {
		return false
	}
	if c.Region != "" && tx.Region != c.Region {
		return false
	}
	if c.Month != 0 && tx.Month != c.Month {
		return false
	}
	if c.Year != 0 && tx.Year != c.Year {
		return false
	}
	if !m.customer.blank() && !m.customer.match(tx.CustomerName, tx.CustomerID) {
		return false
	}
	return true
}

// customerMatcher does case- and accent-insensitive substring search on the
// customer name, or on the tax ID. A search made only of digits and
// punctuation also matches the tax ID with punctuation removed, so
// "12.345" finds "12345678000190".
type customerMatcher struct {
	folded string
	digits string
}

func newCustomerMatcher(search string) customerMatcher {
	cm := customerMatcher{folded: FoldText(search)}
	if cm.folded != "" && !strings.ContainsFunc(cm.folded, unicode.IsLetter) {
		cm.digits = DigitsOnly(cm.folded)
	}
	return cm
}

func (cm customerMatcher) blank() bool {
	return cm.folded == ""
}

func (cm customerMatcher) match(name, taxID string) bool {
	if strings.Contains(FoldText(name), cm.folded) {
		return true
	}
	if strings.Contains(FoldText(taxID), cm.folded) {
		return true
	}
	return cm.digits != "" && strings.Contains(DigitsOnly(taxID), cm.digits)
}
