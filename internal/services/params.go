package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salesbi/internal/config"
	"salesbi/internal/dataprocessing"
)

// ReportParams are the filter and size parameters every report accepts.
// HTTP handlers fill them from the query string and the CLI from flags;
// both validate them with the same tags.
type ReportParams struct {
	DateFrom    string `query:"date_from" validate:"omitempty,isodate"`
	DateTo      string `query:"date_to" validate:"omitempty,isodate"`
	Salesperson string `query:"salesperson" validate:"max=200"`
	Region      string `query:"region" validate:"max=100"`
	Month       int    `query:"month" validate:"min=0,max=12"`
	Year        int    `query:"year" validate:"omitempty,min=2000,max=2100"`
	Customer    string `query:"customer" validate:"max=200"`
	Limit       int    `query:"limit" validate:"min=0,max=1000"`
}

// ParamsFromQuery reads ReportParams from URL query values. Numbers that do
// not parse are reported as errors; ranges are left to validation.
func ParamsFromQuery(q url.Values) (ReportParams, error) {
	p := ReportParams{
		DateFrom:    strings.TrimSpace(q.Get("date_from")),
		DateTo:      strings.TrimSpace(q.Get("date_to")),
		Salesperson: strings.TrimSpace(q.Get("salesperson")),
		Region:      strings.TrimSpace(q.Get("region")),
		Customer:    strings.TrimSpace(q.Get("customer")),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"month", &p.Month},
		{"year", &p.Year},
		{"limit", &p.Limit},
	}
	for _, f := range ints {
		raw := strings.TrimSpace(q.Get(f.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &ParamError{Field: f.key, Value: raw}
		}
		*f.dst = n
	}
	return p, nil
}

// Criteria converts the parameters to pipeline filter criteria. Dates must
// already be valid.
func (p ReportParams) Criteria() (dataprocessing.FilterCriteria, error) {
	c := dataprocessing.FilterCriteria{
		Salesperson:    p.Salesperson,
		Region:         p.Region,
		Month:          p.Month,
		Year:           p.Year,
		CustomerSearch: p.Customer,
	}
	var err error
	if p.DateFrom != "" {
		if c.DateFrom, err = time.Parse(config.DateLayout, p.DateFrom); err != nil {
			return c, &ParamError{Field: "date_from", Value: p.DateFrom}
		}
	}
	if p.DateTo != "" {
		if c.DateTo, err = time.Parse(config.DateLayout, p.DateTo); err != nil {
			return c, &ParamError{Field: "date_to", Value: p.DateTo}
		}
	}
	return c, nil
}

// ParamError reports a parameter that could not be parsed
type ParamError struct {
	Field string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.Value, e.Field)
}
