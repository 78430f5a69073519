package exporter

import (
	"fmt"
	"strconv"
	"time"

	"salesbi/internal/config"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatDate renders a date as YYYY-MM-DD; the zero time is blank
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(config.DateLayout)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatCell renders a table cell for text output
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatFloat(val)
	case int:
		return formatInt(val)
	case bool:
		return formatBool(val)
	case time.Time:
		return formatDate(val)
	default:
		return fmt.Sprint(val)
	}
}
