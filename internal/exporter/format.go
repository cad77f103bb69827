package exporter

import (
	"strconv"
	"time"
)

// formatFloat formats a measure with a fixed number of decimals, trimming nothing so
// columns line up in spreadsheets
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatYear formats a temporal cell as its year
func formatYear(t time.Time) string {
	return strconv.Itoa(t.Year())
}

// formatCell formats one canonical cell for CSV output
func formatCell(v any, precision int) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return formatInt(x)
	case float64:
		return formatFloat(x, precision)
	case time.Time:
		return formatYear(x)
	default:
		return ""
	}
}
