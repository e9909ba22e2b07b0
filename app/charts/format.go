package charts

import (
	"strconv"
	"strings"
)

// FormatValue renders a numeric value for display. number and currency
// round to integers with thousands separators; percentage and decimal keep
// one decimal place. A unit, when present, is appended.
func FormatValue(value float64, formatType, unit string) string {
	var formatted string
	switch strings.ToLower(formatType) {
	case "currency", "currency:usd":
		formatted = "$" + groupDigits(strconv.FormatFloat(value, 'f', 0, 64))
	case "percentage":
		formatted = strconv.FormatFloat(value, 'f', 1, 64) + "%"
	case "decimal":
		formatted = strconv.FormatFloat(value, 'f', 1, 64)
	default: // number
		formatted = groupDigits(strconv.FormatFloat(value, 'f', 0, 64))
	}
	if unit != "" {
		formatted += " " + unit
	}
	return formatted
}

// groupDigits inserts thousands separators into an integer string.
func groupDigits(s string) string {
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	var sb strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(ch)
	}
	if negative {
		return "-" + sb.String()
	}
	return sb.String()
}
