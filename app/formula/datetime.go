package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Harshvardhan-source/slate/app/dataset"
)

// dateLayouts are tried in order; ISO forms come first so ambiguous
// day/month text resolves the same way on every run.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"02/01/2006",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"01.02.2006",
	"02.01.2006",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseDate parses date-like text against the supported layouts.
func ParseDate(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock converts HH:MM or HH:MM:SS text to decimal hours.
func parseClock(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	second := 0
	if len(parts) > 2 {
		second, _ = strconv.Atoi(parts[2])
	}
	return float64(hour) + float64(minute)/60 + float64(second)/3600
}

// fnYear extracts the year from date-like text. When no layout matches, a
// bare 4-digit year anywhere in the text still counts.
func fnYear(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("YEAR takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		s := toText(v)
		if t, ok := ParseDate(s); ok {
			return float64(t.Year()), nil
		}
		if m := yearPattern.FindString(s); m != "" {
			year, _ := strconv.Atoi(m)
			return float64(year), nil
		}
		return float64(0), nil
	})
}

func fnMonth(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("MONTH takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		if t, ok := ParseDate(toText(v)); ok {
			return float64(t.Month()), nil
		}
		return float64(0), nil
	})
}

func fnDay(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("DAY takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		if t, ok := ParseDate(toText(v)); ok {
			return float64(t.Day()), nil
		}
		return float64(0), nil
	})
}

func fnToday(env *Env, args []dataset.Value) (dataset.Value, error) {
	return time.Now().Format("2006-01-02"), nil
}

var (
	commaPattern        = regexp.MustCompile(`^[#0,]+$`)
	commaDecimalPattern = regexp.MustCompile(`^[#0,]+\.[#0]+$`)
)

// fnText formats a date or number as text using a format code. Unhandled
// codes fall back to the original text unchanged.
func fnText(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("TEXT takes 2 arguments, got %d", len(args))
	}
	format := strings.ToLower(strings.Trim(strings.TrimSpace(toText(args[1])), `"`))
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		return formatText(toText(v), format), nil
	})
}

func formatText(value, format string) string {
	value = strings.TrimSpace(value)

	if t, ok := ParseDate(value); ok {
		if formatted, ok := formatDate(t, format); ok {
			return formatted
		}
	}

	if num, err := strconv.ParseFloat(value, 64); err == nil {
		if formatted, ok := formatNumber(num, format); ok {
			return formatted
		}
	}

	return value
}

func formatDate(t time.Time, format string) (string, bool) {
	switch format {
	case "mmm yyyy", "mmm-yyyy":
		return t.Format("Jan 2006"), true
	case "mmmm yyyy", "mmmm-yyyy":
		return t.Format("January 2006"), true
	case "mm/yyyy", "mm-yyyy":
		return t.Format("01/2006"), true
	case "yyyy-mm", "yyyy/mm":
		return t.Format("2006-01"), true
	case "yyyy-mm-dd":
		return t.Format("2006-01-02"), true
	case "mm/dd/yyyy":
		return t.Format("01/02/2006"), true
	case "dd/mm/yyyy":
		return t.Format("02/01/2006"), true
	case "mmm", "mon":
		return t.Format("Jan"), true
	case "mmmm", "month":
		return t.Format("January"), true
	case "yyyy", "year":
		return t.Format("2006"), true
	case "mm", "month_num":
		return t.Format("01"), true
	case "dd", "day":
		return t.Format("02"), true
	}
	return "", false
}

func formatNumber(num float64, format string) (string, bool) {
	switch format {
	case "0", "#":
		return strconv.Itoa(int(num)), true
	case "0.0", "#.#":
		return strconv.FormatFloat(num, 'f', 1, 64), true
	case "0.00", "#.##":
		return strconv.FormatFloat(num, 'f', 2, 64), true
	case "0%", "#%":
		return strconv.FormatFloat(num*100, 'f', 0, 64) + "%", true
	case "0.0%", "#.#%":
		return strconv.FormatFloat(num*100, 'f', 1, 64) + "%", true
	case "0.00%", "#.##%":
		return strconv.FormatFloat(num*100, 'f', 2, 64) + "%", true
	case "$0", "$#":
		return "$" + strconv.FormatFloat(num, 'f', 0, 64), true
	case "$0.00", "$#.##":
		return "$" + strconv.FormatFloat(num, 'f', 2, 64), true
	}
	if commaPattern.MatchString(format) {
		return groupThousands(strconv.FormatFloat(num, 'f', 0, 64)), true
	}
	if commaDecimalPattern.MatchString(format) {
		places := len(strings.SplitN(format, ".", 2)[1])
		formatted := strconv.FormatFloat(num, 'f', places, 64)
		parts := strings.SplitN(formatted, ".", 2)
		return groupThousands(parts[0]) + "." + parts[1], true
	}
	return "", false
}

// groupThousands inserts commas into an integer string, keeping a leading
// minus sign intact.
func groupThousands(s string) string {
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
