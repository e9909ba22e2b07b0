package charts

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/Harshvardhan-source/slate/app/dataset"
)

// rowCondition is one simple predicate over a row: `column OP value` with
// OP in {>,>=,<,<=,=,!=,<>}, or the range-match form `alias2:column=value`
// which tests the base column for equality.
type rowCondition struct {
	column string
	op     string
	value  string
}

// parseConditions parses a chart's default filter conditions, dropping the
// ones that do not parse or reference unknown columns.
func parseConditions(conditions []string, table *dataset.Table) []rowCondition {
	var out []rowCondition
	for _, text := range conditions {
		cond, ok := parseCondition(text, table)
		if !ok {
			slog.Warn("unparsable filter condition dropped", "condition", text)
			continue
		}
		out = append(out, cond)
	}
	return out
}

func parseCondition(text string, table *dataset.Table) (rowCondition, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return rowCondition{}, false
	}

	for _, op := range []string{">=", "<=", "<>", "!=", ">", "<", "="} {
		idx := strings.Index(text, op)
		if idx <= 0 {
			continue
		}
		left := strings.TrimSpace(text[:idx])
		value := strings.Trim(strings.TrimSpace(text[idx+len(op):]), `"'`)

		// range-match form: the column is the base name after the colon
		if colon := strings.Index(left, ":"); colon > 0 {
			left = strings.TrimSpace(left[colon+1:])
		}

		column := resolveColumn(left, table)
		if column == "" {
			return rowCondition{}, false
		}
		canonical := op
		if canonical == "<>" {
			canonical = "!="
		}
		return rowCondition{column: column, op: canonical, value: value}, true
	}
	return rowCondition{}, false
}

// applyConditions keeps the rows satisfying every condition.
func applyConditions(rows []dataset.Row, conditions []rowCondition) []dataset.Row {
	if len(conditions) == 0 {
		return rows
	}
	var out []dataset.Row
	for _, row := range rows {
		keep := true
		for _, cond := range conditions {
			if !cond.matches(row) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func (c rowCondition) matches(row dataset.Row) bool {
	value, ok := row[c.column]
	if !ok {
		return false
	}

	// numeric comparison when both sides are numbers, text otherwise
	if target, numOk := parseFloat(c.value); numOk {
		if num, valOk := parseFloat(stringify(value)); valOk {
			switch c.op {
			case "=":
				return num == target
			case "!=":
				return num != target
			case ">":
				return num > target
			case ">=":
				return num >= target
			case "<":
				return num < target
			case "<=":
				return num <= target
			}
			return false
		}
	}

	text := stringify(value)
	switch c.op {
	case "=":
		return text == c.value
	case "!=":
		return text != c.value
	case ">":
		return text > c.value
	case ">=":
		return text >= c.value
	case "<":
		return text < c.value
	case "<=":
		return text <= c.value
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
