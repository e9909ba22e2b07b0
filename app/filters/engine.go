package filters

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Harshvardhan-source/slate/app/config"
	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/Harshvardhan-source/slate/app/formula"
)

// Domain is the candidate value space of one filter, computed from its
// values formula over the unfiltered dataset.
type Domain struct {
	Kind config.FilterKind `json:"kind"`

	// list filters
	Values []string `json:"values,omitempty"`

	// number_range filters
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// date_range filters
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Selection is one filter's active constraint. A zero Selection means "no
// constraint" and clears the filter.
type Selection struct {
	Values []string `json:"values,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Start  *string  `json:"start,omitempty"`
	End    *string  `json:"end,omitempty"`
}

// IsEmpty reports whether the selection constrains nothing.
func (s Selection) IsEmpty() bool {
	return len(s.Values) == 0 && s.Min == nil && s.Max == nil && s.Start == nil && s.End == nil
}

// binding ties a filter to the dataset column its rows are tested against,
// with an optional value transform applied before comparison.
type binding struct {
	column    string
	transform string // "" or "YEAR"
}

var (
	yearFormulaPattern   = regexp.MustCompile(`YEAR\(([A-Z]+)\d*:?[A-Z]*\)`)
	letterFormulaPattern = regexp.MustCompile(`([A-Z]+)\d*:?[A-Z]*`)
)

// Engine owns the filter specs and the active selections, and produces the
// filtered row subset on demand. Selections absent from the map mean
// unconstrained; clearing a selection removes the key entirely.
type Engine struct {
	specs      []config.FilterSpec
	bindings   map[string]binding
	domains    map[string]Domain
	selections map[string]Selection
}

func NewEngine(specs []config.FilterSpec) *Engine {
	return &Engine{
		specs:      specs,
		bindings:   make(map[string]binding),
		domains:    make(map[string]Domain),
		selections: make(map[string]Selection),
	}
}

// Initialize computes every filter's value domain over the unfiltered
// table. One filter's formula failing degrades that filter to an empty
// domain without aborting the others.
func (e *Engine) Initialize(table *dataset.Table) {
	view := dataset.FullView(table)
	env := &formula.Env{View: view}

	for _, spec := range e.specs {
		e.bindings[spec.Name] = resolveBinding(spec, table)

		result, err := formula.Compile(spec.ValuesFormula).Eval(env)
		if err != nil {
			slog.Warn("filter domain formula failed", "filter", spec.Name, "formula", spec.ValuesFormula, "error", err)
			e.domains[spec.Name] = Domain{Kind: spec.Kind}
			continue
		}
		e.domains[spec.Name] = buildDomain(spec.Kind, result)
	}
}

// resolveBinding maps a filter to the column its values formula reads. A
// YEAR(...) wrapper binds to the wrapped column with a YEAR transform;
// otherwise the first column name or letter reference in the formula wins,
// falling back to the filter's own name.
func resolveBinding(spec config.FilterSpec, table *dataset.Table) binding {
	if m := yearFormulaPattern.FindStringSubmatch(spec.ValuesFormula); m != nil {
		if column, ok := table.ColumnByLetter(m[1]); ok {
			return binding{column: column, transform: "YEAR"}
		}
	}
	for _, column := range table.Headers {
		if strings.Contains(spec.ValuesFormula, column) {
			return binding{column: column}
		}
	}
	// function names are uppercase words too, so take the first letter run
	// that actually maps to a column
	for _, m := range letterFormulaPattern.FindAllStringSubmatch(spec.ValuesFormula, -1) {
		if column, ok := table.ColumnByLetter(m[1]); ok {
			return binding{column: column}
		}
	}
	return binding{column: spec.Name}
}

func buildDomain(kind config.FilterKind, result dataset.Value) Domain {
	values, ok := result.([]dataset.Value)
	if !ok {
		values = []dataset.Value{result}
	}

	domain := Domain{Kind: kind}
	switch kind {
	case config.FilterList:
		seen := make(map[string]bool)
		for _, v := range values {
			if v == nil {
				continue
			}
			s := valueText(v)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			domain.Values = append(domain.Values, s)
		}
		sort.Strings(domain.Values)

	case config.FilterNumberRange:
		for _, v := range values {
			num, numOk := valueNumber(v)
			if !numOk {
				continue
			}
			if domain.Min == nil || num < *domain.Min {
				n := num
				domain.Min = &n
			}
			if domain.Max == nil || num > *domain.Max {
				n := num
				domain.Max = &n
			}
		}

	case config.FilterDateRange:
		var start, end time.Time
		for _, v := range values {
			t, dateOk := formula.ParseDate(valueText(v))
			if !dateOk {
				continue
			}
			if domain.Start == "" || t.Before(start) {
				start = t
				domain.Start = valueText(v)
			}
			if domain.End == "" || t.After(end) {
				end = t
				domain.End = valueText(v)
			}
		}
	}
	return domain
}

// Domains returns the computed per-filter value domains.
func (e *Engine) Domains() map[string]Domain {
	return e.domains
}

// Selections returns a copy of the active selections.
func (e *Engine) Selections() map[string]Selection {
	out := make(map[string]Selection, len(e.selections))
	for name, sel := range e.selections {
		out[name] = sel
	}
	return out
}

// SetSelection replaces one filter's constraint. An empty selection clears
// the entry so unconstrained filters carry no sentinel values.
func (e *Engine) SetSelection(name string, sel Selection) error {
	if !e.hasFilter(name) {
		return fmt.Errorf("no filter named %q", name)
	}
	if sel.IsEmpty() {
		delete(e.selections, name)
		return nil
	}
	e.selections[name] = sel
	return nil
}

// ClearSelection removes one filter's constraint.
func (e *Engine) ClearSelection(name string) error {
	if !e.hasFilter(name) {
		return fmt.Errorf("no filter named %q", name)
	}
	delete(e.selections, name)
	return nil
}

// Reset drops all active selections.
func (e *Engine) Reset() {
	e.selections = make(map[string]Selection)
}

func (e *Engine) hasFilter(name string) bool {
	for _, spec := range e.specs {
		if spec.Name == name {
			return true
		}
	}
	return false
}

// FilteredRows returns the rows satisfying every active selection. A row
// whose relevant column is missing or unparsable for a given filter fails
// that filter.
func (e *Engine) FilteredRows(table *dataset.Table) []dataset.Row {
	if len(e.selections) == 0 {
		return table.Rows
	}

	kinds := make(map[string]config.FilterKind, len(e.specs))
	for _, spec := range e.specs {
		kinds[spec.Name] = spec.Kind
	}

	var out []dataset.Row
	for _, row := range table.Rows {
		keep := true
		for name, sel := range e.selections {
			if !e.rowMatches(row, name, kinds[name], sel) {
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

func (e *Engine) rowMatches(row dataset.Row, name string, kind config.FilterKind, sel Selection) bool {
	b := e.bindings[name]
	value, ok := row[b.column]
	if !ok {
		return false
	}
	if b.transform == "YEAR" {
		t, dateOk := formula.ParseDate(valueText(value))
		if !dateOk {
			return false
		}
		value = float64(t.Year())
	}

	switch kind {
	case config.FilterList:
		text := valueText(value)
		for _, accepted := range sel.Values {
			if text == accepted {
				return true
			}
		}
		return false

	case config.FilterNumberRange:
		num, numOk := valueNumber(value)
		if !numOk {
			return false
		}
		if sel.Min != nil && num < *sel.Min {
			return false
		}
		if sel.Max != nil && num > *sel.Max {
			return false
		}
		return true

	case config.FilterDateRange:
		t, dateOk := formula.ParseDate(valueText(value))
		if !dateOk {
			return false
		}
		if sel.Start != nil {
			start, startOk := formula.ParseDate(*sel.Start)
			if !startOk || t.Before(start) {
				return false
			}
		}
		if sel.End != nil {
			end, endOk := formula.ParseDate(*sel.End)
			if !endOk || t.After(end) {
				return false
			}
		}
		return true
	}
	return false
}

func valueText(v dataset.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func valueNumber(v dataset.Value) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
