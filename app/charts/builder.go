package charts

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/Harshvardhan-source/slate/app/config"
	"github.com/Harshvardhan-source/slate/app/dataset"
)

// Chart type identifiers used in configuration.
const (
	TypeBar           = "bar"
	TypeHorizontalBar = "horizontal-bar"
	TypeLine          = "line"
	TypePie           = "pie"
	TypeDoughnut      = "doughnut"
	TypeBubble        = "bubble"
	TypeBarLine       = "bar-line"
)

const autoTopN = 10

// Point is one bubble-chart datum.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Series is one aggregated dataset within a chart.
type Series struct {
	Label  string    `json:"label"`
	Data   []float64 `json:"data"`
	Points []Point   `json:"points,omitempty"`
	Axis   string    `json:"axis"`
	Format string    `json:"format,omitempty"`
	Unit   string    `json:"unit,omitempty"`
}

// Chart is the renderer-ready result of aggregating filtered rows against
// one chart spec.
type Chart struct {
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	Labels     []string `json:"labels"`
	Datasets   []Series `json:"datasets"`
	Style      string   `json:"style,omitempty"`
	Area       bool     `json:"area,omitempty"`
	Cumulative bool     `json:"cumulative,omitempty"`
	TopN       int      `json:"top_n"`
	GroupCount int      `json:"group_count"`
}

// Build aggregates rows into a chart. Per-series failures degrade that
// series to zeros; they never abort the remaining series.
func Build(table *dataset.Table, rows []dataset.Row, spec *config.ChartSpec) *Chart {
	xColumn := resolveColumn(spec.XAxis.Column, table)
	if xColumn == "" {
		xColumn = resolveColumn(spec.XAxis.Name, table)
	}

	chart := &Chart{
		Type:       spec.ChartType,
		Name:       spec.Name,
		Style:      spec.Style,
		Area:       spec.Area,
		Cumulative: spec.Cumulative,
	}
	if xColumn == "" {
		slog.Warn("chart x axis column not found", "chart", spec.Name, "ref", spec.XAxis.Column)
		return chart
	}

	labels, groups := groupRows(rows, xColumn)
	chart.GroupCount = len(labels)

	conditions := parseConditions(spec.DefaultFilterConditions, table)
	if len(conditions) > 0 {
		for label, group := range groups {
			groups[label] = applyConditions(group, conditions)
		}
	}

	dualAxis := useDualAxis(spec)
	for i, seriesSpec := range spec.SeriesList {
		chart.Datasets = append(chart.Datasets, buildSeries(table, labels, groups, seriesSpec, spec, i, dualAxis))
	}
	chart.Labels = labels

	applyTopN(chart, spec)
	applyStacking(chart, spec)
	applyCumulative(chart, spec)
	return chart
}

// groupRows partitions rows by the x column's stringified value. Group
// keys are sorted ascending so the label order is total and deterministic.
func groupRows(rows []dataset.Row, column string) ([]string, map[string][]dataset.Row) {
	groups := make(map[string][]dataset.Row)
	for _, row := range rows {
		key := stringify(row[column])
		groups[key] = append(groups[key], row)
	}
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, groups
}

func buildSeries(table *dataset.Table, labels []string, groups map[string][]dataset.Row,
	seriesSpec config.ChartSeriesSpec, spec *config.ChartSpec, index int, dualAxis bool) Series {

	series := Series{
		Label:  seriesSpec.Name,
		Axis:   axisFor(spec.ChartType, index, dualAxis),
		Format: seriesSpec.FormatType,
		Unit:   seriesSpec.Unit,
	}

	column := resolveColumn(seriesSpec.Column, table)
	if column == "" {
		slog.Warn("chart series column not found", "chart", spec.Name, "series", seriesSpec.Name, "ref", seriesSpec.Column)
		series.Data = make([]float64, len(labels))
		return series
	}

	condition, hasCondition := parseCondition(seriesSpec.FilterCondition, table)

	series.Data = make([]float64, len(labels))
	if spec.ChartType == TypeBubble {
		series.Points = make([]Point, len(labels))
	}
	for i, label := range labels {
		group := groups[label]
		if hasCondition {
			group = applyConditions(group, []rowCondition{condition})
		}
		values := columnValues(group, column)
		value := aggregate(seriesSpec.Aggregation, values)
		series.Data[i] = value
		if spec.ChartType == TypeBubble {
			series.Points[i] = Point{X: float64(i), Y: value, R: bubbleRadius(len(group))}
		}
	}
	return series
}

// aggregate reduces a group's values with the series aggregation kind.
// Non-numeric values coerce to 0 here so one bad cell skews a sum instead
// of sinking the whole series.
func aggregate(kind string, values []dataset.Value) float64 {
	switch strings.ToLower(kind) {
	case "count":
		count := 0
		for _, v := range values {
			if v != nil {
				count++
			}
		}
		return float64(count)
	case "avg", "average":
		if len(values) == 0 {
			return 0
		}
		total := 0.0
		for _, v := range values {
			total += coerce(v)
		}
		return total / float64(len(values))
	case "max":
		if len(values) == 0 {
			return 0
		}
		best := coerce(values[0])
		for _, v := range values[1:] {
			if n := coerce(v); n > best {
				best = n
			}
		}
		return best
	case "min":
		if len(values) == 0 {
			return 0
		}
		best := coerce(values[0])
		for _, v := range values[1:] {
			if n := coerce(v); n < best {
				best = n
			}
		}
		return best
	default: // sum
		total := 0.0
		for _, v := range values {
			total += coerce(v)
		}
		return total
	}
}

// useDualAxis decides whether series split across two value axes: the
// combined bar-line type always does, and otherwise heterogeneity in unit,
// format, or count-vs-noncount aggregation triggers it.
func useDualAxis(spec *config.ChartSpec) bool {
	if len(spec.SeriesList) < 2 {
		return false
	}
	if spec.ChartType == TypeBarLine {
		return true
	}
	first := spec.SeriesList[0]
	firstCount := strings.EqualFold(first.Aggregation, "count")
	for _, s := range spec.SeriesList[1:] {
		if s.Unit != first.Unit || s.FormatType != first.FormatType {
			return true
		}
		if strings.EqualFold(s.Aggregation, "count") != firstCount {
			return true
		}
	}
	return false
}

// axisFor assigns an axis ID. On a horizontal bar the value axes are the
// two x-axes; everywhere else they are the two y-axes.
func axisFor(chartType string, index int, dualAxis bool) string {
	horizontal := chartType == TypeHorizontalBar
	if dualAxis && index > 0 {
		if horizontal {
			return "x1"
		}
		return "y1"
	}
	if horizontal {
		return "x"
	}
	return "y"
}

// applyTopN ranks labels by the first series' value descending and keeps
// the top N, moving every series' values with the labels. Only bar shapes
// truncate.
func applyTopN(chart *Chart, spec *config.ChartSpec) {
	if spec.ChartType != TypeBar && spec.ChartType != TypeHorizontalBar {
		return
	}
	topN := resolveTopN(spec, chart.GroupCount)
	chart.TopN = topN
	if topN <= 0 || len(chart.Labels) <= topN || len(chart.Datasets) == 0 {
		return
	}

	indices := make([]int, len(chart.Labels))
	for i := range indices {
		indices[i] = i
	}
	first := chart.Datasets[0].Data
	sort.SliceStable(indices, func(a, b int) bool {
		return first[indices[a]] > first[indices[b]]
	})
	indices = indices[:topN]

	labels := make([]string, topN)
	for i, idx := range indices {
		labels[i] = chart.Labels[idx]
	}
	chart.Labels = labels

	for d := range chart.Datasets {
		data := make([]float64, topN)
		for i, idx := range indices {
			data[i] = chart.Datasets[d].Data[idx]
		}
		chart.Datasets[d].Data = data
		if len(chart.Datasets[d].Points) > 0 {
			points := make([]Point, topN)
			for i, idx := range indices {
				points[i] = chart.Datasets[d].Points[idx]
				points[i].X = float64(i)
			}
			chart.Datasets[d].Points = points
		}
	}
}

// resolveTopN applies the top-N policy: automatic top-10 once the group
// count exceeds 10, overridden by an explicit "show all" choice, with both
// the control and the flag resetting when cardinality drops back to 10 or
// fewer.
func resolveTopN(spec *config.ChartSpec, groupCount int) int {
	if groupCount <= autoTopN {
		spec.TopN = 0
		spec.ShowAllChosen = false
		return 0
	}
	if spec.ShowAllChosen {
		return 0
	}
	if spec.TopN > 0 {
		return spec.TopN
	}
	return autoTopN
}

// applyStacking converts per-group values to percentages of the group's
// cross-series total for the 100%-stacked style. A group with total 0 is
// left unconverted to avoid dividing by zero.
func applyStacking(chart *Chart, spec *config.ChartSpec) {
	if !isStacked100(spec.Style) || spec.ChartType == TypeBarLine {
		return
	}
	for i := range chart.Labels {
		total := 0.0
		for _, series := range chart.Datasets {
			total += series.Data[i]
		}
		if total == 0 {
			continue
		}
		for d := range chart.Datasets {
			chart.Datasets[d].Data[i] = chart.Datasets[d].Data[i] / total * 100
		}
	}
}

func isStacked100(style string) bool {
	switch strings.ToLower(style) {
	case "stacked-100", "stacked100", "percent":
		return true
	}
	return false
}

// applyCumulative converts each series to a running total.
func applyCumulative(chart *Chart, spec *config.ChartSpec) {
	if !spec.Cumulative {
		return
	}
	for d := range chart.Datasets {
		total := 0.0
		for i := range chart.Datasets[d].Data {
			total += chart.Datasets[d].Data[i]
			chart.Datasets[d].Data[i] = total
		}
	}
}

// bubbleRadius maps a group's row count to a visual radius, clamped to the
// 5-30 range.
func bubbleRadius(rowCount int) float64 {
	r := 5 + 2.5*math.Sqrt(float64(rowCount))
	if r > 30 {
		return 30
	}
	return r
}

func columnValues(rows []dataset.Row, column string) []dataset.Value {
	out := make([]dataset.Value, 0, len(rows))
	for _, row := range rows {
		out = append(out, row[column])
	}
	return out
}

// resolveColumn turns a column reference (a spreadsheet letter or a plain
// column name) into the column name, or "" when it resolves to nothing.
func resolveColumn(ref string, table *dataset.Table) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	// strip a single-column range suffix like B2:B
	if idx := strings.Index(ref, ":"); idx > 0 {
		left, _, ok := splitLetters(ref[:idx])
		if ok {
			ref = left
		}
	}
	if table.HasColumn(ref) {
		return ref
	}
	if letters, _, ok := splitLetters(ref); ok {
		if column, found := table.ColumnByLetter(letters); found {
			return column
		}
	}
	return ""
}

// splitLetters splits an uppercase letter prefix from a digit suffix.
func splitLetters(s string) (string, string, bool) {
	end := 0
	for i, ch := range s {
		if ch >= 'A' && ch <= 'Z' {
			end = i + 1
		} else {
			break
		}
	}
	if end == 0 {
		return "", "", false
	}
	for _, ch := range s[end:] {
		if ch < '0' || ch > '9' {
			return "", "", false
		}
	}
	return s[:end], s[end:], true
}

func coerce(v dataset.Value) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		if f, ok := parseFloat(val); ok {
			return f
		}
		return 0
	default:
		return 0
	}
}

func stringify(v dataset.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return formatInt(int64(val))
		}
		return formatFloat(val)
	default:
		return ""
	}
}
