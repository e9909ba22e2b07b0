package config

import (
	"strings"
)

// FilterKind is the kind of control a filter renders as.
type FilterKind string

const (
	FilterList        FilterKind = "list"
	FilterNumberRange FilterKind = "number_range"
	FilterDateRange   FilterKind = "date_range"
)

// FilterSpec declares one filter control and the formula producing its
// value domain. Eg: {"name": "Branch", "type": "list", "values_formula": "=UNIQUE(B:B)"}
type FilterSpec struct {
	Name          string     `json:"name"`
	Kind          FilterKind `json:"type"`
	ValuesFormula string     `json:"values_formula"`
}

func (f FilterSpec) ID() string {
	return "filter_" + Slug(f.Name)
}

// TransformationSpec declares a defined column computed per-row from a formula.
type TransformationSpec struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

type KPISpec struct {
	Name         string `json:"name"`
	Icon         string `json:"fa_icon"`
	ValueFormula string `json:"value_formula"`
	FormatType   string `json:"format_type"`
	Unit         string `json:"unit"`
}

func (k KPISpec) ID() string {
	return "kpi_" + Slug(k.Name)
}

// ChartSeriesSpec is one aggregated series within a chart.
// Axis is "y" for the primary axis, "y1" for the secondary.
type ChartSeriesSpec struct {
	Name            string `json:"name"`
	Column          string `json:"column"`
	Aggregation     string `json:"aggregation"`
	FormatType      string `json:"format"`
	Unit            string `json:"unit"`
	FilterCondition string `json:"filter_condition"`
	Axis            string `json:"axis"`
}

type ChartAxisSpec struct {
	Name    string `json:"name"`
	Column  string `json:"column"`
	GroupBy string `json:"group_by"`
}

type ChartSpec struct {
	ChartType  string            `json:"chart_type"`
	Name       string            `json:"name"`
	XAxis      ChartAxisSpec     `json:"x_axis"`
	SeriesList []ChartSeriesSpec `json:"series_list"`
	Style      string            `json:"style"`
	Area       bool              `json:"area"`
	Cumulative bool              `json:"cumulative"`

	// TopN is the only field mutated at runtime, together with ShowAllChosen
	// (set when the user explicitly picks "All" in the top-N control).
	TopN          int  `json:"top_n"`
	ShowAllChosen bool `json:"-"`

	// DefaultFilterConditions are simple predicates like "S>0" or
	// "N2:N=Male" applied before aggregation.
	DefaultFilterConditions []string `json:"default_filter_conditions"`
}

func (c ChartSpec) ID() string {
	return "chart_" + Slug(c.Name)
}

// DashboardConfig is the declarative dashboard document, decoded from
// config.json in the data directory. Consumed read-only by the engine.
type DashboardConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"fa_icon"`

	// DataSource is a path or http(s) URL of the CSV dataset.
	DataSource string `json:"data_source"`
	DataDir    string `json:"-"`

	Transformations []TransformationSpec `json:"transformations"`
	Filters         []FilterSpec         `json:"filters"`
	KPIs            []KPISpec            `json:"kpis"`
	Charts          []ChartSpec          `json:"charts"`

	Hostnames      []string `json:"hostnames"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	LogLatency     bool     `json:"log_latency"`
}

var slugReplacer = strings.NewReplacer(" ", "_", "(", "", ")", "", "-", "_")

// Slug derives a stable URL-safe identifier from a display name.
func Slug(name string) string {
	return slugReplacer.Replace(strings.ToLower(name))
}
