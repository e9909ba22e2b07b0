package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Harshvardhan-source/slate/app/charts"
	"github.com/Harshvardhan-source/slate/app/config"
	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/Harshvardhan-source/slate/app/filters"
	"github.com/Harshvardhan-source/slate/app/formula"
)

// Session is the dashboard aggregate: it owns the data store, the filter
// engine, and the chart/KPI specs, and funnels every mutation through its
// methods. Each mutation recomputes in a fixed order: filtered rows first,
// then KPIs, then charts, so derived values never read a stale view.
type Session struct {
	mu sync.Mutex

	conf    *config.DashboardConfig
	store   *dataset.Store
	filters *filters.Engine

	filtered     *dataset.View
	kpiResults   []charts.KPIResult
	chartResults map[string]*charts.Chart
}

func New(conf *config.DashboardConfig, store *dataset.Store) *Session {
	return &Session{
		conf:         conf,
		store:        store,
		filters:      filters.NewEngine(conf.Filters),
		chartResults: make(map[string]*charts.Chart),
	}
}

// Initialize loads the dataset, applies transformation columns, computes
// filter domains over the unfiltered data, and runs the first recompute.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dashboard %q: %w", s.conf.Name, err)
	}
	s.applyTransformations(table)
	s.filters.Initialize(table)
	s.recompute(table)
	return nil
}

// Reload refetches the dataset and rebuilds everything. Active filter
// selections are dropped since the new data may not contain them.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.store.Reload(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload dashboard %q: %w", s.conf.Name, err)
	}
	s.applyTransformations(table)
	s.filters.Reset()
	s.filters.Initialize(table)
	s.recompute(table)
	return nil
}

// applyTransformations appends each defined column by evaluating its
// formula once per row. A failing transformation is skipped, not fatal.
func (s *Session) applyTransformations(table *dataset.Table) {
	view := dataset.FullView(table)
	for _, t := range s.conf.Transformations {
		compiled := formula.Compile(t.Formula)
		values := make([]dataset.Value, len(table.Rows))
		failed := false
		for i, row := range table.Rows {
			value, err := compiled.Eval(&formula.Env{View: view, Row: row})
			if err != nil {
				slog.Warn("transformation formula failed", "column", t.Name, "formula", t.Formula, "error", err)
				failed = true
				break
			}
			values[i] = value
		}
		if failed {
			continue
		}
		table.AddDefinedColumn(t.Name, values)
		slog.Info("added defined column", "column", t.Name)
	}
}

// SetFilterSelection replaces one filter's constraint and recomputes.
func (s *Session) SetFilterSelection(name string, sel filters.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, loaded := s.store.Table()
	if !loaded {
		return fmt.Errorf("dashboard %q has no loaded dataset", s.conf.Name)
	}
	if err := s.filters.SetSelection(name, sel); err != nil {
		return err
	}
	s.recompute(table)
	return nil
}

// ClearFilterSelection removes one filter's constraint and recomputes.
func (s *Session) ClearFilterSelection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, loaded := s.store.Table()
	if !loaded {
		return fmt.Errorf("dashboard %q has no loaded dataset", s.conf.Name)
	}
	if err := s.filters.ClearSelection(name); err != nil {
		return err
	}
	s.recompute(table)
	return nil
}

// SetChartTopN adjusts one chart's top-N control. topN of 0 with showAll
// set records an explicit "show all" choice.
func (s *Session) SetChartTopN(chartID string, topN int, showAll bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, loaded := s.store.Table()
	if !loaded {
		return fmt.Errorf("dashboard %q has no loaded dataset", s.conf.Name)
	}

	found := false
	for i := range s.conf.Charts {
		if s.conf.Charts[i].ID() == chartID {
			s.conf.Charts[i].TopN = topN
			s.conf.Charts[i].ShowAllChosen = showAll
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no chart with id %q", chartID)
	}
	s.recompute(table)
	return nil
}

// recompute rebuilds the filtered view, then every KPI, then every chart.
// Callers must hold the mutex.
func (s *Session) recompute(table *dataset.Table) {
	rows := s.filters.FilteredRows(table)
	s.filtered = dataset.NewView(table, rows)

	s.kpiResults = s.kpiResults[:0]
	for _, spec := range s.conf.KPIs {
		s.kpiResults = append(s.kpiResults, charts.ComputeKPI(s.filtered, spec))
	}

	s.chartResults = make(map[string]*charts.Chart, len(s.conf.Charts))
	for i := range s.conf.Charts {
		spec := &s.conf.Charts[i]
		s.chartResults[spec.ID()] = charts.Build(table, rows, spec)
	}
}

// KPIs returns the current KPI values.
func (s *Session) KPIs() []charts.KPIResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]charts.KPIResult, len(s.kpiResults))
	copy(out, s.kpiResults)
	return out
}

// KPI returns one KPI by id.
func (s *Session) KPI(id string) (charts.KPIResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.kpiResults {
		if k.ID == id {
			return k, true
		}
	}
	return charts.KPIResult{}, false
}

// Chart returns one chart's aggregated series by id.
func (s *Session) Chart(id string) (*charts.Chart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chart, ok := s.chartResults[id]
	return chart, ok
}

// FilteredRowCount reports the size of the current filtered view.
func (s *Session) FilteredRowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filtered == nil {
		return 0
	}
	return s.filtered.Len()
}
