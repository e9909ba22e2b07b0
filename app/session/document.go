package session

import (
	"github.com/Harshvardhan-source/slate/app/charts"
	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/Harshvardhan-source/slate/app/filters"
)

// FilterState is one filter's spec, value domain, and active selection.
type FilterState struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Kind      string             `json:"type"`
	Domain    filters.Domain     `json:"domain"`
	Selection *filters.Selection `json:"selection,omitempty"`
}

// DataSummary describes the loaded dataset.
type DataSummary struct {
	Rows        int           `json:"rows"`
	Columns     int           `json:"columns"`
	ColumnNames []string      `json:"column_names"`
	SampleRows  []dataset.Row `json:"sample_rows,omitempty"`
}

// Document is the full renderer-facing state of one dashboard.
type Document struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Icon        string             `json:"icon,omitempty"`
	Summary     DataSummary        `json:"summary"`
	Filters     []FilterState      `json:"filters"`
	KPIs        []charts.KPIResult `json:"kpis"`
	Charts      []*charts.Chart    `json:"charts"`
}

// Dashboard assembles the current document: metadata, data summary, filter
// states, and every computed KPI and chart.
func (s *Session) Dashboard() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &Document{
		Name:        s.conf.Name,
		Description: s.conf.Description,
		Icon:        s.conf.Icon,
	}

	if table, loaded := s.store.Table(); loaded {
		doc.Summary = DataSummary{
			Rows:        len(table.Rows),
			Columns:     len(table.Headers),
			ColumnNames: table.Headers,
		}
		sample := 3
		if len(table.Rows) < sample {
			sample = len(table.Rows)
		}
		doc.Summary.SampleRows = table.Rows[:sample]
	}

	domains := s.filters.Domains()
	selections := s.filters.Selections()
	for _, spec := range s.conf.Filters {
		state := FilterState{
			ID:     spec.ID(),
			Name:   spec.Name,
			Kind:   string(spec.Kind),
			Domain: domains[spec.Name],
		}
		if sel, ok := selections[spec.Name]; ok {
			state.Selection = &sel
		}
		doc.Filters = append(doc.Filters, state)
	}

	doc.KPIs = append(doc.KPIs, s.kpiResults...)
	for i := range s.conf.Charts {
		if chart, ok := s.chartResults[s.conf.Charts[i].ID()]; ok {
			doc.Charts = append(doc.Charts, chart)
		}
	}
	return doc
}
