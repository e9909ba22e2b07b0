package dataset

// View is an ordered subset of a table's rows, usually the output of the
// filter engine. Data-access functions inside formulas read through a View
// so that evaluation always sees the current filtered rows.
type View struct {
	table *Table
	rows  []Row
}

// NewView wraps a row subset of t. Rows must be in table order.
func NewView(t *Table, rows []Row) *View {
	return &View{table: t, rows: rows}
}

// FullView is a view over every row of t.
func FullView(t *Table) *View {
	return &View{table: t, rows: t.Rows}
}

func (v *View) Len() int {
	return len(v.rows)
}

func (v *View) Rows() []Row {
	return v.rows
}

func (v *View) Table() *Table {
	return v.table
}

// ColumnData returns a column's values across the view, honoring a 1-based
// spreadsheet row offset where row 1 is the first data row. Rows beyond the
// available range are omitted, not padded.
func (v *View) ColumnData(column string, startRow int) []Value {
	if !v.table.HasColumn(column) {
		return nil
	}
	start := startRow - 1
	if start < 0 {
		start = 0
	}
	if start >= len(v.rows) {
		return nil
	}
	out := make([]Value, 0, len(v.rows)-start)
	for _, row := range v.rows[start:] {
		out = append(out, row[column])
	}
	return out
}

// CellValue returns the value at a 0-based index into the view, or nil when
// the index or column is out of range.
func (v *View) CellValue(column string, index int) Value {
	if !v.table.HasColumn(column) || index < 0 || index >= len(v.rows) {
		return nil
	}
	return v.rows[index][column]
}
