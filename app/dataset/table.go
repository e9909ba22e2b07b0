package dataset

// Value is a single cell: float64, string, or nil for an empty cell.
type Value any

// Row maps column names to cell values. Column order lives in Table.Headers.
type Row map[string]Value

// Table is a parsed dataset: ordered rows sharing one column set, plus the
// letter map assigning spreadsheet-style letters (A, B, ... Z, AA, ...) to
// columns in header order. The letter map is deterministic for a given
// header order, so reloading the same CSV yields the same mapping.
type Table struct {
	Headers []string
	Rows    []Row

	letters map[string]string // letter -> column name
	reverse map[string]string // column name -> letter
}

// NewTable builds a table and assigns column letters from header order.
func NewTable(headers []string, rows []Row) *Table {
	t := &Table{
		Headers: headers,
		Rows:    rows,
		letters: make(map[string]string, len(headers)),
		reverse: make(map[string]string, len(headers)),
	}
	for i, h := range headers {
		letter := LetterForIndex(i)
		t.letters[letter] = h
		t.reverse[h] = letter
	}
	return t
}

// LetterMap returns the letter -> column name mapping.
func (t *Table) LetterMap() map[string]string {
	return t.letters
}

// ColumnByLetter resolves a spreadsheet letter to a column name.
func (t *Table) ColumnByLetter(letter string) (string, bool) {
	name, ok := t.letters[letter]
	return name, ok
}

// LetterByColumn resolves a column name to its assigned letter.
func (t *Table) LetterByColumn(column string) (string, bool) {
	letter, ok := t.reverse[column]
	return letter, ok
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.reverse[column]
	return ok
}

// AddDefinedColumn appends a formula-computed column. It receives the next
// unused letter (single letters are exhausted before double ones, since
// letters are assigned in index order). values must align with t.Rows; a
// short slice leaves trailing rows empty.
func (t *Table) AddDefinedColumn(name string, values []Value) {
	letter := LetterForIndex(len(t.Headers))
	t.Headers = append(t.Headers, name)
	t.letters[letter] = name
	t.reverse[name] = letter
	for i, row := range t.Rows {
		if i < len(values) {
			row[name] = values[i]
		} else {
			row[name] = nil
		}
	}
}

// LetterForIndex converts a 0-based column index to a spreadsheet letter:
// 0 -> A, 25 -> Z, 26 -> AA.
func LetterForIndex(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
	}
	return result
}
