package filters

import (
	"testing"

	"github.com/Harshvardhan-source/slate/app/config"
	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, csv string) *dataset.Table {
	t.Helper()
	table, err := dataset.ParseTable(csv)
	require.NoError(t, err)
	return table
}

func salesTable(t *testing.T) *dataset.Table {
	t.Helper()
	return mustTable(t, "Month,Branch,Revenue\n"+
		"2024-01-01,East,100\n"+
		"2024-02-01,West,200\n"+
		"2023-03-01,East,300\n")
}

func salesSpecs() []config.FilterSpec {
	return []config.FilterSpec{
		{Name: "Branch", Kind: config.FilterList, ValuesFormula: "=UNIQUE(B:B)"},
		{Name: "Revenue", Kind: config.FilterNumberRange, ValuesFormula: "=UNIQUE(C:C)"},
		{Name: "Year", Kind: config.FilterDateRange, ValuesFormula: "=UNIQUE(A:A)"},
	}
}

func TestInitialize_Domains(t *testing.T) {
	engine := NewEngine(salesSpecs())
	engine.Initialize(salesTable(t))
	domains := engine.Domains()

	branch := domains["Branch"]
	assert.Equal(t, config.FilterList, branch.Kind)
	assert.Equal(t, []string{"East", "West"}, branch.Values)

	revenue := domains["Revenue"]
	require.NotNil(t, revenue.Min)
	require.NotNil(t, revenue.Max)
	assert.Equal(t, 100.0, *revenue.Min)
	assert.Equal(t, 300.0, *revenue.Max)

	year := domains["Year"]
	assert.Equal(t, "2023-03-01", year.Start)
	assert.Equal(t, "2024-02-01", year.End)
}

func TestInitialize_BadFormulaDegrades(t *testing.T) {
	specs := []config.FilterSpec{
		{Name: "Broken", Kind: config.FilterList, ValuesFormula: "=UNIQUE("},
		{Name: "Branch", Kind: config.FilterList, ValuesFormula: "=UNIQUE(B:B)"},
	}
	engine := NewEngine(specs)
	engine.Initialize(salesTable(t))

	// the broken filter gets an empty domain; the other still computes
	assert.Empty(t, engine.Domains()["Broken"].Values)
	assert.Equal(t, []string{"East", "West"}, engine.Domains()["Branch"].Values)
}

func TestFilteredRows_List(t *testing.T) {
	table := salesTable(t)
	engine := NewEngine(salesSpecs())
	engine.Initialize(table)

	require.NoError(t, engine.SetSelection("Branch", Selection{Values: []string{"East"}}))
	assert.Len(t, engine.FilteredRows(table), 2)

	require.NoError(t, engine.SetSelection("Branch", Selection{Values: []string{"North"}}))
	assert.Empty(t, engine.FilteredRows(table))
}

func TestFilteredRows_NumberRange(t *testing.T) {
	table := salesTable(t)
	engine := NewEngine(salesSpecs())
	engine.Initialize(table)

	low, high := 150.0, 250.0
	require.NoError(t, engine.SetSelection("Revenue", Selection{Min: &low, Max: &high}))

	rows := engine.FilteredRows(table)
	require.Len(t, rows, 1)
	assert.Equal(t, 200.0, rows[0]["Revenue"])
}

func TestFilteredRows_DateRange(t *testing.T) {
	table := salesTable(t)
	engine := NewEngine(salesSpecs())
	engine.Initialize(table)

	start, end := "2024-01-01", "2024-12-31"
	require.NoError(t, engine.SetSelection("Year", Selection{Start: &start, End: &end}))

	rows := engine.FilteredRows(table)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Contains(t, row["Month"], "2024")
	}
}

func TestFilteredRows_Conjunction(t *testing.T) {
	table := salesTable(t)
	engine := NewEngine(salesSpecs())
	engine.Initialize(table)

	require.NoError(t, engine.SetSelection("Branch", Selection{Values: []string{"East"}}))
	branchOnly := len(engine.FilteredRows(table))

	low := 250.0
	require.NoError(t, engine.SetSelection("Revenue", Selection{Min: &low}))
	both := engine.FilteredRows(table)

	// adding a condition can only shrink the result
	assert.LessOrEqual(t, len(both), branchOnly)
	require.Len(t, both, 1)
	assert.Equal(t, 300.0, both[0]["Revenue"])
}

func TestFilteredRows_YearTransform(t *testing.T) {
	table := salesTable(t)
	specs := []config.FilterSpec{
		{Name: "Sale Year", Kind: config.FilterList, ValuesFormula: "=UNIQUE(YEAR(A:A))"},
	}
	engine := NewEngine(specs)
	engine.Initialize(table)

	assert.Equal(t, []string{"2023", "2024"}, engine.Domains()["Sale Year"].Values)

	require.NoError(t, engine.SetSelection("Sale Year", Selection{Values: []string{"2023"}}))
	rows := engine.FilteredRows(table)
	require.Len(t, rows, 1)
	assert.Equal(t, "2023-03-01", rows[0]["Month"])
}

func TestFilteredRows_UnparsableValueFailsRange(t *testing.T) {
	table := mustTable(t, "Month,Revenue\n2024-01-01,100\nsoon,200\n")
	specs := []config.FilterSpec{
		{Name: "Month", Kind: config.FilterDateRange, ValuesFormula: "=UNIQUE(A:A)"},
	}
	engine := NewEngine(specs)
	engine.Initialize(table)

	start := "2020-01-01"
	require.NoError(t, engine.SetSelection("Month", Selection{Start: &start}))

	rows := engine.FilteredRows(table)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-01", rows[0]["Month"])
}

func TestSetSelection(t *testing.T) {
	engine := NewEngine(salesSpecs())
	engine.Initialize(salesTable(t))

	assert.Error(t, engine.SetSelection("Nope", Selection{Values: []string{"x"}}))

	require.NoError(t, engine.SetSelection("Branch", Selection{Values: []string{"East"}}))
	assert.Len(t, engine.Selections(), 1)

	// an empty selection clears the entry instead of storing a sentinel
	require.NoError(t, engine.SetSelection("Branch", Selection{}))
	assert.Empty(t, engine.Selections())
}

func TestClearSelectionAndReset(t *testing.T) {
	table := salesTable(t)
	engine := NewEngine(salesSpecs())
	engine.Initialize(table)

	require.NoError(t, engine.SetSelection("Branch", Selection{Values: []string{"West"}}))
	low := 1.0
	require.NoError(t, engine.SetSelection("Revenue", Selection{Min: &low}))

	require.NoError(t, engine.ClearSelection("Branch"))
	assert.Len(t, engine.Selections(), 1)
	assert.Error(t, engine.ClearSelection("Nope"))

	engine.Reset()
	assert.Empty(t, engine.Selections())
	assert.Len(t, engine.FilteredRows(table), len(table.Rows))
}
