package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetterForIndex(t *testing.T) {
	testCases := []struct {
		index    int
		expected string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, LetterForIndex(tc.index))
	}
}

func TestParseTable_DropsMalformedRows(t *testing.T) {
	csv := "Month,Branch,Revenue\n" +
		"2024-01,East,100\n" +
		"2024-02,East,200\n" +
		"2024-03,East\n"

	table, err := ParseTable(csv)
	require.NoError(t, err)

	assert.Len(t, table.Rows, 2)
	assert.Equal(t, map[string]string{"A": "Month", "B": "Branch", "C": "Revenue"}, table.LetterMap())
}

func TestParseTable_TypesCells(t *testing.T) {
	table, err := ParseTable("Name,Score,Note\nalice,42.5,\nbob,x,hi\n")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "alice", table.Rows[0]["Name"])
	assert.Equal(t, 42.5, table.Rows[0]["Score"])
	assert.Nil(t, table.Rows[0]["Note"])
	assert.Equal(t, "x", table.Rows[1]["Score"])
}

func TestParseTable_QuotedDelimiter(t *testing.T) {
	table, err := ParseTable("Name,City\n\"Doe, Jane\",Austin\n")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Doe, Jane", table.Rows[0]["Name"])
}

func TestLetterMap_Idempotent(t *testing.T) {
	csv := "Month,Branch,Revenue\n2024-01,East,100\n"

	first, err := ParseTable(csv)
	require.NoError(t, err)
	second, err := ParseTable(csv)
	require.NoError(t, err)

	assert.Equal(t, first.LetterMap(), second.LetterMap())
}

func TestRoundTripLine(t *testing.T) {
	fields := []string{"alpha", "beta", "gamma"}
	line, err := SerializeLine(fields)
	require.NoError(t, err)
	parsed, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, fields, parsed)
}

func TestAddDefinedColumn(t *testing.T) {
	table, err := ParseTable("Month,Branch,Revenue\n2024-01,East,100\n2024-02,West,200\n")
	require.NoError(t, err)

	table.AddDefinedColumn("Margin", []Value{10.0, 20.0})

	letter, ok := table.LetterByColumn("Margin")
	require.True(t, ok)
	assert.Equal(t, "D", letter)
	assert.Equal(t, 10.0, table.Rows[0]["Margin"])
	assert.Equal(t, 20.0, table.Rows[1]["Margin"])

	// short value slice leaves trailing rows empty
	table.AddDefinedColumn("Partial", []Value{1.0})
	assert.Nil(t, table.Rows[1]["Partial"])
}

func TestView_ColumnData(t *testing.T) {
	table, err := ParseTable("A_col,B_col\n1,x\n2,y\n3,z\n")
	require.NoError(t, err)
	view := FullView(table)

	assert.Equal(t, []Value{1.0, 2.0, 3.0}, view.ColumnData("A_col", 1))
	assert.Equal(t, []Value{2.0, 3.0}, view.ColumnData("A_col", 2))
	assert.Empty(t, view.ColumnData("A_col", 9))
	assert.Nil(t, view.ColumnData("missing", 1))
}

func TestView_CellValue(t *testing.T) {
	table, err := ParseTable("A_col\n1\n2\n")
	require.NoError(t, err)
	view := FullView(table)

	assert.Equal(t, 1.0, view.CellValue("A_col", 0))
	assert.Equal(t, 2.0, view.CellValue("A_col", 1))
	assert.Nil(t, view.CellValue("A_col", 2))
	assert.Nil(t, view.CellValue("A_col", -1))
}
