package formula

import (
	"math"
	"testing"

	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustView(t *testing.T, csv string) *dataset.View {
	t.Helper()
	table, err := dataset.ParseTable(csv)
	require.NoError(t, err)
	return dataset.FullView(table)
}

func TestIsFormula(t *testing.T) {
	assert.True(t, IsFormula("=SUM(A:A)"))
	assert.True(t, IsFormula("  =1+1"))
	assert.False(t, IsFormula("SUM(A:A)"))
	assert.False(t, IsFormula("plain text"))
}

func TestCompile_LiteralPassthrough(t *testing.T) {
	result, err := Compile("Revenue 2024").Eval(&Env{})
	assert.NoError(t, err)
	assert.Equal(t, "Revenue 2024", result)
}

func TestEval(t *testing.T) {
	view := mustView(t, "Month,Branch,Revenue,sales\n"+
		"2024-01,East,100,10\n"+
		"2024-02,West,200,20\n"+
		"2024-03,East,300,30\n")

	testCases := []struct {
		name      string
		formula   string
		expected  dataset.Value
		expectErr bool
	}{
		{name: "sum column", formula: "=SUM(C:C)", expected: 600.0},
		{name: "avg column", formula: "=AVG(C:C)", expected: 200.0},
		{name: "average alias", formula: "=AVERAGE(C:C)", expected: 200.0},
		{name: "max column", formula: "=MAX(C:C)", expected: 300.0},
		{name: "min column", formula: "=MIN(C:C)", expected: 100.0},
		{name: "count column", formula: "=COUNT(C:C)", expected: 3.0},
		{name: "counta column", formula: "=COUNTA(B:B)", expected: 3.0},
		{name: "arithmetic precedence", formula: "=1+2*3", expected: 7.0},
		{name: "parenthesized", formula: "=(1+2)*3", expected: 9.0},
		{name: "power right associative", formula: "=2^3^2", expected: 512.0},
		{name: "unary minus", formula: "=-3+5", expected: 2.0},
		{name: "division", formula: "=10/4", expected: 2.5},
		{name: "division by zero yields infinity", formula: "=1/0", expected: math.Inf(1)},
		{name: "concat", formula: `="a"&"b"`, expected: "ab"},
		{name: "concat number", formula: `="a"&1`, expected: "a1"},
		{name: "comparison", formula: "=1<2", expected: true},
		{name: "not equal", formula: `="x"<>"y"`, expected: true},
		{name: "column predicate lifts elementwise",
			formula:  `=B:B="East"`,
			expected: []dataset.Value{true, false, true}},
		{name: "sum over ratio of ranges", formula: "=SUM(C:C/D:D)", expected: 30.0},
		{name: "sumif with sum range", formula: `=SUMIF(B:B,"East",C:C)`, expected: 400.0},
		{name: "sumif operator criterion", formula: `=SUMIF(C:C,">150")`, expected: 500.0},
		{name: "countif", formula: `=COUNTIF(B:B,"East")`, expected: 2.0},
		{name: "countifs", formula: `=COUNTIFS(B:B,"East",C:C,">150")`, expected: 1.0},
		{name: "unique", formula: "=UNIQUE(B:B)", expected: []dataset.Value{"East", "West"}},
		{name: "if scalar", formula: `=IF(1>2,"yes","no")`, expected: "no"},
		{name: "if array condition selects elementwise",
			formula:  `=SUM(IF(B:B="East",C:C,0))`,
			expected: 400.0},
		{name: "cell reference", formula: "=A2", expected: "2024-02"},
		{name: "cell reference in expression", formula: `=B2&"-x"`, expected: "West-x"},
		{name: "named column", formula: "=SUM(sales)", expected: 60.0},
		{name: "alias range resolves to base column", formula: "=SUM(sales2:sales)", expected: 60.0},
		{name: "bounded start row", formula: "=SUM(C2:C)", expected: 500.0},
		{name: "and", formula: "=AND(1>0,2>1)", expected: true},
		{name: "or", formula: "=OR(1>2,2>1)", expected: true},
		{name: "round", formula: "=ROUND(2.567,2)", expected: 2.57},
		{name: "abs", formula: "=ABS(-4)", expected: 4.0},
		{name: "int", formula: "=INT(3.9)", expected: 3.0},
		{name: "left", formula: `=LEFT("2024-01",4)`, expected: "2024"},
		{name: "right", formula: `=RIGHT("2024-01",2)`, expected: "01"},
		{name: "mid", formula: `=MID("abcdef",2,3)`, expected: "bcd"},
		{name: "left counts characters not bytes", formula: `=LEFT("héllo",2)`, expected: "hé"},
		{name: "right counts characters not bytes", formula: `=RIGHT("héllo",4)`, expected: "éllo"},
		{name: "mid counts characters not bytes", formula: `=MID("héllo",2,3)`, expected: "éll"},
		{name: "len counts characters not bytes", formula: `=LEN("héllo")`, expected: 5.0},
		{name: "search returns character position", formula: `=SEARCH("llo","héllo")`, expected: 3.0},
		{name: "len", formula: `=LEN("abc")`, expected: 3.0},
		{name: "upper", formula: `=UPPER("abc")`, expected: "ABC"},
		{name: "lower", formula: `=LOWER("ABC")`, expected: "abc"},
		{name: "value", formula: `=VALUE("12.5")`, expected: 12.5},
		{name: "value non numeric", formula: `=VALUE("abc")`, expected: 0.0},
		{name: "isnumber on search hit", formula: `=ISNUMBER(SEARCH("east","Northeast"))`, expected: true},
		{name: "isnumber on search miss", formula: `=ISNUMBER(SEARCH("zzz","Northeast"))`, expected: false},
		{name: "year from iso date", formula: `=YEAR("2024-01-15")`, expected: 2024.0},
		{name: "year from free text", formula: `=YEAR("FY 2023 report")`, expected: 2023.0},
		{name: "year elementwise", formula: "=YEAR(A:A)", expected: []dataset.Value{2024.0, 2024.0, 2024.0}},
		{name: "month", formula: `=MONTH("2024-03-15")`, expected: 3.0},
		{name: "day", formula: `=DAY("2024-03-15")`, expected: 15.0},
		{name: "index", formula: "=INDEX(C:C,2)", expected: 200.0},
		{name: "match", formula: `=MATCH("West",B:B)`, expected: 2.0},
		{name: "choose", formula: `=CHOOSE(2,"a","b","c")`, expected: "b"},
		{name: "time", formula: "=TIME(1,30)", expected: 1.5},
		{name: "timevalue", formula: `=TIMEVALUE("2:45")`, expected: 2.75},
		{name: "hour from clock text", formula: `=HOUR("14:30")`, expected: 14.0},
		{name: "text date format", formula: `=TEXT("2024-01-15","mmm yyyy")`, expected: "Jan 2024"},
		{name: "text percent format", formula: `=TEXT(0.125,"0.0%")`, expected: "12.5%"},
		{name: "text comma format", formula: `=TEXT(1234567,"#,##0")`, expected: "1,234,567"},

		{name: "unterminated call", formula: "=SUM(", expectErr: true},
		{name: "unknown function", formula: "=FOO(1)", expectErr: true},
		{name: "multi column range", formula: "=SUM(A:B)", expectErr: true},
		{name: "letter without column", formula: "=SUM(Z:Z)", expectErr: true},
		{name: "trailing garbage", formula: "=1 2", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Compile(tc.formula).Eval(&Env{View: view})
			if tc.expectErr {
				assert.Error(t, err)
				var evalErr *EvaluationError
				assert.ErrorAs(t, err, &evalErr)
				assert.Equal(t, tc.formula, evalErr.Formula)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, result)
			}
		})
	}
}

func TestEval_EmptyAggregates(t *testing.T) {
	view := mustView(t, "Revenue\n")

	testCases := []struct {
		formula  string
		expected float64
	}{
		{"=SUM(A:A)", 0},
		{"=AVG(A:A)", 0},
		{"=COUNT(A:A)", 0},
		{"=MAX(A:A)", 0},
		{"=MIN(A:A)", 0},
	}

	for _, tc := range testCases {
		result, err := Compile(tc.formula).Eval(&Env{View: view})
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, result)
	}
}

func TestEval_GrowthFormulaSkipsZeroDenominators(t *testing.T) {
	view := mustView(t, "Current,Previous\n110,100\n120,0\n130,100\n")

	// the zero previous-period row produces infinity, which the average
	// excludes instead of aborting the formula
	result, err := Compile("=AVG((A:A-B:B)/B:B*100)").Eval(&Env{View: view})
	assert.NoError(t, err)
	assert.InDelta(t, 20.0, result, 1e-9)
}

func TestEval_NonNumericAggregates(t *testing.T) {
	view := mustView(t, "Name\nalice\nbob\n")

	for _, formula := range []string{"=MAX(A:A)", "=MIN(A:A)", "=SUM(A:A)"} {
		result, err := Compile(formula).Eval(&Env{View: view})
		assert.NoError(t, err)
		assert.Equal(t, 0.0, result)
	}
}

func TestEval_RowMode(t *testing.T) {
	view := mustView(t, "Month,Branch,Revenue\n2024-01,East,100\n2024-02,West,200\n")
	table := view.Table()

	testCases := []struct {
		name     string
		formula  string
		row      dataset.Row
		expected dataset.Value
	}{
		{name: "range reads current row",
			formula: "=C:C*2", row: table.Rows[0], expected: 200.0},
		{name: "cell ref ignores row number",
			formula: "=C5+1", row: table.Rows[1], expected: 201.0},
		{name: "named column reads current row",
			formula: `=Branch&"!"`, row: table.Rows[0], expected: "East!"},
		{name: "empty cell reads as zero",
			formula: "=C:C+0", row: dataset.Row{"Month": "x", "Branch": "y", "Revenue": nil}, expected: 0.0},
		{name: "unknown ident evaluates to its text",
			formula: `=IF(Branch="East","e","w")`, row: table.Rows[1], expected: "w"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Compile(tc.formula).Eval(&Env{View: view, Row: tc.row})
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"2024/01/15", "2024-01-15", true},
		{"01/15/2024", "2024-01-15", true},
		{"15-01-2024", "2024-01-15", true},
		{"not a date", "", false},
	}

	for _, tc := range testCases {
		parsed, ok := ParseDate(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		if tc.ok {
			assert.Equal(t, tc.expected, parsed.Format("2006-01-02"), tc.input)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "1,234,567", groupThousands("1234567"))
	assert.Equal(t, "123", groupThousands("123"))
	assert.Equal(t, "-1,000", groupThousands("-1000"))
}
