package charts

import (
	"testing"

	"github.com/Harshvardhan-source/slate/app/config"
	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/stretchr/testify/assert"
)

func TestComputeKPI(t *testing.T) {
	table := mustTable(t, "Month,Branch,Revenue\n2024-01,East,100\n2024-02,East,200\n")
	view := dataset.FullView(table)

	testCases := []struct {
		name          string
		spec          config.KPISpec
		expectedValid bool
		expectedValue float64
		expectedText  string
	}{
		{
			name: "sum with currency format",
			spec: config.KPISpec{Name: "Total Revenue", ValueFormula: "=SUM(C:C)",
				FormatType: "currency"},
			expectedValid: true,
			expectedValue: 300,
			expectedText:  "$300",
		},
		{
			name:          "plain number",
			spec:          config.KPISpec{Name: "Rows", ValueFormula: "=COUNT(C:C)"},
			expectedValid: true,
			expectedValue: 2,
			expectedText:  "2",
		},
		{
			name:          "array result takes first element",
			spec:          config.KPISpec{Name: "First", ValueFormula: "=C:C"},
			expectedValid: true,
			expectedValue: 100,
			expectedText:  "100",
		},
		{
			name:          "unit appended",
			spec:          config.KPISpec{Name: "Weight", ValueFormula: "=MAX(C:C)", Unit: "kg"},
			expectedValid: true,
			expectedValue: 200,
			expectedText:  "200 kg",
		},
		{
			name: "broken formula reads N/A",
			spec: config.KPISpec{Name: "Broken", ValueFormula: "=SUM("},
		},
		{
			name: "non numeric result reads N/A",
			spec: config.KPISpec{Name: "Text", ValueFormula: `="hello"`},
		},
		{
			name: "division by zero reads N/A",
			spec: config.KPISpec{Name: "Ratio", ValueFormula: "=1/0"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ComputeKPI(view, tc.spec)
			assert.Equal(t, tc.spec.ID(), result.ID)
			assert.Equal(t, tc.spec.Name, result.Name)
			assert.Equal(t, tc.expectedValid, result.Valid)
			if tc.expectedValid {
				assert.Equal(t, tc.expectedValue, result.Value)
				assert.Equal(t, tc.expectedText, result.FormattedValue)
			} else {
				assert.Equal(t, "N/A", result.FormattedValue)
			}
		})
	}
}

func TestComputeKPI_EmptyView(t *testing.T) {
	table := mustTable(t, "Month,Branch,Revenue\n2024-01,East,100\n")
	view := dataset.NewView(table, nil)

	result := ComputeKPI(view, config.KPISpec{Name: "Total", ValueFormula: "=SUM(C:C)"})

	assert.True(t, result.Valid)
	assert.Equal(t, 0.0, result.Value)
	assert.Equal(t, "0", result.FormattedValue)
}

func TestKPIIDSlug(t *testing.T) {
	spec := config.KPISpec{Name: "Total Revenue (USD)"}
	assert.Equal(t, "kpi_total_revenue_usd", spec.ID())
}
