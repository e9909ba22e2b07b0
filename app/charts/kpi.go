package charts

import (
	"log/slog"
	"math"

	"github.com/Harshvardhan-source/slate/app/config"
	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/Harshvardhan-source/slate/app/formula"
)

// KPIResult is one computed KPI value ready for display. Valid is false
// when the formula failed or produced a non-finite result; the formatted
// value then reads "N/A" instead of a silent zero.
type KPIResult struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Icon           string  `json:"icon,omitempty"`
	Valid          bool    `json:"valid"`
	Value          float64 `json:"value"`
	FormattedValue string  `json:"formatted_value"`
}

// ComputeKPI evaluates a KPI formula over the filtered view. An array
// result contributes its first element.
func ComputeKPI(view *dataset.View, spec config.KPISpec) KPIResult {
	result := KPIResult{
		ID:             spec.ID(),
		Name:           spec.Name,
		Icon:           spec.Icon,
		FormattedValue: "N/A",
	}

	value, err := formula.Compile(spec.ValueFormula).Eval(&formula.Env{View: view})
	if err != nil {
		slog.Warn("KPI formula failed", "kpi", spec.Name, "formula", spec.ValueFormula, "error", err)
		return result
	}

	if arr, ok := value.([]dataset.Value); ok {
		if len(arr) == 0 {
			return result
		}
		value = arr[0]
	}

	num, ok := toFiniteNumber(value)
	if !ok {
		return result
	}

	result.Valid = true
	result.Value = num
	result.FormattedValue = FormatValue(num, spec.FormatType, spec.Unit)
	return result
}

func toFiniteNumber(v dataset.Value) (float64, bool) {
	var num float64
	switch val := v.(type) {
	case float64:
		num = val
	case bool:
		if val {
			num = 1
		}
	case string:
		f, ok := parseFloat(val)
		if !ok {
			return 0, false
		}
		num = f
	default:
		return 0, false
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}
