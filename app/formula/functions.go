package formula

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Harshvardhan-source/slate/app/dataset"
)

type builtinFunc func(env *Env, args []dataset.Value) (dataset.Value, error)

// functionNames maps spreadsheet function names (matched case-insensitively
// by the lexer, which uppercases them) to canonical builtin keys. This is
// the whole vocabulary; anything else fails at evaluation time.
var functionNames = map[string]string{
	"SUM":       "SUM",
	"AVG":       "AVG",
	"AVERAGE":   "AVG",
	"COUNT":     "COUNT",
	"COUNTA":    "COUNTA",
	"MAX":       "MAX",
	"MIN":       "MIN",
	"SUMIF":     "SUMIF",
	"COUNTIF":   "COUNTIF",
	"COUNTIFS":  "COUNTIFS",
	"UNIQUE":    "UNIQUE",
	"IF":        "IF",
	"AND":       "AND",
	"OR":        "OR",
	"ROUND":     "ROUND",
	"ABS":       "ABS",
	"MONTH":     "MONTH",
	"DAY":       "DAY",
	"YEAR":      "YEAR",
	"TODAY":     "TODAY",
	"INDEX":     "INDEX",
	"MATCH":     "MATCH",
	"TIME":      "TIME",
	"TIMEVALUE": "TIMEVALUE",
	"HOUR":      "HOUR",
	"LEFT":      "LEFT",
	"RIGHT":     "RIGHT",
	"MID":       "MID",
	"LEN":       "LEN",
	"UPPER":     "UPPER",
	"LOWER":     "LOWER",
	"VALUE":     "VALUE",
	"ISNUMBER":  "ISNUMBER",
	"SEARCH":    "SEARCH",
	"INT":       "INT",
	"TEXT":      "TEXT",
	"CHOOSE":    "CHOOSE",
}

var builtins = map[string]builtinFunc{
	"SUM":       fnSum,
	"AVG":       fnAvg,
	"COUNT":     fnCount,
	"COUNTA":    fnCountA,
	"MAX":       fnMax,
	"MIN":       fnMin,
	"SUMIF":     fnSumIf,
	"COUNTIF":   fnCountIf,
	"COUNTIFS":  fnCountIfs,
	"UNIQUE":    fnUnique,
	"IF":        nil, // special form, evaluated lazily
	"AND":       fnAnd,
	"OR":        fnOr,
	"ROUND":     fnRound,
	"ABS":       fnAbs,
	"MONTH":     fnMonth,
	"DAY":       fnDay,
	"YEAR":      fnYear,
	"TODAY":     fnToday,
	"INDEX":     fnIndex,
	"MATCH":     fnMatch,
	"TIME":      fnTime,
	"TIMEVALUE": fnTimeValue,
	"HOUR":      fnHour,
	"LEFT":      fnLeft,
	"RIGHT":     fnRight,
	"MID":       fnMid,
	"LEN":       fnLen,
	"UPPER":     fnUpper,
	"LOWER":     fnLower,
	"VALUE":     fnValue,
	"ISNUMBER":  fnIsNumber,
	"SEARCH":    fnSearch,
	"INT":       fnInt,
	"TEXT":      fnText,
	"CHOOSE":    fnChoose,
}

// flatten expands arrays in the argument list into one flat value slice.
func flatten(args []dataset.Value) []dataset.Value {
	var out []dataset.Value
	for _, arg := range args {
		if arr, ok := arg.([]dataset.Value); ok {
			out = append(out, arr...)
		} else {
			out = append(out, arg)
		}
	}
	return out
}

// numericValues keeps only the values that coerce to a finite number.
// Empty cells and non-numeric text do not qualify.
func numericValues(args []dataset.Value) []float64 {
	var out []float64
	for _, v := range flatten(args) {
		if isEmptyValue(v) {
			continue
		}
		num, ok := toNumber(v)
		if !ok || math.IsNaN(num) || math.IsInf(num, 0) {
			continue
		}
		out = append(out, num)
	}
	return out
}

func fnSum(env *Env, args []dataset.Value) (dataset.Value, error) {
	total := 0.0
	for _, n := range numericValues(args) {
		total += n
	}
	return total, nil
}

func fnAvg(env *Env, args []dataset.Value) (dataset.Value, error) {
	nums := numericValues(args)
	if len(nums) == 0 {
		return float64(0), nil
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums)), nil
}

func fnCount(env *Env, args []dataset.Value) (dataset.Value, error) {
	return float64(len(numericValues(args))), nil
}

func fnCountA(env *Env, args []dataset.Value) (dataset.Value, error) {
	count := 0
	for _, v := range flatten(args) {
		if !isEmptyValue(v) {
			count++
		}
	}
	return float64(count), nil
}

func fnMax(env *Env, args []dataset.Value) (dataset.Value, error) {
	nums := numericValues(args)
	if len(nums) == 0 {
		return float64(0), nil
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if n > best {
			best = n
		}
	}
	return best, nil
}

func fnMin(env *Env, args []dataset.Value) (dataset.Value, error) {
	nums := numericValues(args)
	if len(nums) == 0 {
		return float64(0), nil
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if n < best {
			best = n
		}
	}
	return best, nil
}

// criterion is a parsed SUMIF/COUNTIF condition: an operator prefix such as
// ">=10" or "<>x", or plain equality otherwise.
type criterion struct {
	op    string
	value dataset.Value
}

func parseCriterion(v dataset.Value) criterion {
	s, ok := v.(string)
	if !ok {
		return criterion{op: "=", value: v}
	}
	for _, op := range []string{">=", "<=", "<>", ">", "<", "="} {
		if strings.HasPrefix(s, op) {
			rest := strings.TrimPrefix(s, op)
			var value dataset.Value = rest
			if num, numOk := toNumber(rest); numOk {
				value = num
			}
			return criterion{op: op, value: value}
		}
	}
	return criterion{op: "=", value: s}
}

func (c criterion) matches(v dataset.Value) bool {
	cmp := compareValues(v, c.value)
	switch c.op {
	case "=":
		return cmp == 0
	case "<>":
		return cmp != 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	}
	return false
}

func asArray(v dataset.Value) []dataset.Value {
	if arr, ok := v.([]dataset.Value); ok {
		return arr
	}
	return []dataset.Value{v}
}

func fnSumIf(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("SUMIF takes 2 or 3 arguments, got %d", len(args))
	}
	testRange := asArray(args[0])
	crit := parseCriterion(args[1])
	sumRange := testRange
	if len(args) == 3 {
		sumRange = asArray(args[2])
	}

	total := 0.0
	for i, v := range testRange {
		if !crit.matches(v) {
			continue
		}
		if i >= len(sumRange) {
			continue
		}
		if num, ok := toNumber(sumRange[i]); ok {
			total += num
		}
	}
	return total, nil
}

func fnCountIf(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("COUNTIF takes 2 arguments, got %d", len(args))
	}
	crit := parseCriterion(args[1])
	count := 0
	for _, v := range asArray(args[0]) {
		if crit.matches(v) {
			count++
		}
	}
	return float64(count), nil
}

func fnCountIfs(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) < 2 || len(args)%2 != 0 {
		return nil, fmt.Errorf("COUNTIFS takes range/criterion pairs, got %d arguments", len(args))
	}
	first := asArray(args[0])
	count := 0
	for i := range first {
		matched := true
		for j := 0; j < len(args); j += 2 {
			rng := asArray(args[j])
			crit := parseCriterion(args[j+1])
			if i >= len(rng) || !crit.matches(rng[i]) {
				matched = false
				break
			}
		}
		if matched {
			count++
		}
	}
	return float64(count), nil
}

func fnUnique(env *Env, args []dataset.Value) (dataset.Value, error) {
	seen := make(map[string]bool)
	var out []dataset.Value
	for _, v := range flatten(args) {
		if isEmptyValue(v) {
			continue
		}
		key := toText(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out, nil
}

func fnAnd(env *Env, args []dataset.Value) (dataset.Value, error) {
	return logicalFold(args, true, func(a, b bool) bool { return a && b })
}

func fnOr(env *Env, args []dataset.Value) (dataset.Value, error) {
	return logicalFold(args, false, func(a, b bool) bool { return a || b })
}

// logicalFold folds truthiness across the arguments, lifting elementwise
// when any argument is an array.
func logicalFold(args []dataset.Value, identity bool, combine func(a, b bool) bool) (dataset.Value, error) {
	length := 0
	hasArray := false
	for _, arg := range args {
		if arr, ok := arg.([]dataset.Value); ok {
			hasArray = true
			if len(arr) > length {
				length = len(arr)
			}
		}
	}

	if !hasArray {
		result := identity
		for _, arg := range args {
			result = combine(result, isTruthy(arg))
		}
		return result, nil
	}

	out := make([]dataset.Value, length)
	for i := 0; i < length; i++ {
		result := identity
		for _, arg := range args {
			result = combine(result, isTruthy(pick(arg, i)))
		}
		out[i] = result
	}
	return out, nil
}

func fnRound(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("ROUND takes 1 or 2 arguments, got %d", len(args))
	}
	digits := 0.0
	if len(args) == 2 {
		if d, ok := toNumber(args[1]); ok {
			digits = d
		}
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		num, ok := toNumber(v)
		if !ok {
			return float64(0), nil
		}
		scale := math.Pow(10, digits)
		return math.Round(num*scale) / scale, nil
	})
}

func fnAbs(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("ABS takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		num, ok := toNumber(v)
		if !ok {
			return float64(0), nil
		}
		return math.Abs(num), nil
	})
}

func fnIndex(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("INDEX takes 2 arguments, got %d", len(args))
	}
	arr := asArray(args[0])
	n, ok := toNumber(args[1])
	if !ok {
		return nil, fmt.Errorf("INDEX position must be a number")
	}
	i := int(n) - 1
	if i < 0 || i >= len(arr) {
		return nil, fmt.Errorf("INDEX position %d out of range", int(n))
	}
	return arr[i], nil
}

func fnMatch(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("MATCH takes 2 or 3 arguments, got %d", len(args))
	}
	target := args[0]
	for i, v := range asArray(args[1]) {
		if compareValues(v, target) == 0 {
			return float64(i + 1), nil
		}
	}
	return nil, fmt.Errorf("MATCH found no value equal to %v", target)
}

func fnChoose(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("CHOOSE takes at least 2 arguments, got %d", len(args))
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("CHOOSE index must be a number")
	}
	i := int(n)
	if i < 1 || i > len(args)-1 {
		return nil, fmt.Errorf("CHOOSE index %d out of range", i)
	}
	return args[i], nil
}

func fnLeft(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("LEFT takes 2 arguments, got %d", len(args))
	}
	n, _ := toNumber(args[1])
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		s := []rune(toText(v))
		count := int(n)
		if count < 0 {
			count = 0
		}
		if count > len(s) {
			count = len(s)
		}
		return string(s[:count]), nil
	})
}

func fnRight(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("RIGHT takes 2 arguments, got %d", len(args))
	}
	n, _ := toNumber(args[1])
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		s := []rune(toText(v))
		count := int(n)
		if count < 0 {
			count = 0
		}
		if count > len(s) {
			count = len(s)
		}
		return string(s[len(s)-count:]), nil
	})
}

func fnMid(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("MID takes 3 arguments, got %d", len(args))
	}
	start, _ := toNumber(args[1])
	length, _ := toNumber(args[2])
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		s := []rune(toText(v))
		from := int(start) - 1
		if from < 0 {
			from = 0
		}
		if from > len(s) {
			from = len(s)
		}
		to := from + int(length)
		if to > len(s) {
			to = len(s)
		}
		return string(s[from:to]), nil
	})
}

func fnLen(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("LEN takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		return float64(utf8.RuneCountInString(toText(v))), nil
	})
}

func fnUpper(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("UPPER takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		return strings.ToUpper(toText(v)), nil
	})
}

func fnLower(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("LOWER takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		return strings.ToLower(toText(v)), nil
	})
}

func fnValue(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("VALUE takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		num, ok := toNumber(v)
		if !ok {
			return float64(0), nil
		}
		return num, nil
	})
}

func fnIsNumber(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("ISNUMBER takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		num, ok := toNumber(v)
		return ok && !math.IsNaN(num), nil
	})
}

// fnSearch is a case-insensitive find returning a 1-based character
// position. A miss yields NaN rather than an error so that
// ISNUMBER(SEARCH(...)) works as a containment test.
func fnSearch(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("SEARCH takes 2 or 3 arguments, got %d", len(args))
	}
	find := strings.ToLower(toText(args[0]))
	start := 1
	if len(args) == 3 {
		if n, ok := toNumber(args[2]); ok {
			start = int(n)
		}
	}
	return mapElementwise(args[1], func(v dataset.Value) (dataset.Value, error) {
		within := []rune(strings.ToLower(toText(v)))
		from := start - 1
		if from < 0 || from > len(within) {
			return math.NaN(), nil
		}
		rest := string(within[from:])
		pos := strings.Index(rest, find)
		if pos == -1 {
			return math.NaN(), nil
		}
		return float64(from + utf8.RuneCountInString(rest[:pos]) + 1), nil
	})
}

func fnInt(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("INT takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		num, ok := toNumber(v)
		if !ok {
			return float64(0), nil
		}
		return math.Floor(num), nil
	})
}

// fnTime converts hours, minutes and seconds to decimal hours.
func fnTime(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("TIME takes 2 or 3 arguments, got %d", len(args))
	}
	hours, _ := toNumber(args[0])
	minutes, _ := toNumber(args[1])
	seconds := 0.0
	if len(args) == 3 {
		seconds, _ = toNumber(args[2])
	}
	return hours + minutes/60 + seconds/3600, nil
}

func fnTimeValue(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("TIMEVALUE takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		return parseClock(toText(v)), nil
	})
}

func fnHour(env *Env, args []dataset.Value) (dataset.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("HOUR takes 1 argument, got %d", len(args))
	}
	return mapElementwise(args[0], func(v dataset.Value) (dataset.Value, error) {
		if num, ok := toNumber(v); ok {
			return math.Trunc(num), nil
		}
		s := strings.TrimSpace(toText(v))
		if strings.Contains(s, ":") {
			if n, ok := toNumber(strings.SplitN(s, ":", 2)[0]); ok {
				return n, nil
			}
		}
		return float64(0), nil
	})
}
