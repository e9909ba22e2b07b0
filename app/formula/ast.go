package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Harshvardhan-source/slate/app/dataset"
)

// Env is the evaluation environment for one Eval call. View is the data the
// expression reads through; passing it explicitly keeps evaluation a pure
// function of its inputs. When Row is set the expression runs in per-row
// mode: column and cell references resolve to the current row's value
// instead of whole-column arrays, which is how transformation formulas
// compute one value per row.
type Env struct {
	View *dataset.View
	Row  dataset.Row
}

func (e *Env) resolveColumn(letter string) (string, bool) {
	if e.View == nil {
		return "", false
	}
	return e.View.Table().ColumnByLetter(letter)
}

type node interface {
	eval(env *Env) (dataset.Value, error)
}

type numberNode struct {
	value float64
}

func (n *numberNode) eval(env *Env) (dataset.Value, error) {
	return n.value, nil
}

type stringNode struct {
	value string
}

func (n *stringNode) eval(env *Env) (dataset.Value, error) {
	return n.value, nil
}

// columnRangeNode is a single-column range reference: A:A, B2:B, or an
// alias range resolved to a column name. Exactly one of letter and column
// is set.
type columnRangeNode struct {
	letter   string
	column   string
	startRow int
}

func (n *columnRangeNode) eval(env *Env) (dataset.Value, error) {
	column := n.column
	if column == "" {
		resolved, ok := env.resolveColumn(n.letter)
		if !ok {
			return nil, fmt.Errorf("no column assigned to letter %s", n.letter)
		}
		column = resolved
	}

	if env.Row != nil {
		value, ok := env.Row[column]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", column)
		}
		if value == nil {
			return float64(0), nil
		}
		return value, nil
	}

	if env.View == nil || !env.View.Table().HasColumn(column) {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	values := env.View.ColumnData(column, n.startRow)
	return []dataset.Value(values), nil
}

// cellRefNode is a single cell reference such as A2. In per-row mode the
// row number is ignored and the reference reads the current row.
type cellRefNode struct {
	letter string
	row    int // 0-based
}

func (n *cellRefNode) eval(env *Env) (dataset.Value, error) {
	column, ok := env.resolveColumn(n.letter)
	if !ok {
		return nil, fmt.Errorf("no column assigned to letter %s", n.letter)
	}
	if env.Row != nil {
		value := env.Row[column]
		if value == nil {
			return float64(0), nil
		}
		return value, nil
	}
	return env.View.CellValue(column, n.row), nil
}

// identNode is a bare word: a column referenced by name. Unknown names
// evaluate to their own text, so a formula comparing against an unquoted
// word still works.
type identNode struct {
	name string
}

func (n *identNode) eval(env *Env) (dataset.Value, error) {
	if env.Row != nil {
		if value, ok := env.Row[n.name]; ok {
			if value == nil {
				return float64(0), nil
			}
			return value, nil
		}
		return n.name, nil
	}
	if env.View != nil && env.View.Table().HasColumn(n.name) {
		return []dataset.Value(env.View.ColumnData(n.name, 1)), nil
	}
	return n.name, nil
}

// unsupportedNode carries a construct the grammar does not cover, such as a
// multi-column range. Translation stays total; the failure surfaces at
// evaluation time.
type unsupportedNode struct {
	text string
}

func (n *unsupportedNode) eval(env *Env) (dataset.Value, error) {
	return nil, fmt.Errorf("unsupported construct %q", n.text)
}

type binaryNode struct {
	op    string
	left  node
	right node
}

func (n *binaryNode) eval(env *Env) (dataset.Value, error) {
	left, err := n.left.eval(env)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(env)
	if err != nil {
		return nil, err
	}
	return applyBinary(n.op, left, right)
}

type unaryNode struct {
	op      string
	operand node
}

func (n *unaryNode) eval(env *Env) (dataset.Value, error) {
	value, err := n.operand.eval(env)
	if err != nil {
		return nil, err
	}
	return mapElementwise(value, func(v dataset.Value) (dataset.Value, error) {
		num, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("unary %s requires a number, got %v", n.op, v)
		}
		if n.op == "-" {
			return -num, nil
		}
		return num, nil
	})
}

type funcNode struct {
	name string
	impl builtinFunc
	args []node
}

func (n *funcNode) eval(env *Env) (dataset.Value, error) {
	// IF is a special form: only the taken branch is evaluated for scalar
	// conditions, and array conditions select elementwise.
	if n.name == "IF" {
		return n.evalIf(env)
	}

	args := make([]dataset.Value, len(n.args))
	for i, argNode := range n.args {
		value, err := argNode.eval(env)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}
	return n.impl(env, args)
}

func (n *funcNode) evalIf(env *Env) (dataset.Value, error) {
	if len(n.args) < 2 || len(n.args) > 3 {
		return nil, fmt.Errorf("IF takes 2 or 3 arguments, got %d", len(n.args))
	}
	cond, err := n.args[0].eval(env)
	if err != nil {
		return nil, err
	}

	falseBranch := func() (dataset.Value, error) {
		if len(n.args) < 3 {
			return false, nil
		}
		return n.args[2].eval(env)
	}

	if conds, ok := cond.([]dataset.Value); ok {
		trueVal, err := n.args[1].eval(env)
		if err != nil {
			return nil, err
		}
		falseVal, err := falseBranch()
		if err != nil {
			return nil, err
		}
		out := make([]dataset.Value, len(conds))
		for i, c := range conds {
			if isTruthy(c) {
				out[i] = pick(trueVal, i)
			} else {
				out[i] = pick(falseVal, i)
			}
		}
		return out, nil
	}

	if isTruthy(cond) {
		return n.args[1].eval(env)
	}
	return falseBranch()
}

// pick selects element i when v is an array, otherwise broadcasts the
// scalar.
func pick(v dataset.Value, i int) dataset.Value {
	arr, ok := v.([]dataset.Value)
	if !ok {
		return v
	}
	if i >= len(arr) {
		return nil
	}
	return arr[i]
}

// applyBinary evaluates one binary operator, lifting it elementwise when
// either operand is an array. Predicates over a column range therefore
// produce an array of booleans rather than a single truth value.
func applyBinary(op string, left, right dataset.Value) (dataset.Value, error) {
	leftArr, leftIsArr := left.([]dataset.Value)
	rightArr, rightIsArr := right.([]dataset.Value)

	if leftIsArr || rightIsArr {
		length := 0
		if leftIsArr {
			length = len(leftArr)
		}
		if rightIsArr && len(rightArr) > length {
			length = len(rightArr)
		}
		out := make([]dataset.Value, length)
		for i := 0; i < length; i++ {
			result, err := applyBinaryScalar(op, pick(left, i), pick(right, i))
			if err != nil {
				return nil, err
			}
			out[i] = result
		}
		return out, nil
	}

	return applyBinaryScalar(op, left, right)
}

func applyBinaryScalar(op string, left, right dataset.Value) (dataset.Value, error) {
	switch op {
	case "&":
		return toText(left) + toText(right), nil
	case "=":
		return compareValues(left, right) == 0, nil
	case "<>", "!=":
		return compareValues(left, right) != 0, nil
	case "<":
		return compareValues(left, right) < 0, nil
	case "<=":
		return compareValues(left, right) <= 0, nil
	case ">":
		return compareValues(left, right) > 0, nil
	case ">=":
		return compareValues(left, right) >= 0, nil
	}

	leftNum, leftOk := toNumber(left)
	rightNum, rightOk := toNumber(right)
	if !leftOk || !rightOk {
		return nil, fmt.Errorf("operator %s requires numbers, got %v and %v", op, left, right)
	}
	switch op {
	case "+":
		return leftNum + rightNum, nil
	case "-":
		return leftNum - rightNum, nil
	case "*":
		return leftNum * rightNum, nil
	case "/":
		// a zero denominator yields a non-finite value rather than an
		// error, so growth-style formulas over a column keep computing;
		// numeric aggregates exclude non-finite elements
		return leftNum / rightNum, nil
	case "^":
		return math.Pow(leftNum, rightNum), nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

func mapElementwise(v dataset.Value, f func(dataset.Value) (dataset.Value, error)) (dataset.Value, error) {
	arr, ok := v.([]dataset.Value)
	if !ok {
		return f(v)
	}
	out := make([]dataset.Value, len(arr))
	for i, elem := range arr {
		result, err := f(elem)
		if err != nil {
			return nil, err
		}
		out[i] = result
	}
	return out, nil
}

// toNumber coerces a value to float64. Strings parse leniently, booleans
// map to 1/0, nil and non-numeric text do not coerce.
func toNumber(v dataset.Value) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toText(v dataset.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func isTruthy(v dataset.Value) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

func isEmptyValue(v dataset.Value) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// compareValues orders two values: numerics numerically when both sides
// coerce, otherwise booleans, otherwise text. nil sorts first.
func compareValues(left, right dataset.Value) int {
	if left == nil && right == nil {
		return 0
	}
	if left == nil {
		return -1
	}
	if right == nil {
		return 1
	}

	leftNum, leftIsNum := toNumber(left)
	rightNum, rightIsNum := toNumber(right)
	if leftIsNum && rightIsNum {
		switch {
		case leftNum < rightNum:
			return -1
		case leftNum > rightNum:
			return 1
		default:
			return 0
		}
	}

	leftBool, leftIsBool := left.(bool)
	rightBool, rightIsBool := right.(bool)
	if leftIsBool && rightIsBool {
		switch {
		case leftBool == rightBool:
			return 0
		case !leftBool:
			return -1
		default:
			return 1
		}
	}

	leftStr := toText(left)
	rightStr := toText(right)
	switch {
	case leftStr < rightStr:
		return -1
	case leftStr > rightStr:
		return 1
	default:
		return 0
	}
}
