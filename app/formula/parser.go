package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Harshvardhan-source/slate/app/dataset"
)

// EvaluationError reports a formula that could not be evaluated. It carries
// the original formula text so callers can log or display the failing
// source.
type EvaluationError struct {
	Formula string
	Reason  string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %s", e.Formula, e.Reason)
}

// Compiled is the executable form of one formula string. Compilation is
// total: lexing or parsing failures are deferred and reported as an
// EvaluationError on the first Eval call. Compiled expressions are
// transient; callers recompile from the formula string per evaluation
// rather than caching across data reloads.
type Compiled struct {
	Formula string

	root    node
	literal string
	err     *EvaluationError
}

// IsFormula reports whether s carries the "=" formula prefix. Unprefixed
// strings are literal values.
func IsFormula(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "=")
}

// Compile turns a formula string into an executable expression. Input
// without the "=" prefix compiles to a constant yielding the input text.
func Compile(input string) *Compiled {
	c := &Compiled{Formula: input}

	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "=") {
		c.literal = input
		return c
	}
	body := trimmed[1:]

	tokens, err := newLexer(body).tokenize()
	if err != nil {
		c.err = &EvaluationError{Formula: input, Reason: err.Error()}
		return c
	}

	p := &parser{tokens: tokens}
	root, err := p.parse()
	if err != nil {
		c.err = &EvaluationError{Formula: input, Reason: err.Error()}
		return c
	}
	c.root = root
	return c
}

// Eval executes the expression against env. The result is a scalar
// (float64, string, bool, nil) or an array of scalars.
func (c *Compiled) Eval(env *Env) (dataset.Value, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.root == nil {
		return c.literal, nil
	}
	result, err := c.root.eval(env)
	if err != nil {
		if evalErr, ok := err.(*EvaluationError); ok {
			return nil, evalErr
		}
		return nil, &EvaluationError{Formula: c.Formula, Reason: err.Error()}
	}
	return result, nil
}

// parser is a recursive-descent parser over the token stream. Precedence,
// lowest first: comparison, concatenation, addition, multiplication,
// exponentiation, unary.
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) parse() (node, error) {
	root, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokenEOF {
		return nil, fmt.Errorf("unexpected token %q after expression", p.current().value)
	}
	return root, nil
}

func (p *parser) current() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.current()
		if tok.kind != tokenOp {
			return left, nil
		}
		switch tok.value {
		case "=", "<>", "!=", "<", "<=", ">", ">=":
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseConcatenation()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.value, left: left, right: right}
	}
}

func (p *parser) parseConcatenation() (node, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokenOp && p.current().value == "&" {
		p.pos++
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "&", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAddition() (node, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.current()
		if tok.kind != tokenOp || (tok.value != "+" && tok.value != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.value, left: left, right: right}
	}
}

func (p *parser) parseMultiplication() (node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.current()
		if tok.kind != tokenOp || (tok.value != "*" && tok.value != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.value, left: left, right: right}
	}
}

func (p *parser) parsePower() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.current().kind == tokenOp && p.current().value == "^" {
		p.pos++
		// right-associative
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: "^", left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	tok := p.current()
	if tok.kind == tokenOp && (tok.value == "+" || tok.value == "-") {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.value == "+" {
			return operand, nil
		}
		return &unaryNode{op: "-", operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.current()
	switch tok.kind {
	case tokenNumber:
		p.pos++
		value, err := strconv.ParseFloat(tok.value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.value)
		}
		return &numberNode{value: value}, nil

	case tokenString:
		p.pos++
		return &stringNode{value: tok.value}, nil

	case tokenCell:
		p.pos++
		return parseCellRef(tok.value)

	case tokenRange:
		p.pos++
		return parseRangeRef(tok.value), nil

	case tokenIdent:
		p.pos++
		return &identNode{name: tok.value}, nil

	case tokenFunc:
		return p.parseFunctionCall()

	case tokenLParen:
		p.pos++
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.current().kind != tokenRParen {
			return nil, fmt.Errorf("expected closing parenthesis")
		}
		p.pos++
		return inner, nil

	case tokenEOF:
		return nil, fmt.Errorf("unexpected end of expression")

	default:
		return nil, fmt.Errorf("unexpected token %q", tok.value)
	}
}

func (p *parser) parseFunctionCall() (node, error) {
	name := p.current().value
	p.pos++
	if p.current().kind != tokenLParen {
		return nil, fmt.Errorf("expected '(' after %s", name)
	}
	p.pos++

	var args []node
	if p.current().kind == tokenRParen {
		p.pos++
		return makeFuncNode(name, args), nil
	}
	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.current().kind {
		case tokenRParen:
			p.pos++
			return makeFuncNode(name, args), nil
		case tokenComma:
			p.pos++
		default:
			return nil, fmt.Errorf("expected ',' or ')' in %s arguments", name)
		}
	}
}

// makeFuncNode binds a function name against the fixed builtin table.
// Unknown names still parse; they fail at evaluation time.
func makeFuncNode(name string, args []node) node {
	canonical, ok := functionNames[name]
	if !ok {
		return &unsupportedNode{text: "unknown function " + name}
	}
	return &funcNode{name: canonical, impl: builtins[canonical], args: args}
}

// parseCellRef turns A2 into a cell node with a 0-based row index.
func parseCellRef(text string) (node, error) {
	letters, digits, ok := splitRef(text)
	if !ok || digits == "" {
		return nil, fmt.Errorf("invalid cell reference %q", text)
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return nil, fmt.Errorf("invalid row in cell reference %q", text)
	}
	return &cellRefNode{letter: letters, row: row - 1}, nil
}

// parseRangeRef resolves range tokens. Letter ranges must stay within one
// column (A:A, B2:B); multi-column ranges are outside the grammar and fail
// at evaluation. Alias ranges over named columns (sales2:sales) resolve to
// the base column name when one side is a prefix of the other.
func parseRangeRef(text string) node {
	parts := strings.SplitN(text, ":", 2)
	leftLetters, leftDigits, leftOk := splitRef(parts[0])
	rightLetters, _, rightOk := splitRef(parts[1])
	if !leftOk || !rightOk {
		return &unsupportedNode{text: text}
	}

	if isUpperLetters(leftLetters) && isUpperLetters(rightLetters) && len(leftLetters) <= 3 && len(rightLetters) <= 3 {
		if leftLetters != rightLetters {
			return &unsupportedNode{text: text}
		}
		startRow := 1
		if leftDigits != "" {
			if n, err := strconv.Atoi(leftDigits); err == nil && n > 0 {
				startRow = n
			}
		}
		return &columnRangeNode{letter: leftLetters, startRow: startRow}
	}

	// alias range over a named column
	left, right := parts[0], parts[1]
	switch {
	case left == right:
		return &columnRangeNode{column: left, startRow: 1}
	case strings.HasPrefix(left, right):
		return &columnRangeNode{column: right, startRow: 1}
	case strings.HasPrefix(right, left):
		return &columnRangeNode{column: left, startRow: 1}
	default:
		return &unsupportedNode{text: text}
	}
}
