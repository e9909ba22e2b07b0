package formula

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenString
	tokenCell
	tokenRange
	tokenFunc
	tokenIdent
	tokenOp
	tokenComma
	tokenLParen
	tokenRParen
)

type token struct {
	kind  tokenKind
	value string
	pos   int
}

// lexer tokenizes a formula body (the text after the "=" prefix has been
// stripped). Inside the body a bare "=" is always the comparison operator,
// which removes the prefix/comparison ambiguity before parsing starts.
type lexer struct {
	runes []rune
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{runes: []rune(input)}
}

func (l *lexer) tokenize() ([]token, error) {
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.runes) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	ch := l.current()

	if ch == '"' || ch == '\'' {
		return l.scanString(ch)
	}
	if isDigit(ch) || (ch == '.' && isDigit(l.peek(1))) {
		return l.scanNumber(), nil
	}
	if isAlpha(ch) || ch == '_' {
		return l.scanWord(), nil
	}

	switch ch {
	case '(':
		l.pos++
		return token{kind: tokenLParen, value: "(", pos: start}, nil
	case ')':
		l.pos++
		return token{kind: tokenRParen, value: ")", pos: start}, nil
	case ',':
		l.pos++
		return token{kind: tokenComma, value: ",", pos: start}, nil
	case '+', '-', '*', '/', '^', '&', '=':
		l.pos++
		return token{kind: tokenOp, value: string(ch), pos: start}, nil
	case '<':
		l.pos++
		if l.current() == '>' {
			l.pos++
			return token{kind: tokenOp, value: "<>", pos: start}, nil
		}
		if l.current() == '=' {
			l.pos++
			return token{kind: tokenOp, value: "<=", pos: start}, nil
		}
		return token{kind: tokenOp, value: "<", pos: start}, nil
	case '>':
		l.pos++
		if l.current() == '=' {
			l.pos++
			return token{kind: tokenOp, value: ">=", pos: start}, nil
		}
		return token{kind: tokenOp, value: ">", pos: start}, nil
	case '!':
		l.pos++
		if l.current() == '=' {
			l.pos++
			return token{kind: tokenOp, value: "!=", pos: start}, nil
		}
		return token{}, fmt.Errorf("unexpected '!' at position %d", start)
	}

	return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
}

func (l *lexer) current() rune {
	if l.pos >= len(l.runes) {
		return 0
	}
	return l.runes[l.pos]
}

func (l *lexer) peek(offset int) rune {
	p := l.pos + offset
	if p < 0 || p >= len(l.runes) {
		return 0
	}
	return l.runes[p]
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		switch l.current() {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) scanString(quote rune) (token, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == quote {
			// doubled quote is an escape
			if l.peek(1) == quote {
				sb.WriteRune(quote)
				l.pos += 2
				continue
			}
			l.pos++
			return token{kind: tokenString, value: sb.String(), pos: start}, nil
		}
		sb.WriteRune(ch)
		l.pos++
	}
	return token{}, fmt.Errorf("unclosed string literal at position %d", start)
}

func (l *lexer) scanNumber() token {
	start := l.pos
	for isDigit(l.current()) {
		l.pos++
	}
	if l.current() == '.' && isDigit(l.peek(1)) {
		l.pos++
		for isDigit(l.current()) {
			l.pos++
		}
	}
	if l.current() == 'e' || l.current() == 'E' {
		saved := l.pos
		l.pos++
		if l.current() == '+' || l.current() == '-' {
			l.pos++
		}
		if !isDigit(l.current()) {
			l.pos = saved
		} else {
			for isDigit(l.current()) {
				l.pos++
			}
		}
	}
	return token{kind: tokenNumber, value: string(l.runes[start:l.pos]), pos: start}
}

// scanWord scans identifiers, function names, cell references, and ranges.
// A word followed by ":" and another word forms a range token (A:A, B2:B, or
// an alias range over a named column). A word followed by "(" is a function.
func (l *lexer) scanWord() token {
	start := l.pos
	for isAlphaNumeric(l.current()) || l.current() == '_' {
		l.pos++
	}
	value := string(l.runes[start:l.pos])

	if l.current() == ':' && (isAlpha(l.peek(1)) || l.peek(1) == '_') {
		l.pos++
		secondStart := l.pos
		for isAlphaNumeric(l.current()) || l.current() == '_' {
			l.pos++
		}
		second := string(l.runes[secondStart:l.pos])
		return token{kind: tokenRange, value: value + ":" + second, pos: start}
	}

	if l.current() == '(' {
		return token{kind: tokenFunc, value: strings.ToUpper(value), pos: start}
	}

	if isCellRef(value) {
		return token{kind: tokenCell, value: value, pos: start}
	}

	return token{kind: tokenIdent, value: value, pos: start}
}

// isCellRef reports whether s is an uppercase-letter column followed by a
// row number, e.g. A2 or AB10. Lowercase words never classify as cells so
// that column names like "year2024" stay identifiers.
func isCellRef(s string) bool {
	letterEnd := 0
	for i, ch := range s {
		if ch >= 'A' && ch <= 'Z' {
			letterEnd = i + 1
		} else {
			break
		}
	}
	if letterEnd == 0 || letterEnd == len(s) {
		return false
	}
	for _, ch := range s[letterEnd:] {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// splitRef splits a reference into its letter prefix and digit suffix.
// Returns ok=false when the remainder is not purely digits.
func splitRef(s string) (letters, digits string, ok bool) {
	letterEnd := 0
	for i, ch := range s {
		if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch == '_' {
			letterEnd = i + 1
		} else {
			break
		}
	}
	for _, ch := range s[letterEnd:] {
		if ch < '0' || ch > '9' {
			return "", "", false
		}
	}
	return s[:letterEnd], s[letterEnd:], true
}

func isUpperLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < 'A' || ch > 'Z' {
			return false
		}
	}
	return true
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlphaNumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch)
}
