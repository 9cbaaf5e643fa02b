package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokFloat
	tokString
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int

	// str holds the decoded value of string tokens.
	str string
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return strconv.Quote(t.text)
}

// Longest operators first so "**" wins over "*".
var operators = []string{
	"**", "//", "<=", ">=", "==", "!=", "&&", "||",
	"+", "-", "*", "/", "%", "^", "<", ">", "!",
	"(", ")", "[", "]", ",", ":", ".", "=",
}

type lexer struct {
	input string
	pos   int
}

func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	var out []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.kind == tokEOF {
			return out, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	switch {
	case isDigit(r) || (r == '.' && l.pos+1 < len(l.input) && isDigit(rune(l.input[l.pos+1]))):
		return l.number()
	case r == '"' || r == '\'':
		return l.str(r)
	case r == '_' || unicode.IsLetter(r):
		for l.pos < len(l.input) {
			r, size := utf8.DecodeRuneInString(l.input[l.pos:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			l.pos += size
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op) {
			l.pos += len(op)
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	return token{}, &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", r)}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (l *lexer) number() (token, error) {
	start := l.pos
	kind := tokInt
	for l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		kind = tokFloat
		l.pos++
		for l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
			kind = tokFloat
			for l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	return token{kind: kind, text: l.input[start:l.pos], pos: start}, nil
}

// str lexes a quoted string. Double quoted strings use Go escapes so
// Str.Literal round trips, single quoted strings only escape the quote and
// backslash.
func (l *lexer) str(quote rune) (token, error) {
	start := l.pos
	l.pos++
	escaped := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		l.pos++
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case rune(c) == quote:
			text := l.input[start:l.pos]
			value, err := decodeString(text, quote)
			if err != nil {
				return token{}, &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid string %s", text)}
			}
			return token{kind: tokString, text: text, pos: start, str: value}, nil
		}
	}
	return token{}, &SyntaxError{Pos: start, Msg: "unterminated string"}
}

func decodeString(text string, quote rune) (string, error) {
	if quote == '"' {
		return strconv.Unquote(text)
	}
	body := text[1 : len(text)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			switch body[i+1] {
			case '\\', '\'':
				i++
				sb.WriteByte(body[i])
				continue
			case 'n':
				i++
				sb.WriteByte('\n')
				continue
			case 't':
				i++
				sb.WriteByte('\t')
				continue
			}
		}
		sb.WriteByte(body[i])
	}
	return sb.String(), nil
}
