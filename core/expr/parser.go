package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses an expression into its syntax tree.
//
// Precedence from loosest to tightest: or, and, not, comparison chains,
// xor, + -, * / // %, unary - +, power (^ or **), then calls, indexing and
// attribute access.
func Parse(input string) (Node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok)
	}
	return n, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

// accept consumes the next token if it's one of the given operators or
// keywords.
func (p *parser) accept(texts ...string) (string, bool) {
	tok := p.peek()
	if tok.kind != tokOp && tok.kind != tokIdent {
		return "", false
	}
	for _, text := range texts {
		if tok.text == text {
			p.advance()
			return text, true
		}
	}
	return "", false
}

func (p *parser) expect(op string) error {
	if tok := p.peek(); !tok.is(tokOp, op) {
		return &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("expected %q, got %s", op, tok)}
	}
	p.advance()
	return nil
}

func (p *parser) unexpected(tok token) error {
	return &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", tok)}
}

func (p *parser) or() (Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("or", "||"); !ok {
			return left, nil
		}
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "or", Left: left, Right: right}
	}
}

func (p *parser) and() (Node, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("and", "&&"); !ok {
			return left, nil
		}
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "and", Left: left, Right: right}
	}
}

func (p *parser) not() (Node, error) {
	if _, ok := p.accept("not", "!"); ok {
		operand, err := p.not()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", Operand: operand}, nil
	}
	return p.comparison()
}

var comparisonOps = []string{"<", "<=", ">", ">=", "==", "!="}

func (p *parser) comparison() (Node, error) {
	first, err := p.xor()
	if err != nil {
		return nil, err
	}
	cmp := &CompareExpr{Operands: []Node{first}}
	for {
		op, ok := p.accept(comparisonOps...)
		if !ok {
			break
		}
		next, err := p.xor()
		if err != nil {
			return nil, err
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Operands = append(cmp.Operands, next)
	}
	if len(cmp.Ops) == 0 {
		return first, nil
	}
	return cmp, nil
}

func (p *parser) xor() (Node, error) {
	return p.binary(p.additive, "xor")
}

func (p *parser) additive() (Node, error) {
	return p.binary(p.term, "+", "-")
}

func (p *parser) term() (Node, error) {
	return p.binary(p.unary, "*", "/", "//", "%")
}

// binary parses a left associative run of operators.
func (p *parser) binary(operand func() (Node, error), ops ...string) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept(ops...)
		if !ok {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) unary() (Node, error) {
	if op, ok := p.accept("-", "+"); ok {
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Operand: operand}, nil
	}
	return p.power()
}

func (p *parser) power() (Node, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if _, ok := p.accept("^", "**"); ok {
		// Right associative and binds looser than a unary minus on its right.
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: "^", Left: base, Right: exp}, nil
	}
	return base, nil
}

func (p *parser) postfix() (Node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch tok := p.peek(); {
		case tok.is(tokOp, "("):
			p.advance()
			n, err = p.call(n)
		case tok.is(tokOp, "["):
			p.advance()
			n, err = p.subscript(n)
		case tok.is(tokOp, "."):
			p.advance()
			name := p.advance()
			if name.kind != tokIdent {
				return nil, p.unexpected(name)
			}
			n = &AttrExpr{X: n, Name: name.text}
		default:
			return n, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) call(callee Node) (Node, error) {
	call := &CallExpr{Func: dottedName(callee)}
	if call.Func == "" {
		return nil, fmt.Errorf("%w: only named functions can be called", ErrUnsupportedExpression)
	}

	for !p.peek().is(tokOp, ")") {
		if p.peek().kind == tokIdent && p.peekAt(1).is(tokOp, "=") {
			call.Keywords = append(call.Keywords, p.advance().text)
			p.advance()
		}
		arg, err := p.or()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if _, ok := p.accept(","); !ok {
			break
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return call, nil
}

// dottedName returns "a.b.c" for a chain of names and attributes, or "" if
// the node is anything else.
func dottedName(n Node) string {
	switch n := n.(type) {
	case *NameExpr:
		return n.Name
	case *AttrExpr:
		if prefix := dottedName(n.X); prefix != "" {
			return prefix + "." + n.Name
		}
	}
	return ""
}

func (p *parser) subscript(x Node) (Node, error) {
	var low, high Node
	var err error
	if !p.peek().is(tokOp, ":") {
		low, err = p.or()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept("]"); ok {
			return &IndexExpr{X: x, Index: low}, nil
		}
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	if !p.peek().is(tokOp, "]") {
		high, err = p.or()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return &SliceExpr{X: x, Low: low, High: high}, nil
}

func (p *parser) primary() (Node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokInt:
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("invalid integer %s", tok.text)}
		}
		return &LiteralExpr{Value: Int(v)}, nil

	case tokFloat:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("invalid float %s", tok.text)}
		}
		return &LiteralExpr{Value: Float(v)}, nil

	case tokString:
		s := tok.str
		// Adjacent strings concatenate.
		for p.peek().kind == tokString {
			s += p.advance().str
		}
		return &LiteralExpr{Value: Str(s)}, nil

	case tokIdent:
		switch strings.ToLower(tok.text) {
		case "true":
			return &LiteralExpr{Value: Bool(true)}, nil
		case "false":
			return &LiteralExpr{Value: Bool(false)}, nil
		}
		return &NameExpr{Name: tok.text}, nil

	case tokOp:
		switch tok.text {
		case "(":
			n, err := p.or()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return n, nil
		case "[":
			list := &ListExpr{}
			for !p.peek().is(tokOp, "]") {
				item, err := p.or()
				if err != nil {
					return nil, err
				}
				list.Items = append(list.Items, item)
				if _, ok := p.accept(","); !ok {
					break
				}
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			return list, nil
		}
	}
	return nil, p.unexpected(tok)
}
