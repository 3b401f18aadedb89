package expr

import (
	"strconv"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | power
//	power   = postfix [ ("^" | "**") unary ]
//	postfix = NUM | IDENT [ "[" INT "]" | "(" [ expr { "," expr } ] ")" ] | "(" expr ")"
type parser struct {
	src    string
	tokens []token
	pos    int
	depth  int
}

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 256

// Parse parses a single arithmetic expression.
func Parse(src string) (Node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(0, "empty expression")
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok.pos, "unexpected "+strconv.Quote(tok.text))
	}
	return n, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(pos int, reason string) error {
	return &dynamo.ExpressionError{Text: p.src, Pos: pos, Reason: reason}
}

func (p *parser) isOp(ops string) (byte, bool) {
	tok := p.peek()
	if tok.kind != tokOp {
		return 0, false
	}
	for i := 0; i < len(ops); i++ {
		if tok.text[0] == ops[i] {
			return ops[i], true
		}
	}
	return 0, false
}

func (p *parser) parseExpr() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.errorf(p.peek().pos, "expression nested too deeply")
	}

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("+-")
		if !ok {
			return left, nil
		}
		tok := p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, Offset: tok.pos}
	}
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("*/")
		if !ok {
			return left, nil
		}
		tok := p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, Offset: tok.pos}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if op, ok := p.isOp("+-"); ok {
		tok := p.next()
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > maxDepth {
			return nil, p.errorf(tok.pos, "expression nested too deeply")
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x, Offset: tok.pos}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if _, ok := p.isOp("^"); !ok {
		return base, nil
	}
	tok := p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: '^', L: base, R: exp, Offset: tok.pos}, nil
}

func (p *parser) parsePostfix() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNum:
		return &Num{Value: tok.num, Lit: tok.text, Offset: tok.pos}, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing.pos, "missing closing parenthesis")
		}
		return inner, nil
	case tokIdent:
		switch p.peek().kind {
		case tokLBrack:
			return p.parseIndex(tok)
		case tokLParen:
			return p.parseCall(tok)
		}
		return &Ident{Name: tok.text, Offset: tok.pos}, nil
	case tokEOF:
		return nil, p.errorf(tok.pos, "unexpected end of expression")
	}
	return nil, p.errorf(tok.pos, "unexpected "+strconv.Quote(tok.text))
}

func (p *parser) parseIndex(name token) (Node, error) {
	p.next() // [
	idx := p.next()
	if idx.kind != tokNum {
		return nil, p.errorf(idx.pos, "index must be an integer literal")
	}
	n, err := strconv.Atoi(idx.text)
	if err != nil || n < 0 {
		return nil, p.errorf(idx.pos, "index must be a non-negative integer")
	}
	if closing := p.next(); closing.kind != tokRBrack {
		return nil, p.errorf(closing.pos, "missing closing bracket")
	}
	return &Index{Array: name.text, Index: n, Offset: name.pos}, nil
}

func (p *parser) parseCall(name token) (Node, error) {
	p.next() // (
	call := &Call{Func: name.text, Offset: name.pos}
	if p.peek().kind == tokRParen {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		tok := p.next()
		switch tok.kind {
		case tokComma:
			continue
		case tokRParen:
			return call, nil
		}
		return nil, p.errorf(tok.pos, "expected \",\" or \")\" in call to "+name.text)
	}
}
