package expr

import (
	"strconv"
	"strings"
)

// Node is an arithmetic expression tree node.
type Node interface {
	Pos() int
	String() string
	prec() int
}

// Operator precedence levels, loosest first.
const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Num is a numeric literal. Lit keeps the source spelling.
type Num struct {
	Value  float64
	Lit    string
	Offset int
}

// Ident is a bare name: a variable, parameter, constant or t.
type Ident struct {
	Name   string
	Offset int
}

// Index is a positional reference into the state or parameter array, y[i] or p[j].
type Index struct {
	Array  string
	Index  int
	Offset int
}

// Call is a function application.
type Call struct {
	Func   string
	Args   []Node
	Offset int
}

// Unary is a prefix sign.
type Unary struct {
	Op     byte
	X      Node
	Offset int
}

// Binary is an infix operation: one of + - * / ^.
type Binary struct {
	Op     byte
	L, R   Node
	Offset int
}

func (n *Num) Pos() int    { return n.Offset }
func (n *Ident) Pos() int  { return n.Offset }
func (n *Index) Pos() int  { return n.Offset }
func (n *Call) Pos() int   { return n.Offset }
func (n *Unary) Pos() int  { return n.Offset }
func (n *Binary) Pos() int { return n.Offset }

func (n *Num) prec() int   { return precAtom }
func (n *Ident) prec() int { return precAtom }
func (n *Index) prec() int { return precAtom }
func (n *Call) prec() int  { return precAtom }
func (n *Unary) prec() int { return precUnary }
func (n *Binary) prec() int {
	switch n.Op {
	case '+', '-':
		return precSum
	case '*', '/':
		return precProduct
	default:
		return precPower
	}
}

func (n *Num) String() string {
	if n.Lit != "" {
		return n.Lit
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *Ident) String() string { return n.Name }

func (n *Index) String() string {
	return n.Array + "[" + strconv.Itoa(n.Index) + "]"
}

func (n *Call) String() string {
	var b strings.Builder
	b.WriteString(n.Func)
	b.WriteByte('(')
	for i, a := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (n *Unary) String() string {
	return string(n.Op) + wrap(n.X, n.X.prec() < precUnary)
}

// String prints with the minimum parentheses needed to reparse to the same tree.
func (n *Binary) String() string {
	p := n.prec()
	var left, right string
	if n.Op == '^' {
		left = wrap(n.L, n.L.prec() <= p)
		right = wrap(n.R, n.R.prec() < precUnary)
	} else {
		left = wrap(n.L, n.L.prec() < p)
		right = wrap(n.R, n.R.prec() <= p)
	}
	return left + string(n.Op) + right
}

func wrap(n Node, paren bool) string {
	if paren {
		return "(" + n.String() + ")"
	}
	return n.String()
}

// Walk visits n and its descendants in pre-order, left to right. Children are
// skipped when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch x := n.(type) {
	case *Call:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	case *Unary:
		Walk(x.X, fn)
	case *Binary:
		Walk(x.L, fn)
		Walk(x.R, fn)
	}
}

// Rewrite returns a copy of n where every node has been passed through fn,
// children first. The input tree is not modified.
func Rewrite(n Node, fn func(Node) Node) Node {
	switch x := n.(type) {
	case *Num:
		c := *x
		return fn(&c)
	case *Ident:
		c := *x
		return fn(&c)
	case *Index:
		c := *x
		return fn(&c)
	case *Call:
		args := make([]Node, len(x.Args))
		for i, a := range x.Args {
			args[i] = Rewrite(a, fn)
		}
		return fn(&Call{Func: x.Func, Args: args, Offset: x.Offset})
	case *Unary:
		return fn(&Unary{Op: x.Op, X: Rewrite(x.X, fn), Offset: x.Offset})
	case *Binary:
		return fn(&Binary{Op: x.Op, L: Rewrite(x.L, fn), R: Rewrite(x.R, fn), Offset: x.Offset})
	}
	return n
}
