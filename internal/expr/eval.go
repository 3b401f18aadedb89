package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Names with a fixed meaning inside a compiled field.
const (
	StateArray = "y"
	ParamArray = "p"
	TimeName   = "t"
)

// IsReserved reports whether name is one of the evaluator's own names.
func IsReserved(name string) bool {
	switch strings.ToLower(name) {
	case StateArray, ParamArray, TimeName:
		return true
	}
	return false
}

// Env is everything an expression can see at evaluation time.
type Env struct {
	T float64
	Y []float64
	P []float64
}

// Scope describes the names a bound expression may reference.
type Scope struct {
	StateDim int  // y[0] .. y[StateDim-1]
	ParamDim int  // p[0] .. p[ParamDim-1]; AnyParams leaves it open
	Time     bool // whether t is visible
}

// AnyParams lets Bind accept any p index; the caller must check
// Program.ParamCount against the values it supplies.
const AnyParams = -1

type evalFunc func(env *Env) float64

// Program is a validated expression ready for repeated evaluation. Only
// arithmetic over y, p, t and the math allow-list can be expressed.
type Program struct {
	root       Node
	fn         evalFunc
	ParamCount int
	UsesTime   bool
}

func (pr *Program) Eval(env *Env) float64 { return pr.fn(env) }

// Source returns the canonical text of the bound expression.
func (pr *Program) Source() string { return pr.root.String() }

// Bind validates n against scope and compiles it to a closure tree.
func Bind(n Node, scope Scope) (*Program, error) {
	pr := &Program{root: n}
	fn, err := pr.bind(n, scope)
	if err != nil {
		return nil, err
	}
	pr.fn = fn
	return pr, nil
}

func (pr *Program) bind(n Node, sc Scope) (evalFunc, error) {
	switch x := n.(type) {
	case *Num:
		v := x.Value
		return func(*Env) float64 { return v }, nil

	case *Ident:
		name := strings.ToLower(x.Name)
		if name == TimeName && sc.Time {
			pr.UsesTime = true
			return func(env *Env) float64 { return env.T }, nil
		}
		if v, ok := LookupConstant(name); ok {
			return func(*Env) float64 { return v }, nil
		}
		return nil, nodeError(x, "unknown name "+strconv.Quote(x.Name))

	case *Index:
		i := x.Index
		switch strings.ToLower(x.Array) {
		case StateArray:
			if i >= sc.StateDim {
				return nil, nodeError(x, "state index out of range: "+x.String())
			}
			return func(env *Env) float64 { return env.Y[i] }, nil
		case ParamArray:
			if sc.ParamDim != AnyParams && i >= sc.ParamDim {
				return nil, nodeError(x, "parameter index out of range: "+x.String())
			}
			if i+1 > pr.ParamCount {
				pr.ParamCount = i + 1
			}
			return func(env *Env) float64 { return env.P[i] }, nil
		}
		return nil, nodeError(x, "only y[i] and p[j] may be indexed")

	case *Call:
		f, ok := LookupFunction(strings.ToLower(x.Func))
		if !ok {
			return nil, nodeError(x, "unknown function "+strconv.Quote(x.Func))
		}
		if !f.accepts(len(x.Args)) {
			return nil, nodeError(x, "wrong number of arguments to "+f.Name)
		}
		args := make([]evalFunc, len(x.Args))
		for i, a := range x.Args {
			fn, err := pr.bind(a, sc)
			if err != nil {
				return nil, err
			}
			args[i] = fn
		}
		call := f.Fn
		if len(args) == 1 {
			a0 := args[0]
			return func(env *Env) float64 {
				var buf [1]float64
				buf[0] = a0(env)
				return call(buf[:])
			}, nil
		}
		return func(env *Env) float64 {
			vals := make([]float64, len(args))
			for i, a := range args {
				vals[i] = a(env)
			}
			return call(vals)
		}, nil

	case *Unary:
		inner, err := pr.bind(x.X, sc)
		if err != nil {
			return nil, err
		}
		if x.Op == '-' {
			return func(env *Env) float64 { return -inner(env) }, nil
		}
		return inner, nil

	case *Binary:
		l, err := pr.bind(x.L, sc)
		if err != nil {
			return nil, err
		}
		r, err := pr.bind(x.R, sc)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case '+':
			return func(env *Env) float64 { return l(env) + r(env) }, nil
		case '-':
			return func(env *Env) float64 { return l(env) - r(env) }, nil
		case '*':
			return func(env *Env) float64 { return l(env) * r(env) }, nil
		case '/':
			return func(env *Env) float64 { return l(env) / r(env) }, nil
		case '^':
			return func(env *Env) float64 { return math.Pow(l(env), r(env)) }, nil
		}
	}
	return nil, nodeError(n, "unsupported expression")
}

func nodeError(n Node, reason string) error {
	return &dynamo.ExpressionError{Text: n.String(), Pos: -1, Reason: reason}
}

// EvalConstant evaluates text that may only reference numbers, allow-listed
// constants and functions, e.g. "1/3" or "2*pi".
func EvalConstant(src string) (float64, error) {
	n, err := Parse(src)
	if err != nil {
		return 0, err
	}
	pr, err := Bind(n, Scope{})
	if err != nil {
		return 0, err
	}
	return pr.Eval(&Env{}), nil
}
