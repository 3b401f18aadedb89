// Package compiler turns user-supplied right-hand sides into a positional
// vector field. Declared variables become y[i], every other free name that is
// not a math function, constant or time becomes a parameter p[j].
package compiler

import (
	"strconv"
	"strings"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/expr"
)

// Field is the compiled form of an ODE system.
type Field struct {
	// Variables are the declared state names, uppercase, in declaration order.
	Variables []string
	// Parameters are the discovered free names, lowercase, in first-discovery order.
	Parameters []string
	// Exprs are the rewritten right-hand sides, one per variable.
	Exprs []expr.Node
	// Original keeps the right-hand sides as the user typed them.
	Original []string
}

// Dim returns the number of state variables.
func (f *Field) Dim() int { return len(f.Variables) }

// Equations returns each rewritten right-hand side as text.
func (f *Field) Equations() []string {
	out := make([]string, len(f.Exprs))
	for i, e := range f.Exprs {
		out[i] = e.String()
	}
	return out
}

// Source returns the comma-joined rewritten field, e.g. "-p[0]*y[0]".
func (f *Field) Source() string {
	return strings.Join(f.Equations(), ", ")
}

// ParseVariables splits and normalizes a comma-separated variable list.
func ParseVariables(text string) ([]string, error) {
	parts := strings.Split(text, ",")
	vars := make([]string, 0, len(parts))
	for _, p := range parts {
		vars = append(vars, strings.TrimSpace(p))
	}
	return normalizeVariables(vars)
}

func normalizeVariables(vars []string) ([]string, error) {
	if len(vars) == 0 {
		return nil, &dynamo.ExpressionError{Pos: -1, Reason: "no variables declared"}
	}
	seen := make(map[string]bool, len(vars))
	out := make([]string, len(vars))
	for i, v := range vars {
		v = strings.TrimSpace(v)
		if !isIdentifier(v) {
			return nil, &dynamo.ExpressionError{Text: v, Pos: -1, Reason: "variable name must be an identifier"}
		}
		lower := strings.ToLower(v)
		if expr.IsReserved(lower) || expr.IsLibraryName(lower) {
			return nil, &dynamo.ExpressionError{Text: v, Pos: -1, Reason: "variable name collides with a reserved name"}
		}
		if seen[lower] {
			return nil, &dynamo.ExpressionError{Text: v, Pos: -1, Reason: "variable declared twice"}
		}
		seen[lower] = true
		out[i] = strings.ToUpper(v)
	}
	return out, nil
}

func isIdentifier(s string) bool {
	n, err := expr.Parse(s)
	if err != nil {
		return false
	}
	_, ok := n.(*expr.Ident)
	return ok
}

// Compile compiles a comma-joined list of right-hand sides, one per variable
// in declaration order. Each entry may carry a "dX/dt =" prefix.
func Compile(variables []string, rhs string) (*Field, error) {
	items, err := expr.SplitList(rhs)
	if err != nil {
		return nil, err
	}
	return CompileEquations(variables, items)
}

// CompileEquations compiles one right-hand side per variable.
func CompileEquations(variables []string, equations []string) (*Field, error) {
	vars, err := normalizeVariables(variables)
	if err != nil {
		return nil, err
	}
	if len(equations) != len(vars) {
		return nil, &dynamo.ArityError{What: "right-hand sides per variable", Expected: len(vars), Actual: len(equations)}
	}

	varIndex := make(map[string]int, len(vars))
	for i, v := range vars {
		varIndex[strings.ToLower(v)] = i
	}

	f := &Field{
		Variables: vars,
		Exprs:     make([]expr.Node, len(equations)),
		Original:  make([]string, len(equations)),
	}

	// Step 1: parse and substitute variables on identifier nodes only, so a
	// variable never matches inside a longer name.
	for i, eq := range equations {
		src := expr.StripLHS(eq)
		f.Original[i] = src
		tree, err := expr.Parse(src)
		if err != nil {
			return nil, err
		}
		var rewriteErr error
		f.Exprs[i] = expr.Rewrite(tree, func(n expr.Node) expr.Node {
			switch x := n.(type) {
			case *expr.Ident:
				if idx, ok := varIndex[strings.ToLower(x.Name)]; ok {
					return &expr.Index{Array: expr.StateArray, Index: idx, Offset: x.Offset}
				}
				return &expr.Ident{Name: strings.ToLower(x.Name), Offset: x.Offset}
			case *expr.Call:
				if _, ok := varIndex[strings.ToLower(x.Func)]; ok && rewriteErr == nil {
					rewriteErr = &dynamo.ExpressionError{Text: src, Pos: x.Offset, Reason: "variable " + x.Func + " used as a function"}
				}
				return &expr.Call{Func: strings.ToLower(x.Func), Args: x.Args, Offset: x.Offset}
			case *expr.Index:
				if rewriteErr == nil {
					rewriteErr = &dynamo.ExpressionError{Text: src, Pos: x.Offset, Reason: "positional reference " + x.String() + " not allowed; use names"}
				}
			}
			return n
		})
		if rewriteErr != nil {
			return nil, rewriteErr
		}
	}

	// Step 2: discover parameters.
	params, err := discoverParameters(f.Exprs)
	if err != nil {
		return nil, err
	}
	f.Parameters = params

	// Step 3: substitute parameters.
	paramIndex := make(map[string]int, len(params))
	for j, p := range params {
		paramIndex[p] = j
	}
	for i, tree := range f.Exprs {
		f.Exprs[i] = expr.Rewrite(tree, func(n expr.Node) expr.Node {
			if id, ok := n.(*expr.Ident); ok {
				if j, ok := paramIndex[id.Name]; ok {
					return &expr.Index{Array: expr.ParamArray, Index: j, Offset: id.Offset}
				}
			}
			return n
		})
	}

	scope := expr.Scope{StateDim: len(vars), ParamDim: len(params), Time: true}
	for i, tree := range f.Exprs {
		if _, err := expr.Bind(tree, scope); err != nil {
			return nil, wrapEquation(i, vars[i], err)
		}
	}
	return f, nil
}

// discoverParameters walks the trees in declaration order and returns the
// free identifiers in order of first appearance. Call targets, the math
// library and t are excluded.
func discoverParameters(trees []expr.Node) ([]string, error) {
	var (
		names   []string
		seen    = map[string]bool{}
		callees = map[string]bool{}
		badName *expr.Ident
	)
	for _, tree := range trees {
		expr.Walk(tree, func(n expr.Node) bool {
			switch x := n.(type) {
			case *expr.Ident:
				if (x.Name == expr.StateArray || x.Name == expr.ParamArray) && badName == nil {
					badName = x
				}
				if !seen[x.Name] {
					seen[x.Name] = true
					names = append(names, x.Name)
				}
			case *expr.Call:
				callees[x.Func] = true
			}
			return true
		})
	}
	if badName != nil {
		return nil, &dynamo.ExpressionError{Text: badName.Name, Pos: -1, Reason: "reserved name used as a parameter"}
	}

	params := make([]string, 0, len(names))
	for _, name := range names {
		if name == expr.TimeName || callees[name] || expr.IsLibraryName(name) {
			continue
		}
		params = append(params, name)
	}
	return params, nil
}

func wrapEquation(i int, variable string, err error) error {
	if ee, ok := err.(*dynamo.ExpressionError); ok {
		return &dynamo.ExpressionError{
			Text:   ee.Text,
			Pos:    ee.Pos,
			Reason: ee.Reason + " (in d" + variable + "/dt, equation " + strconv.Itoa(i+1) + ")",
		}
	}
	return err
}
