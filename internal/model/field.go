package model

import (
	"strings"

	"github.com/san-kum/odelab/internal/compiler"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/expr"
)

// Field is a compiled vector field f(t, y, p). It is immutable and safe to
// share between descriptors and goroutines.
type Field struct {
	variables  []string
	paramNames []string
	programs   []*expr.Program
	paramCount int
}

// CompileField binds the output of the expression compiler.
func CompileField(f *compiler.Field) (*Field, error) {
	scope := expr.Scope{StateDim: len(f.Exprs), ParamDim: len(f.Parameters), Time: true}
	field := &Field{
		variables:  append([]string(nil), f.Variables...),
		paramNames: append([]string(nil), f.Parameters...),
		programs:   make([]*expr.Program, len(f.Exprs)),
		paramCount: len(f.Parameters),
	}
	for i, n := range f.Exprs {
		pr, err := expr.Bind(n, scope)
		if err != nil {
			return nil, err
		}
		field.programs[i] = pr
	}
	return field, nil
}

// ParseField parses an already positional field such as
// "-p[0]*y[0]" or "dJ/dt = p[1]*y[0], dR/dt = -p[0]*y[1]". Names may be nil;
// when given they label the variables and parameters.
func ParseField(src string, variables, paramNames []string) (*Field, error) {
	items, err := expr.SplitList(src)
	if err != nil {
		return nil, err
	}
	if variables != nil && len(variables) != len(items) {
		return nil, &dynamo.ArityError{What: "right-hand sides per variable", Expected: len(variables), Actual: len(items)}
	}

	scope := expr.Scope{StateDim: len(items), ParamDim: expr.AnyParams, Time: true}
	if paramNames != nil {
		scope.ParamDim = len(paramNames)
	}

	field := &Field{programs: make([]*expr.Program, len(items))}
	for i, item := range items {
		n, err := expr.Parse(expr.StripLHS(item))
		if err != nil {
			return nil, err
		}
		pr, err := expr.Bind(n, scope)
		if err != nil {
			return nil, err
		}
		field.programs[i] = pr
		if pr.ParamCount > field.paramCount {
			field.paramCount = pr.ParamCount
		}
	}
	if variables != nil {
		field.variables = make([]string, len(variables))
		for i, v := range variables {
			field.variables[i] = strings.ToUpper(strings.TrimSpace(v))
		}
	}
	if paramNames != nil {
		field.paramNames = append([]string(nil), paramNames...)
		field.paramCount = len(paramNames)
	}
	return field, nil
}

// Dim returns the number of state variables.
func (f *Field) Dim() int { return len(f.programs) }

// ParamCount returns how many parameter values the field needs.
func (f *Field) ParamCount() int { return f.paramCount }

// Variables returns the variable names, or nil for an unnamed field.
func (f *Field) Variables() []string { return append([]string(nil), f.variables...) }

// ParameterNames returns the parameter names, or nil when only positions are known.
func (f *Field) ParameterNames() []string { return append([]string(nil), f.paramNames...) }

// Equations returns the positional right-hand sides.
func (f *Field) Equations() []string {
	out := make([]string, len(f.programs))
	for i, pr := range f.programs {
		out[i] = pr.Source()
	}
	return out
}

// Source returns the comma-joined positional field.
func (f *Field) Source() string { return strings.Join(f.Equations(), ", ") }

// Eval returns dy/dt at (t, y) for parameters p. It reads only its arguments.
func (f *Field) Eval(t float64, y, p []float64) []float64 {
	out := make([]float64, len(f.programs))
	env := &expr.Env{T: t, Y: y, P: p}
	for i, pr := range f.programs {
		out[i] = pr.Eval(env)
	}
	return out
}

func (f *Field) paramName(j int) string {
	if j < len(f.paramNames) {
		return f.paramNames[j]
	}
	return ""
}

// boundField closes a Field over a parameter vector.
type boundField struct {
	field  *Field
	params []float64
}

func (b boundField) Derive(t float64, y dynamo.State) dynamo.State {
	return b.field.Eval(t, y, b.params)
}

func (b boundField) StateDim() int { return b.field.Dim() }
