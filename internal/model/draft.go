package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/odelab/internal/compiler"
	"github.com/san-kum/odelab/internal/dynamo"
)

var ErrIncompleteDraft = errors.New("model: draft is incomplete")

// Draft collects a model field by field as text, the way a user supplies it.
// The zero value is an empty draft.
type Draft struct {
	Name        string
	Description string

	Variables []string
	// Equations holds one right-hand side per variable, in declaration order.
	Equations []string
	TimeSpan  string
	// InitialConditions holds one value per variable.
	InitialConditions []string
	// Parameters holds values in discovery order. ParameterValues, when set,
	// takes precedence.
	Parameters      []string
	ParameterValues []ParamValue

	Resolution int
	Method     Method
	RTol, ATol float64
}

// Compile compiles the draft's equations. It needs every equation.
func (d *Draft) Compile() (*compiler.Field, error) {
	if len(d.Variables) == 0 || len(d.Equations) < len(d.Variables) {
		return nil, fmt.Errorf("%w: equations", ErrIncompleteDraft)
	}
	return compiler.CompileEquations(d.Variables, d.Equations)
}

// Missing lists the fields still needed before Build can succeed, in the
// order they are asked for.
func (d *Draft) Missing() []string {
	var missing []string
	if len(d.Variables) == 0 {
		return []string{"variables", "equations", "time span", "initial conditions"}
	}
	if len(d.Equations) < len(d.Variables) {
		missing = append(missing, "equations")
	}
	if strings.TrimSpace(d.TimeSpan) == "" {
		missing = append(missing, "time span")
	}
	if len(d.InitialConditions) < len(d.Variables) {
		missing = append(missing, "initial conditions")
	}
	if len(missing) > 0 {
		return missing
	}
	if d.ParameterValues != nil {
		return nil
	}
	f, err := d.Compile()
	if err != nil {
		return nil
	}
	for _, name := range f.Parameters[min(len(d.Parameters), len(f.Parameters)):] {
		missing = append(missing, "parameter "+name)
	}
	return missing
}

// NextParameter returns the name of the first parameter without a value.
func (d *Draft) NextParameter() (string, bool) {
	f, err := d.Compile()
	if err != nil || len(d.Parameters) >= len(f.Parameters) {
		return "", false
	}
	return f.Parameters[len(d.Parameters)], true
}

// Build compiles the draft and returns a validated descriptor.
func (d *Draft) Build() (*Descriptor, error) {
	f, err := d.Compile()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.TimeSpan) == "" {
		return nil, fmt.Errorf("%w: time span", ErrIncompleteDraft)
	}
	if len(d.InitialConditions) != len(d.Variables) {
		return nil, &dynamo.ArityError{What: "initial conditions", Expected: len(d.Variables), Actual: len(d.InitialConditions)}
	}
	span, err := ParseTimeSpan(d.TimeSpan)
	if err != nil {
		return nil, err
	}
	ic, err := ParseNumbers(strings.Join(d.InitialConditions, ","))
	if err != nil {
		return nil, err
	}

	params := d.ParameterValues
	if params == nil && len(d.Parameters) > 0 {
		params, err = ParseParameters(strings.Join(d.Parameters, ","))
		if err != nil {
			return nil, err
		}
	}
	return BuildCompiled(d.Name, f, span, ic, Options{
		Resolution:  d.Resolution,
		Parameters:  params,
		Description: d.Description,
		Method:      d.Method,
		RTol:        d.RTol,
		ATol:        d.ATol,
	})
}
