// Package model builds immutable Model Descriptors: a compiled vector field
// bundled with its time span, initial conditions, parameter values and
// sampling resolution.
//
// A Descriptor never changes after Build returns. Edits go through the With*
// methods, each of which validates and returns a fresh Descriptor sharing the
// compiled field with its parent.
package model

import (
	"fmt"
	"math"

	"github.com/san-kum/odelab/internal/compiler"
	"github.com/san-kum/odelab/internal/dynamo"
)

// Method names an integration scheme.
type Method string

const (
	MethodRK45     Method = "rk45"
	MethodRK4      Method = "rk4"
	MethodHeun     Method = "heun"
	MethodMidpoint Method = "midpoint"
	MethodEuler    Method = "euler"
)

// Tolerances used by adaptive methods when none are given.
const (
	DefaultRTol = 1e-3
	DefaultATol = 1e-6
)

// Options carries the optional descriptor fields. Zero values select defaults.
type Options struct {
	Resolution  int
	Parameters  []ParamValue
	Description string
	Method      Method
	RTol        float64
	ATol        float64
}

type Descriptor struct {
	name        string
	description string
	field       *Field
	span        [2]float64
	ic          []float64
	params      []float64
	resolution  int
	method      Method
	rtol, atol  float64
}

// Build assembles and validates a descriptor.
func Build(name string, field *Field, span [2]float64, ic []float64, opts Options) (*Descriptor, error) {
	if field == nil {
		return nil, fmt.Errorf("model: nil field")
	}
	d := &Descriptor{
		name:        name,
		description: opts.Description,
		field:       field,
		span:        span,
		ic:          append([]float64(nil), ic...),
		resolution:  opts.Resolution,
		method:      opts.Method,
		rtol:        opts.RTol,
		atol:        opts.ATol,
	}
	if d.resolution == 0 {
		d.resolution = DefaultResolution
	}
	if d.method == "" {
		d.method = MethodRK45
	}
	if d.rtol == 0 {
		d.rtol = DefaultRTol
	}
	if d.atol == 0 {
		d.atol = DefaultATol
	}
	if opts.Parameters != nil {
		d.params = make([]float64, len(opts.Parameters))
		for i, v := range opts.Parameters {
			d.params[i] = v.resolve()
		}
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// BuildCompiled builds from the expression compiler's output.
func BuildCompiled(name string, f *compiler.Field, span [2]float64, ic []float64, opts Options) (*Descriptor, error) {
	field, err := CompileField(f)
	if err != nil {
		return nil, err
	}
	return Build(name, field, span, ic, opts)
}

// BuildText builds from text in the formats users type: a positional field
// source, "t0, t1", comma-separated initial conditions and, when
// opts.Parameters is nil, comma-separated parameter values.
func BuildText(name, fieldSrc, spanText, icText, paramText string, opts Options) (*Descriptor, error) {
	field, err := ParseField(fieldSrc, nil, nil)
	if err != nil {
		return nil, err
	}
	return BuildField(name, field, spanText, icText, paramText, opts)
}

// BuildField is BuildText over an already compiled field.
func BuildField(name string, field *Field, spanText, icText, paramText string, opts Options) (*Descriptor, error) {
	span, err := ParseTimeSpan(spanText)
	if err != nil {
		return nil, err
	}
	ic, err := ParseNumbers(icText)
	if err != nil {
		return nil, err
	}
	if opts.Parameters == nil && paramText != "" {
		opts.Parameters, err = ParseParameters(paramText)
		if err != nil {
			return nil, err
		}
	}
	return Build(name, field, span, ic, opts)
}

func (d *Descriptor) validate() error {
	if err := ValidateTimeSpan(d.span[:]); err != nil {
		return err
	}
	if len(d.ic) != d.field.Dim() {
		return &dynamo.ArityError{What: "initial conditions", Expected: d.field.Dim(), Actual: len(d.ic)}
	}
	for i, v := range d.ic {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &dynamo.ExpressionError{Text: fmt.Sprint(v), Pos: -1, Reason: fmt.Sprintf("initial condition %d must be finite", i)}
		}
	}
	for j, v := range d.params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &dynamo.ExpressionError{Text: fmt.Sprint(v), Pos: -1, Reason: fmt.Sprintf("parameter p[%d] must be finite", j)}
		}
	}
	if need := d.field.ParamCount(); len(d.params) < need {
		j := len(d.params)
		return &dynamo.ParameterError{Name: d.field.paramName(j), Index: j, Reason: "no value given"}
	} else if len(d.params) > need {
		return &dynamo.ArityError{What: "parameter values", Expected: need, Actual: len(d.params)}
	}
	if err := ValidateResolution(d.resolution); err != nil {
		return err
	}
	switch d.method {
	case MethodRK45, MethodRK4, MethodHeun, MethodMidpoint, MethodEuler:
	default:
		return fmt.Errorf("model: unknown method %q", d.method)
	}
	if d.rtol <= 0 || d.atol <= 0 {
		return fmt.Errorf("model: tolerances must be positive")
	}
	return nil
}

func (d *Descriptor) Name() string        { return d.name }
func (d *Descriptor) Description() string { return d.description }
func (d *Descriptor) Field() *Field       { return d.field }
func (d *Descriptor) Dim() int            { return d.field.Dim() }
func (d *Descriptor) Resolution() int     { return d.resolution }
func (d *Descriptor) Method() Method      { return d.method }

// TimeSpan returns (t0, t1).
func (d *Descriptor) TimeSpan() (float64, float64) { return d.span[0], d.span[1] }

// Tolerance returns the relative and absolute tolerances.
func (d *Descriptor) Tolerance() (rtol, atol float64) { return d.rtol, d.atol }

// InitialConditions returns a copy of y(t0).
func (d *Descriptor) InitialConditions() []float64 { return append([]float64(nil), d.ic...) }

// Parameters returns a copy of the parameter values, nil when the field has none.
func (d *Descriptor) Parameters() []float64 {
	if d.params == nil {
		return nil
	}
	return append([]float64(nil), d.params...)
}

// Variables returns the variable names, falling back to Y0, Y1, ... for
// unnamed fields.
func (d *Descriptor) Variables() []string {
	if vars := d.field.Variables(); len(vars) == d.Dim() {
		return vars
	}
	vars := make([]string, d.Dim())
	for i := range vars {
		vars[i] = fmt.Sprintf("Y%d", i)
	}
	return vars
}

// ParameterNames returns the parameter names, falling back to p0, p1, ...
func (d *Descriptor) ParameterNames() []string {
	if names := d.field.ParameterNames(); len(names) == len(d.params) {
		return names
	}
	names := make([]string, len(d.params))
	for i := range names {
		names[i] = fmt.Sprintf("p%d", i)
	}
	return names
}

// System returns the field with this descriptor's parameters bound in.
func (d *Descriptor) System() dynamo.System {
	return boundField{field: d.field, params: d.Parameters()}
}

func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.ic = append([]float64(nil), d.ic...)
	if d.params != nil {
		c.params = append([]float64(nil), d.params...)
	}
	return &c
}

func (d *Descriptor) edited(fn func(c *Descriptor)) (*Descriptor, error) {
	c := d.clone()
	fn(c)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithInitialConditions returns a copy with new initial conditions.
func (d *Descriptor) WithInitialConditions(ic []float64) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) { c.ic = append([]float64(nil), ic...) })
}

// WithTimeSpan returns a copy with a new time span.
func (d *Descriptor) WithTimeSpan(t0, t1 float64) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) { c.span = [2]float64{t0, t1} })
}

// WithParameters returns a copy with new parameter values.
func (d *Descriptor) WithParameters(vals []ParamValue) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) {
		c.params = make([]float64, len(vals))
		for i, v := range vals {
			c.params[i] = v.resolve()
		}
	})
}

// WithResolution returns a copy sampled at n points.
func (d *Descriptor) WithResolution(n int) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) { c.resolution = n })
}

// WithMethod returns a copy integrated with m.
func (d *Descriptor) WithMethod(m Method) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) { c.method = m })
}

// WithTolerance returns a copy with new adaptive tolerances.
func (d *Descriptor) WithTolerance(rtol, atol float64) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) { c.rtol, c.atol = rtol, atol })
}

func (d *Descriptor) WithName(name string) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) { c.name = name })
}

func (d *Descriptor) WithDescription(desc string) (*Descriptor, error) {
	return d.edited(func(c *Descriptor) { c.description = desc })
}

// Edit applies a text edit the way users phrase it: "initial conditions",
// "time interval", "number of points" or "parameters".
func (d *Descriptor) Edit(field, text string) (*Descriptor, error) {
	switch field {
	case EditInitialConditions:
		ic, err := ParseNumbers(text)
		if err != nil {
			return nil, err
		}
		return d.WithInitialConditions(ic)
	case EditTimeSpan:
		span, err := ParseTimeSpan(text)
		if err != nil {
			return nil, err
		}
		return d.WithTimeSpan(span[0], span[1])
	case EditResolution:
		n, err := ParseResolution(text)
		if err != nil {
			return nil, err
		}
		return d.WithResolution(n)
	case EditParameters:
		vals, err := ParseParameters(text)
		if err != nil {
			return nil, err
		}
		return d.WithParameters(vals)
	}
	return nil, fmt.Errorf("model: cannot edit %q", field)
}

// Editable fields, named as the user sees them.
const (
	EditInitialConditions = "initial conditions"
	EditTimeSpan          = "time interval"
	EditResolution        = "number of points"
	EditParameters        = "parameters"
)

// EditableFields lists the fields accepted by Edit.
func EditableFields() []string {
	return []string{EditInitialConditions, EditTimeSpan, EditResolution, EditParameters}
}
