package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
)

var ErrNoEquations = errors.New("config: model needs equations or a field")

// Config is a model file. Either Equations (one per variable) or Field, a
// positional y[i]/p[j] source, must be set.
type Config struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	Variables      []string `yaml:"variables,omitempty"`
	Equations      []string `yaml:"equations,omitempty"`
	Field          string   `yaml:"field,omitempty"`
	ParameterNames []string `yaml:"parameter_names,omitempty"`

	TimeSpan          []Value    `yaml:"time_span"`
	InitialConditions []Value    `yaml:"initial_conditions"`
	Parameters        Parameters `yaml:"parameters,omitempty"`

	Resolution int     `yaml:"resolution"`
	Method     string  `yaml:"method"`
	RTol       float64 `yaml:"rtol"`
	ATol       float64 `yaml:"atol"`
}

// Value is a number as written in the file. Constant expressions such as
// 8/3 or 2*pi are kept verbatim and evaluated when the model is built.
type Value string

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: line %d: expected a number", node.Line)
	}
	*v = Value(node.Value)
	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: string(v)}, nil
}

// Parameters holds parameter values either by name, in file order, or as a
// plain list in discovery order. Names is nil for the list form.
type Parameters struct {
	Names  []string
	Values []Value
}

func (p Parameters) IsZero() bool { return len(p.Values) == 0 }

func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		p.Names, p.Values = nil, nil
		for i := 0; i+1 < len(node.Content); i += 2 {
			var v Value
			if err := v.UnmarshalYAML(node.Content[i+1]); err != nil {
				return err
			}
			p.Names = append(p.Names, node.Content[i].Value)
			p.Values = append(p.Values, v)
		}
	case yaml.SequenceNode:
		p.Names = nil
		p.Values = make([]Value, len(node.Content))
		for i, n := range node.Content {
			if err := p.Values[i].UnmarshalYAML(n); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("config: line %d: parameters must be a mapping or a list", node.Line)
	}
	return nil
}

func (p Parameters) MarshalYAML() (interface{}, error) {
	if p.Names == nil {
		node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, v := range p.Values {
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: string(v)})
		}
		return node, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, name := range p.Names {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(p.Values[i])},
		)
	}
	return node, nil
}

// Get returns the value bound to name. Names match case-insensitively, like
// identifiers in equations.
func (p Parameters) Get(name string) (Value, bool) {
	for i, n := range p.Names {
		if strings.EqualFold(n, name) {
			return p.Values[i], true
		}
	}
	return "", false
}

func DefaultConfig() *Config {
	return &Config{
		Resolution: model.DefaultResolution,
		Method:     string(model.MethodRK45),
		RTol:       model.DefaultRTol,
		ATol:       model.DefaultATol,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a model file over DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func joinValues(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func valueStrings(vals []Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func (c *Config) options() model.Options {
	return model.Options{
		Resolution:  c.Resolution,
		Description: c.Description,
		Method:      model.Method(c.Method),
		RTol:        c.RTol,
		ATol:        c.ATol,
	}
}

// Draft converts an equation-form model file into a model.Draft. Named
// parameters are put in the order the compiler discovers them.
func (c *Config) Draft() (*model.Draft, error) {
	if len(c.Equations) == 0 {
		return nil, ErrNoEquations
	}
	opts := c.options()
	d := &model.Draft{
		Name:              c.Name,
		Description:       c.Description,
		Variables:         c.Variables,
		Equations:         c.Equations,
		TimeSpan:          joinValues(c.TimeSpan),
		InitialConditions: valueStrings(c.InitialConditions),
		Resolution:        opts.Resolution,
		Method:            opts.Method,
		RTol:              opts.RTol,
		ATol:              opts.ATol,
	}
	if c.Parameters.Names == nil {
		d.Parameters = valueStrings(c.Parameters.Values)
		return d, nil
	}

	f, err := d.Compile()
	if err != nil {
		return nil, err
	}
	ordered, err := c.orderParameters(f.Parameters)
	if err != nil {
		return nil, err
	}
	d.Parameters = ordered
	return d, nil
}

func (c *Config) orderParameters(names []string) ([]string, error) {
	known := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		v, ok := c.Parameters.Get(name)
		if !ok {
			return nil, &dynamo.ParameterError{Name: name, Index: i, Reason: "not set in config"}
		}
		known[strings.ToLower(name)] = true
		out[i] = string(v)
	}
	for _, name := range c.Parameters.Names {
		if !known[strings.ToLower(name)] {
			return nil, fmt.Errorf("config: unknown parameter %q: %w", name, dynamo.ErrArityMismatch)
		}
	}
	return out, nil
}

// Descriptor builds and validates the model the file describes.
func (c *Config) Descriptor() (*model.Descriptor, error) {
	if len(c.Equations) > 0 {
		d, err := c.Draft()
		if err != nil {
			return nil, err
		}
		return d.Build()
	}
	if strings.TrimSpace(c.Field) == "" {
		return nil, ErrNoEquations
	}

	field, err := model.ParseField(c.Field, c.Variables, c.ParameterNames)
	if err != nil {
		return nil, err
	}
	params := c.Parameters.Values
	if c.Parameters.Names != nil {
		names := field.ParameterNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("config: named parameters need parameter_names for a positional field")
		}
		ordered, err := c.orderParameters(names)
		if err != nil {
			return nil, err
		}
		params = make([]Value, len(ordered))
		for i, v := range ordered {
			params[i] = Value(v)
		}
	}
	return model.BuildField(c.Name, field, joinValues(c.TimeSpan), joinValues(c.InitialConditions), joinValues(params), c.options())
}

// FromDescriptor writes d back out in positional form.
func FromDescriptor(d *model.Descriptor) *Config {
	t0, t1 := d.TimeSpan()
	rtol, atol := d.Tolerance()
	cfg := &Config{
		Name:              d.Name(),
		Description:       d.Description(),
		Variables:         d.Variables(),
		Field:             d.Field().Source(),
		TimeSpan:          numbers([]float64{t0, t1}),
		InitialConditions: numbers(d.InitialConditions()),
		Resolution:        d.Resolution(),
		Method:            string(d.Method()),
		RTol:              rtol,
		ATol:              atol,
	}
	if vals := d.Parameters(); len(vals) > 0 {
		cfg.ParameterNames = d.ParameterNames()
		cfg.Parameters = Parameters{Names: d.ParameterNames(), Values: numbers(vals)}
	}
	return cfg
}

func numbers(xs []float64) []Value {
	out := make([]Value, len(xs))
	for i, x := range xs {
		out[i] = Value(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return out
}
