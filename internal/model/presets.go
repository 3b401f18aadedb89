package model

import (
	"sort"
	"strings"

	"github.com/san-kum/odelab/internal/compiler"
)

// Preset is a ready-made model. Named presets carry Equations over
// Variables; positional presets carry Source in y[i]/p[j] form instead.
type Preset struct {
	Description string

	Variables      []string
	Equations      []string
	Source         string
	ParameterNames []string

	TimeSpan          string
	InitialConditions string
	Parameters        string
	Resolution        int
}

const loveSource = "dJ/dt = (p[1] + p[4] - p[8] - p[12]) * y[0] + (p[2] - p[6] - p[10]) * y[1], " +
	"dR/dt = (p[3] - p[7] - p[11]) * y[0] + (p[0] + p[5] - p[9] - p[13]) * y[1]"

var loveParams = []string{"aJ", "aR", "cJ", "cR", "mJ", "mR", "tJ", "tR", "kJ", "kR", "uJ", "uR", "bJ", "bR"}

var Presets = map[string]map[string]*Preset{
	"decay": {
		"default": {
			Description: "Radioactive decay",
			Variables:   []string{"N"}, Equations: []string{"-k*N"},
			TimeSpan: "0, 10", InitialConditions: "100", Parameters: "0.5",
		},
	},
	"love": {
		"ideal": {
			Description: "Ideal love",
			Variables:   []string{"J", "R"}, Source: loveSource, ParameterNames: loveParams,
			TimeSpan: "0, 1", InitialConditions: "5, 17",
			Parameters: "0.9, 0.9, 0.9, 0.9, 0.8, 0.8, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1",
			Resolution: 1000,
		},
		"asymmetric": {
			Description: "Asymmetric love",
			Variables:   []string{"J", "R"}, Source: loveSource, ParameterNames: loveParams,
			TimeSpan: "0, 5", InitialConditions: "3, 8",
			Parameters: "0.9, 0.3, 0.3, 0.8, 0.3, 0.8, 0.8, 0.9, 0.8, 0.8, 0.3, 0.8, 0.2, 0.8",
			Resolution: 1000,
		},
		"spiral": {
			Description: "Spiral love",
			Variables:   []string{"J", "R"}, Source: loveSource, ParameterNames: loveParams,
			TimeSpan: "0, 15", InitialConditions: "10, 2",
			Parameters: "0.126, 0.98, 0.98, 0.126, 0.126, 0.64, 0.5, 0.5, 0.5, 0.5, 0.1, 0.64, 0.95, 0.95",
			Resolution: 1000,
		},
	},
	"lorenz": {
		"classic": {
			Description: "Lorenz attractor",
			Variables:   []string{"U", "V", "W"},
			Equations:   []string{"sigma*(V - U)", "U*(rho - W) - V", "U*V - beta*W"},
			TimeSpan:    "0, 40", InitialConditions: "1, 1, 1", Parameters: "10, 28, 8/3",
			Resolution: 4000,
		},
	},
	"rossler": {
		"classic": {
			Description: "Rossler attractor",
			Variables:   []string{"U", "V", "W"},
			Equations:   []string{"-V - W", "U + a*V", "b + W*(U - c)"},
			TimeSpan:    "0, 100", InitialConditions: "1, 1, 1", Parameters: "0.2, 0.2, 5.7",
			Resolution: 5000,
		},
	},
	"van_der_pol": {
		"classic": {
			Description: "Van der Pol oscillator",
			Variables:   []string{"X", "V"},
			Equations:   []string{"V", "mu*(1 - X^2)*V - X"},
			TimeSpan:    "0, 20", InitialConditions: "2, 0", Parameters: "1",
		},
		"stiff": {
			Description: "Van der Pol, strongly nonlinear",
			Variables:   []string{"X", "V"},
			Equations:   []string{"V", "mu*(1 - X^2)*V - X"},
			TimeSpan:    "0, 60", InitialConditions: "2, 0", Parameters: "8",
			Resolution: 3000,
		},
	},
	"duffing": {
		"chaotic": {
			Description: "Forced Duffing oscillator",
			Variables:   []string{"X", "V"},
			Equations:   []string{"V", "-delta*V - alpha*X - beta*X^3 + force*cos(w*t)"},
			TimeSpan:    "0, 100", InitialConditions: "1, 0", Parameters: "0.3, -1, 1, 0.5, 1.2",
			Resolution: 5000,
		},
	},
	"lotka_volterra": {
		"classic": {
			Description: "Predator-prey",
			Variables:   []string{"PREY", "PRED"},
			Equations:   []string{"a*PREY - b*PREY*PRED", "d*PREY*PRED - c*PRED"},
			TimeSpan:    "0, 50", InitialConditions: "10, 10", Parameters: "1.1, 0.4, 0.1, 0.4",
		},
	},
}

func GetPreset(model, preset string) *Preset {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return p
}

// LookupPreset resolves "model/preset", or a bare model name that has a
// single preset.
func LookupPreset(ref string) (*Preset, string) {
	model, preset, found := strings.Cut(ref, "/")
	if found {
		return GetPreset(model, preset), model + "_" + preset
	}
	names := ListPresets(model)
	if len(names) != 1 {
		return nil, ""
	}
	return GetPreset(model, names[0]), model
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModels returns every preset as "model/preset", sorted.
func ListModels() []string {
	var out []string
	for model := range Presets {
		for _, name := range ListPresets(model) {
			out = append(out, model+"/"+name)
		}
	}
	sort.Strings(out)
	return out
}

// Field compiles the preset's vector field.
func (p *Preset) Field() (*Field, error) {
	if p.Equations != nil {
		cf, err := compiler.CompileEquations(p.Variables, p.Equations)
		if err != nil {
			return nil, err
		}
		return CompileField(cf)
	}
	return ParseField(p.Source, p.Variables, p.ParameterNames)
}

// Build returns the preset's descriptor under name.
func (p *Preset) Build(name string) (*Descriptor, error) {
	field, err := p.Field()
	if err != nil {
		return nil, err
	}
	return BuildField(name, field, p.TimeSpan, p.InitialConditions, p.Parameters, Options{
		Resolution:  p.Resolution,
		Description: p.Description,
	})
}
