package config

import (
	"fmt"
	"strings"

	"github.com/san-kum/odelab/internal/model"
)

// FromPreset returns the model file for a built-in preset, so it can be
// saved and edited by hand. ref is "model/preset" or a single-preset model.
func FromPreset(ref string) (*Config, error) {
	p, name := model.LookupPreset(ref)
	if p == nil {
		return nil, fmt.Errorf("config: unknown preset %q", ref)
	}

	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Description = p.Description
	cfg.Variables = p.Variables
	if p.Resolution > 0 {
		cfg.Resolution = p.Resolution
	}
	cfg.TimeSpan = splitValues(p.TimeSpan)
	cfg.InitialConditions = splitValues(p.InitialConditions)

	vals := splitValues(p.Parameters)
	if p.Equations != nil {
		cfg.Equations = p.Equations
		field, err := p.Field()
		if err != nil {
			return nil, err
		}
		cfg.Parameters = Parameters{Names: field.ParameterNames(), Values: vals}
		return cfg, nil
	}

	cfg.Field = p.Source
	cfg.ParameterNames = p.ParameterNames
	cfg.Parameters = Parameters{Names: p.ParameterNames, Values: vals}
	return cfg, nil
}

func splitValues(text string) []Value {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]Value, len(parts))
	for i, s := range parts {
		out[i] = Value(strings.TrimSpace(s))
	}
	return out
}
