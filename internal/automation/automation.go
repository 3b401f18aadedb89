package automation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odelab/internal/config"
	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/session"
	"github.com/san-kum/odelab/internal/solver"
)

// Scenario defines a batch of models to solve together
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	baseDir string
}

// ScenarioStep names one model. Exactly one of Preset, Config, Model or
// Inputs picks the source; Inputs replays a session conversation.
type ScenarioStep struct {
	Preset string         `yaml:"preset,omitempty"`
	Config string         `yaml:"config,omitempty"`
	Model  *config.Config `yaml:"model,omitempty"`
	Inputs []string       `yaml:"inputs,omitempty"`

	// Edits are applied after the model is built, keyed by editable field.
	Edits       map[string]string `yaml:"edits,omitempty"`
	Method      string            `yaml:"method,omitempty"`
	SaveAs      string            `yaml:"save_as,omitempty"`
	Description string            `yaml:"description,omitempty"`
}

// LoadScenario loads a scenario from a YAML file. Config paths in steps are
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	scenario.baseDir = filepath.Dir(path)

	return &scenario, nil
}

// Descriptor builds the step's model.
func (s ScenarioStep) Descriptor(baseDir string) (*model.Descriptor, error) {
	d, err := s.source(baseDir)
	if err != nil {
		return nil, err
	}

	for _, field := range model.EditableFields() {
		text, ok := s.Edits[field]
		if !ok {
			continue
		}
		if d, err = d.Edit(field, text); err != nil {
			return nil, fmt.Errorf("edit %s: %w", field, err)
		}
	}
	for field := range s.Edits {
		if !isEditable(field) {
			return nil, fmt.Errorf("cannot edit %q", field)
		}
	}
	if s.Method != "" {
		if d, err = d.WithMethod(model.Method(s.Method)); err != nil {
			return nil, err
		}
	}
	if s.SaveAs != "" {
		if d, err = d.WithName(s.SaveAs); err != nil {
			return nil, err
		}
	}
	if s.Description != "" {
		if d, err = d.WithDescription(s.Description); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func isEditable(field string) bool {
	for _, f := range model.EditableFields() {
		if f == field {
			return true
		}
	}
	return false
}

func (s ScenarioStep) source(baseDir string) (*model.Descriptor, error) {
	switch {
	case s.Preset != "":
		p, name := model.LookupPreset(s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
		return p.Build(name)
	case s.Config != "":
		path := s.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		return cfg.Descriptor()
	case s.Model != nil:
		return s.Model.Descriptor()
	case len(s.Inputs) > 0:
		return replay(s.Inputs)
	}
	return nil, fmt.Errorf("step has no preset, config, model or inputs")
}

// replay feeds inputs to a fresh session and returns the model it built.
func replay(inputs []string) (*model.Descriptor, error) {
	sess := session.New("model")
	for i, in := range inputs {
		r := sess.Handle(in)
		if r.Err != nil {
			return nil, fmt.Errorf("input %d (%q) at %s: %w", i+1, in, r.Step, r.Err)
		}
	}
	d := sess.Descriptor()
	if d == nil {
		return nil, fmt.Errorf("inputs stop at %s: %s", sess.Step(), strings.TrimSpace(sess.Prompt().Prompt))
	}
	return d, nil
}

// Descriptors builds every step, stopping at the first failure.
func (sc *Scenario) Descriptors() ([]*model.Descriptor, error) {
	ds := make([]*model.Descriptor, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		d, err := step.Descriptor(sc.baseDir)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// RunScenario builds every step and solves them concurrently. Results are in
// step order; a failed solve is reported in its Result.
func RunScenario(sc *Scenario, opts ...solver.Option) ([]solver.Result, error) {
	ds, err := sc.Descriptors()
	if err != nil {
		return nil, err
	}
	return solver.SolveAll(ds, opts...), nil
}
