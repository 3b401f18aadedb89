package automation

import (
	"os"
	"path/filepath"
	"testing"
)

const scenarioYAML = `
name: demo
description: three ways to describe a model
steps:
  - preset: lorenz/classic
    edits:
      time interval: "0, 5"
      number of points: "500"
    save_as: lorenz_short
  - config: decay.yaml
    method: rk4
  - inputs: ["X, V", "V", "-w^2*X", "0, 6.283", "1", "0", "1"]
    save_as: oscillator
    description: harmonic oscillator
  - model:
      name: logistic
      variables: [P]
      equations: ["r*P*(1 - P/cap)"]
      time_span: [0, 20]
      initial_conditions: [0.1]
      parameters: {r: 0.8, cap: 10}
`

const decayYAML = `
name: decay
variables: [N]
equations: ["-k*N"]
time_span: [0, 10]
initial_conditions: [100]
parameters: [0.5]
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "decay.yaml"), []byte(decayYAML), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "demo" || len(sc.Steps) != 4 {
		t.Fatalf("scenario = %s with %d steps", sc.Name, len(sc.Steps))
	}

	results, err := RunScenario(sc)
	if err != nil {
		t.Fatal(err)
	}
	wantNames := []string{"lorenz_short", "decay", "oscillator", "logistic"}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("step %d: %v", i+1, r.Err)
			continue
		}
		if r.Descriptor.Name() != wantNames[i] {
			t.Errorf("step %d name = %s, want %s", i+1, r.Descriptor.Name(), wantNames[i])
		}
	}

	if n := results[0].Trajectory.Len(); n != 500 {
		t.Errorf("lorenz points = %d, want 500", n)
	}
	if _, t1 := results[0].Descriptor.TimeSpan(); t1 != 5 {
		t.Errorf("lorenz t1 = %g", t1)
	}
	if got := results[2].Descriptor.Description(); got != "harmonic oscillator" {
		t.Errorf("oscillator description = %q", got)
	}
	if results[1].Descriptor.Method() != "rk4" {
		t.Errorf("decay method = %s", results[1].Descriptor.Method())
	}
	logistic := results[3].Trajectory
	if end := logistic.Y[0][logistic.Len()-1]; end < 9 || end > 10.01 {
		t.Errorf("logistic end = %g, want close to 10", end)
	}
}

func TestScenario_BadSteps(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown preset", "steps:\n  - preset: nope/none\n"},
		{"empty step", "steps:\n  - method: rk4\n"},
		{"unknown edit", "steps:\n  - preset: decay\n    edits: {colour: red}\n"},
		{"bad edit", "steps:\n  - preset: decay\n    edits: {time interval: \"10, 0\"}\n"},
		{"short inputs", "steps:\n  - inputs: [N, -k*N]\n"},
		{"rejected input", "steps:\n  - inputs: [Y]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := LoadScenario(writeScenario(t, tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := sc.Descriptors(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
