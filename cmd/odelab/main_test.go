package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/odelab/internal/config"
)

func TestLoadModel(t *testing.T) {
	d, err := loadModel("lorenz/classic")
	if err != nil {
		t.Fatal(err)
	}
	if d.Dim() != 3 {
		t.Errorf("dim = %d", d.Dim())
	}
	if _, err := loadModel("love"); err == nil {
		t.Error("expected error for a model with several presets")
	}

	cfg, err := config.FromPreset("decay")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "decay.yaml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	d, err = loadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Parameters()[0] != 0.5 {
		t.Errorf("k = %g", d.Parameters()[0])
	}
}

func TestApplyOverrides(t *testing.T) {
	cmd := &cobra.Command{}
	addModelFlags(cmd)
	if err := cmd.Flags().Parse([]string{"--span", "0, 2", "--points", "50", "--method", "rk4"}); err != nil {
		t.Fatal(err)
	}

	d, err := loadModel("decay")
	if err != nil {
		t.Fatal(err)
	}
	d, err = applyOverrides(cmd, d)
	if err != nil {
		t.Fatal(err)
	}
	if _, t1 := d.TimeSpan(); t1 != 2 {
		t.Errorf("t1 = %g", t1)
	}
	if d.Resolution() != 50 || d.Method() != "rk4" {
		t.Errorf("resolution/method = %d/%s", d.Resolution(), d.Method())
	}
	if d.InitialConditions()[0] != 100 {
		t.Errorf("ic changed: %v", d.InitialConditions())
	}
}

func TestMaxDeviation(t *testing.T) {
	a := [][]float64{{0, 1, 2}, {5, 5, 5}}
	b := [][]float64{{0, 1.5, 2}, {5, 4, 5}}
	if got := maxDeviation(a, b); got != 1 {
		t.Errorf("deviation = %g, want 1", got)
	}
}
