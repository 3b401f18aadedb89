package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/config"
	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/solver"
	"github.com/san-kum/odelab/internal/viz"
)

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		presets := model.ListPresets(args[0])
		if len(presets) == 0 {
			fmt.Printf("no presets for model: %s\n", args[0])
			return nil
		}
		fmt.Printf("presets for %s:\n", args[0])
		for _, name := range presets {
			fmt.Printf("  %-12s %s\n", name, viz.Subtle.Render(model.GetPreset(args[0], name).Description))
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tVARIABLES\tDESCRIPTION")
	for _, ref := range model.ListModels() {
		p, _ := model.LookupPreset(ref)
		fmt.Fprintf(w, "%s\t%s\t%s\n", ref, strings.Join(p.Variables, ", "), p.Description)
	}
	return w.Flush()
}

func exportPreset(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromPreset(args[0])
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func compareMethods(cmd *cobra.Command, args []string) error {
	base, err := loadModel(args[0])
	if err != nil {
		return err
	}

	ds := make([]*model.Descriptor, 0, len(args)-1)
	for _, name := range args[1:] {
		d, err := base.WithMethod(model.Method(name))
		if err != nil {
			return err
		}
		ds = append(ds, d)
	}

	t0, t1 := base.TimeSpan()
	fmt.Printf("comparing methods for %s (t=[%g, %g], %d points)\n\n", base.Name(), t0, t1, base.Resolution())

	start := time.Now()
	results := solver.SolveAll(ds)
	elapsed := time.Since(start)

	ref := results[0].Trajectory
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "METHOD\tFINAL %s\tSTEPS\tREJECTED\tEVALS\tMAX DEV\n", base.Variables()[0])
	for _, r := range results {
		name := string(r.Descriptor.Method())
		if r.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, r.Err)
			continue
		}
		traj := r.Trajectory
		dev := math.NaN()
		if ref != nil {
			dev = maxDeviation(ref.Y, traj.Y)
		}
		fmt.Fprintf(w, "%s\t%.6g\t%d\t%d\t%d\t%.2e\n",
			name, traj.Y[0][traj.Len()-1], traj.Steps, traj.Rejected, traj.Evaluations, dev)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nsolved %d variants in %v\n", len(ds), elapsed.Round(time.Microsecond))
	return nil
}

// maxDeviation is the largest absolute difference between two sampled
// solutions on the same grid.
func maxDeviation(a, b [][]float64) float64 {
	dev := 0.0
	for i := range a {
		for k := range a[i] {
			dev = math.Max(dev, math.Abs(a[i][k]-b[i][k]))
		}
	}
	return dev
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	d, err := loadModel(args[0])
	if err != nil {
		return err
	}

	pi := indexOf(d.ParameterNames(), sweepParam)
	if pi < 0 {
		return fmt.Errorf("unknown parameter %q (have %s)", sweepParam, strings.Join(d.ParameterNames(), ", "))
	}
	vi := 0
	if sweepVar != "" {
		if vi = indexOf(d.Variables(), sweepVar); vi < 0 {
			return fmt.Errorf("unknown variable %q (have %s)", sweepVar, strings.Join(d.Variables(), ", "))
		}
	}

	logger.Debug("sweeping", "model", d.Name(), "param", sweepParam, "from", sweepFrom, "to", sweepTo, "steps", sweepSteps)
	data, err := analysis.Sweep(d, pi, sweepFrom, sweepTo, sweepSteps, vi)
	if err != nil {
		return err
	}

	fmt.Printf("peaks of %s as %s goes %g → %g\n\n", d.Variables()[vi], sweepParam, sweepFrom, sweepTo)
	fmt.Println(analysis.SweepToASCII(data, 80, 20))
	return nil
}
