package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/odelab/internal/automation"
	"github.com/san-kum/odelab/internal/compiler"
	"github.com/san-kum/odelab/internal/config"
	"github.com/san-kum/odelab/internal/expr"
	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/render"
	"github.com/san-kum/odelab/internal/solver"
	"github.com/san-kum/odelab/internal/storage"
	"github.com/san-kum/odelab/internal/viz"
)

// loadModel resolves a preset reference or a yaml file path.
func loadModel(ref string) (*model.Descriptor, error) {
	ext := strings.ToLower(filepath.Ext(ref))
	if ext == ".yaml" || ext == ".yml" {
		cfg, err := config.Load(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg.Descriptor()
	}
	p, name := model.LookupPreset(ref)
	if p == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %s)", ref, strings.Join(model.ListModels(), ", "))
	}
	return p.Build(name)
}

func splitFlag(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return expr.SplitList(text)
}

// descriptorFromFlags builds the model named by --config, --preset or
// --vars/--rhs. Flags that were set explicitly override the file or preset.
func descriptorFromFlags(cmd *cobra.Command) (*model.Descriptor, error) {
	switch {
	case configFile != "":
		d, err := loadModel(configFile)
		if err != nil {
			return nil, err
		}
		return applyOverrides(cmd, d)
	case preset != "":
		d, err := loadModel(preset)
		if err != nil {
			return nil, err
		}
		return applyOverrides(cmd, d)
	case vars == "" || rhs == "":
		return nil, errors.New("need --config, --preset or --vars with --rhs")
	}

	variables, err := compiler.ParseVariables(vars)
	if err != nil {
		return nil, err
	}
	equations, err := splitFlag(rhs)
	if err != nil {
		return nil, err
	}
	ics, err := splitFlag(ic)
	if err != nil {
		return nil, err
	}
	ps, err := splitFlag(params)
	if err != nil {
		return nil, err
	}
	draft := &model.Draft{
		Name:              "model",
		Variables:         variables,
		Equations:         equations,
		TimeSpan:          span,
		InitialConditions: ics,
		Parameters:        ps,
		Resolution:        points,
		Method:            model.Method(method),
		RTol:              rtol,
		ATol:              atol,
	}
	if missing := draft.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrIncompleteDraft, strings.Join(missing, ", "))
	}
	return draft.Build()
}

func applyOverrides(cmd *cobra.Command, d *model.Descriptor) (*model.Descriptor, error) {
	var err error
	if cmd.Flags().Changed("span") {
		if d, err = d.Edit(model.EditTimeSpan, span); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("ic") {
		if d, err = d.Edit(model.EditInitialConditions, ic); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("params") {
		if d, err = d.Edit(model.EditParameters, params); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("points") {
		if d, err = d.WithResolution(points); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("method") {
		if d, err = d.WithMethod(model.Method(method)); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("rtol") || cmd.Flags().Changed("atol") {
		r, a := d.Tolerance()
		if cmd.Flags().Changed("rtol") {
			r = rtol
		}
		if cmd.Flags().Changed("atol") {
			a = atol
		}
		if d, err = d.WithTolerance(r, a); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func compileEquations(cmd *cobra.Command, args []string) error {
	variables, err := compiler.ParseVariables(vars)
	if err != nil {
		return err
	}
	f, err := compiler.Compile(variables, rhs)
	if err != nil {
		return err
	}
	for i, eq := range f.Equations() {
		fmt.Printf("%s  %s\n", viz.MetricLabel.Render(fmt.Sprintf("d%s/dt =", f.Variables[i])), viz.Equation.Render(eq))
	}
	fmt.Println()
	fmt.Println(viz.Metric("field", f.Source()))
	if len(f.Parameters) == 0 {
		fmt.Println(viz.Metric("parameters", "none"))
		return nil
	}
	names := make([]string, len(f.Parameters))
	for j, p := range f.Parameters {
		names[j] = fmt.Sprintf("p[%d]=%s", j, p)
	}
	fmt.Println(viz.Metric("parameters", strings.Join(names, ", ")))
	return nil
}

func solveModel(cmd *cobra.Command, args []string) error {
	d, err := descriptorFromFlags(cmd)
	if err != nil {
		return err
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}

	var opts []solver.Option
	if maxSteps > 0 {
		opts = append(opts, solver.WithMaxSteps(maxSteps))
	}

	t0, t1 := d.TimeSpan()
	logger.Debug("solving", "model", d.Name(), "method", d.Method(), "t0", t0, "t1", t1, "points", d.Resolution())
	start := time.Now()
	traj, err := solver.Solve(d, opts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Debug("solved", "steps", traj.Steps, "rejected", traj.Rejected, "evaluations", traj.Evaluations, "elapsed", elapsed)

	arts, err := render.Render(d.Name(), traj, outDir, f, render.DefaultOptions())
	if err != nil {
		return err
	}

	meta := storage.NewMetadata(d, traj)
	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		saved, err := st.Save(d, traj)
		if err != nil {
			return err
		}
		meta = *saved
		logger.Info("saved run", "id", meta.ID, "dir", st.RunDir(meta.ID))
	}

	if dumpConfig != "" {
		if err := config.Save(dumpConfig, config.FromDescriptor(d)); err != nil {
			return err
		}
	}

	if jsonOut {
		return storage.ExportJSON(os.Stdout, meta, traj)
	}

	fmt.Println(viz.Title.Render(d.Name()) + "  " + viz.Subtle.Render(d.Description()))
	for i, eq := range d.Field().Equations() {
		fmt.Printf("  %s %s\n", viz.MetricLabel.Render(fmt.Sprintf("d%s/dt =", d.Variables()[i])), viz.Equation.Render(eq))
	}
	fmt.Println()
	fmt.Printf("  %s  %s  %s  %s\n",
		viz.Metric("points", fmt.Sprint(traj.Len())),
		viz.Metric("steps", fmt.Sprint(traj.Steps)),
		viz.Metric("rejected", fmt.Sprint(traj.Rejected)),
		viz.Metric("time", elapsed.Round(time.Microsecond).String()))
	for _, p := range arts.Paths() {
		fmt.Println("  " + viz.Success.Render("wrote ") + p)
	}
	if saveRun {
		fmt.Println("  " + viz.Metric("run id", meta.ID))
	}

	if showPlot {
		fmt.Println()
		fmt.Println(render.Terminal(traj, 80, 15))
		if phase := render.TerminalPhase(traj, 60, 20); phase != "" {
			fmt.Println()
			fmt.Println(phase)
		}
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}

	var st *storage.Store
	if saveRun {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	fmt.Printf("scenario %s: %d models\n\n", viz.Title.Render(sc.Name), len(sc.Steps))
	start := time.Now()
	results, err := automation.RunScenario(sc)
	if err != nil {
		return err
	}
	logger.Debug("scenario solved", "models", len(results), "elapsed", time.Since(start))

	failed := 0
	for i, r := range results {
		name := r.Descriptor.Name()
		if r.Err != nil {
			failed++
			fmt.Printf("  %d. %s  %s\n", i+1, name, viz.ErrorText.Render(r.Err.Error()))
			continue
		}
		arts, err := render.Render(name, r.Trajectory, outDir, f, render.DefaultOptions())
		if err != nil {
			return err
		}
		fmt.Printf("  %d. %s  %s  %s\n", i+1, name,
			viz.Metric("points", fmt.Sprint(r.Trajectory.Len())),
			viz.Metric("steps", fmt.Sprint(r.Trajectory.Steps)))
		for _, p := range arts.Paths() {
			fmt.Println("     " + viz.Success.Render("wrote ") + p)
		}
		if st != nil {
			meta, err := st.Save(r.Descriptor, r.Trajectory)
			if err != nil {
				return err
			}
			fmt.Println("     " + viz.Metric("run id", meta.ID))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d models failed", failed, len(results))
	}
	return nil
}
