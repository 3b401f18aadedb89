package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/render"
	"github.com/san-kum/odelab/internal/storage"
	"github.com/san-kum/odelab/internal/viz"
)

// loadRun resolves an id prefix and reads the run back.
func loadRun(prefix string) (*storage.RunMetadata, *dynamo.Trajectory, error) {
	st := storage.New(dataDir)
	runID, err := st.Resolve(prefix)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("loaded run", "id", runID, "points", traj.Len())
	return meta, traj, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSPAN\tPOINTS\tMETHOD\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t[%g, %g]\t%d\t%s\t%d\n",
			run.ID[:8],
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TimeSpan[0], run.TimeSpan[1],
			run.Resolution,
			run.Method,
			run.Steps,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", traj.Len())
	fmt.Println(render.Terminal(traj, 80, 15))
	if phase := render.TerminalPhase(traj, 60, 20); phase != "" {
		fmt.Println()
		fmt.Println(phase)
	}

	if outDir == "" {
		return nil
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	arts, err := render.Render(meta.Model, traj, outDir, f, render.DefaultOptions())
	if err != nil {
		return err
	}
	for _, p := range arts.Paths() {
		fmt.Println(viz.Success.Render("wrote ") + p)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VAR\tMIN\tMAX\tMEAN\tFINAL\tFREQ (hz)")
	for _, s := range analysis.Summarize(traj) {
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", s.Name, s.Min, s.Max, s.Mean, s.Final, s.Frequency)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	for i := range traj.Y {
		fmt.Printf("  %-10s %s\n", traj.Label(i), viz.Sparkline(traj.Y[i], 48))
	}
	fmt.Println()

	spec := analysis.Spectrum(traj.Y[0], analysis.SampleSpacing(traj))
	if len(spec.Amplitude) > 2 {
		amps := spec.Amplitude[1:]
		if len(amps) > 4*80 {
			amps = amps[:len(amps)/4]
		}
		graph := asciigraph.Plot(render.Downsample(amps, 80),
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s)", traj.Label(0))),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	freq := analysis.DominantFrequency(traj.Y[0], analysis.SampleSpacing(traj))
	fmt.Printf("dominant frequency: %.4g hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4g\n", 1.0/freq)
	}

	d, err := meta.Descriptor()
	if err != nil {
		return err
	}
	lambda, err := analysis.LyapunovExponent(d, 1e-8)
	if err != nil {
		logger.Warn("lyapunov estimate failed", "err", err)
		return nil
	}
	verdict := "converging"
	switch {
	case math.Abs(lambda) < 1e-2:
		verdict = "neutral"
	case lambda > 0:
		verdict = "sensitive to initial conditions"
	}
	fmt.Printf("largest lyapunov exponent: %.4g (%s)\n", lambda, verdict)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, traj)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, traj)
}
