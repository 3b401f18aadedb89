package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/odelab/internal/expr"
	"github.com/san-kum/odelab/internal/render"
	"github.com/san-kum/odelab/internal/storage"
	"github.com/san-kum/odelab/internal/tui"
	"github.com/san-kum/odelab/internal/viz"
)

var (
	dataDir string
	verbose bool
	// Model source
	configFile string
	preset     string
	vars       string
	rhs        string
	span       string
	ic         string
	params     string
	points     int
	method     string
	rtol       float64
	atol       float64
	// Output
	outDir     string
	format     string
	saveRun    bool
	showPlot   bool
	jsonOut    bool
	dumpConfig string
	maxSteps   int
	// Sweep
	sweepParam string
	sweepVar   string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "odelab",
		Short: "ordinary differential equation lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
		SilenceUsage: true,
		RunE:         runInteractive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odelab", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "build and solve a model step by step",
		RunE:  runInteractive,
	}
	interactiveCmd.Flags().StringVar(&outDir, "out", ".", "plot directory")
	interactiveCmd.Flags().StringVar(&format, "format", "png", "plot format (png|svg)")
	interactiveCmd.Flags().BoolVar(&saveRun, "save", false, "save every solved run")

	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "rewrite equations into positional form",
		Long: "Rewrite equations into positional form: variables become y[i] and\n" +
			"free names become parameters p[j] in order of first use.\n\n" +
			"Known functions and constants: " + strings.Join(expr.LibraryNames(), ", "),
		RunE: compileEquations,
	}
	compileCmd.Flags().StringVar(&vars, "vars", "", "variables, comma separated")
	compileCmd.Flags().StringVar(&rhs, "rhs", "", "right-hand sides, comma separated")
	compileCmd.MarkFlagRequired("vars")
	compileCmd.MarkFlagRequired("rhs")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve a model and plot it",
		RunE:  solveModel,
	}
	addModelFlags(solveCmd)
	solveCmd.Flags().StringVar(&outDir, "out", ".", "plot directory")
	solveCmd.Flags().StringVar(&format, "format", "png", "plot format (png|svg)")
	solveCmd.Flags().BoolVar(&saveRun, "save", false, "save the run")
	solveCmd.Flags().BoolVar(&showPlot, "plot", false, "draw the solution in the terminal")
	solveCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON")
	solveCmd.Flags().StringVar(&dumpConfig, "dump-config", "", "write the model to a yaml file")
	solveCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step limit (0 = default)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list built-in models",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	exportPresetCmd := &cobra.Command{
		Use:   "export [model/preset]",
		Short: "print a preset as a yaml model file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPreset,
	}
	presetsCmd.AddCommand(exportPresetCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&outDir, "out", "", "also write plot files here")
	plotCmd.Flags().StringVar(&format, "format", "png", "plot format (png|svg)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summary, spectrum and Lyapunov estimate of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset|config.yaml] [method1] [method2] ...",
		Short: "solve the same model with several methods",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareMethods,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset|config.yaml]",
		Short: "peaks of a variable as one parameter varies",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepParameter,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter name")
	sweepCmd.Flags().StringVar(&sweepVar, "var", "", "variable name (default: first)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 40, "number of values")
	sweepCmd.MarkFlagRequired("param")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "solve every model of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVar(&outDir, "out", ".", "plot directory")
	scenarioCmd.Flags().StringVar(&format, "format", "png", "plot format (png|svg)")
	scenarioCmd.Flags().BoolVar(&saveRun, "save", false, "save the runs")

	rootCmd.AddCommand(interactiveCmd, compileCmd, solveCmd, presetsCmd, listCmd, plotCmd, analyzeCmd, compareCmd, sweepCmd, scenarioCmd, exportCSVCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.ErrorText.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "model file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in model, e.g. lorenz/classic")
	cmd.Flags().StringVar(&vars, "vars", "", "variables, comma separated")
	cmd.Flags().StringVar(&rhs, "rhs", "", "right-hand sides, comma separated")
	cmd.Flags().StringVar(&span, "span", "", "time interval t0, t1")
	cmd.Flags().StringVar(&ic, "ic", "", "initial conditions, comma separated")
	cmd.Flags().StringVar(&params, "params", "", "parameter values in discovery order")
	cmd.Flags().IntVar(&points, "points", 0, "number of output points")
	cmd.Flags().StringVar(&method, "method", "", "integration method (rk45|rk4|heun|midpoint|euler)")
	cmd.Flags().Float64Var(&rtol, "rtol", 0, "relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", 0, "absolute tolerance")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	opts := tui.Options{OutDir: outDir, Format: f}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		opts.Store = st
	}
	logger.Debug("starting interactive session", "out", opts.OutDir, "format", f)
	_, err = tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen()).Run()
	return err
}
