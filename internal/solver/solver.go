// Package solver integrates a model descriptor over its time span and samples
// the solution on an evenly spaced grid.
package solver

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
	"github.com/san-kum/odelab/internal/model"
)

const (
	DefaultMaxSteps = 1_000_000
	DefaultMinStep  = 1e-12
	DefaultSubsteps = 4
)

type Config struct {
	// MaxSteps bounds accepted plus rejected steps over the whole span.
	MaxSteps int
	// MinStep is the smallest step the adaptive driver will try.
	MinStep float64
	// Substeps is the number of fixed steps between two grid points.
	Substeps int
}

func DefaultConfig() Config {
	return Config{
		MaxSteps: DefaultMaxSteps,
		MinStep:  DefaultMinStep,
		Substeps: DefaultSubsteps,
	}
}

type Option func(*Config)

func WithMaxSteps(n int) Option    { return func(c *Config) { c.MaxSteps = n } }
func WithMinStep(h float64) Option { return func(c *Config) { c.MinStep = h } }
func WithSubsteps(n int) Option    { return func(c *Config) { c.Substeps = n } }

// Grid returns n evenly spaced points from t0 to t1 inclusive.
func Grid(t0, t1 float64, n int) []float64 {
	if n == 1 {
		return []float64{t0}
	}
	grid := floats.Span(make([]float64, n), t0, t1)
	grid[n-1] = t1
	return grid
}

// Solve integrates d and samples it at d.Resolution() points. It is
// synchronous and touches nothing outside its arguments.
func Solve(d *model.Descriptor, opts ...Option) (*dynamo.Trajectory, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	stepper, err := integrators.New(string(d.Method()))
	if err != nil {
		return nil, err
	}

	t0, t1 := d.TimeSpan()
	n := d.Resolution()
	sys := &countingSystem{System: d.System()}

	traj := &dynamo.Trajectory{
		Names: d.Variables(),
		T:     Grid(t0, t1, n),
		Y:     make([][]float64, d.Dim()),
	}
	for i := range traj.Y {
		traj.Y[i] = make([]float64, n)
	}

	y := dynamo.State(d.InitialConditions())
	record(traj, 0, y)

	if adaptive, ok := stepper.(dynamo.AdaptiveStepper); ok {
		rtol, atol := d.Tolerance()
		err = runAdaptive(adaptive, sys, traj, y, rtol, atol, cfg)
	} else {
		err = runFixed(stepper, sys, traj, y, cfg)
	}
	traj.Evaluations = sys.calls
	if err != nil {
		return nil, err
	}
	return traj, nil
}

func record(traj *dynamo.Trajectory, k int, y dynamo.State) {
	for i := range traj.Y {
		traj.Y[i][k] = y[i]
	}
}

func runAdaptive(stepper dynamo.AdaptiveStepper, sys dynamo.System, traj *dynamo.Trajectory, y dynamo.State, rtol, atol float64, cfg Config) error {
	t := traj.T[0]
	dt := initialStep(sys, t, y, traj.T[len(traj.T)-1]-t, rtol, atol)

	for k := 1; k < len(traj.T); k++ {
		target := traj.T[k]
		for t < target {
			if traj.Steps+traj.Rejected >= cfg.MaxSteps {
				return &dynamo.IntegrationError{Time: t, Step: traj.Steps, Reason: "maximum number of steps exceeded"}
			}
			if dt < minStep(cfg.MinStep, t) {
				return &dynamo.IntegrationError{Time: t, Step: traj.Steps, Reason: "step size fell below minimum"}
			}

			h := dt
			truncated := false
			if t+h >= target {
				h = target - t
				truncated = true
			}

			next, errNorm, dtNew := stepper.StepAdaptive(sys, t, y, h, rtol, atol)
			if errNorm > 1 {
				traj.Rejected++
				dt = dtNew
				continue
			}
			if !next.IsValid() {
				return &dynamo.IntegrationError{Time: t, Step: traj.Steps, Reason: "state became NaN or Inf"}
			}

			traj.Steps++
			y = next
			if truncated {
				t = target
			} else {
				t += h
				dt = dtNew
			}
		}
		record(traj, k, y)
	}
	return nil
}

func runFixed(stepper dynamo.Stepper, sys dynamo.System, traj *dynamo.Trajectory, y dynamo.State, cfg Config) error {
	m := cfg.Substeps
	if m < 1 {
		m = 1
	}
	for k := 1; k < len(traj.T); k++ {
		t := traj.T[k-1]
		h := (traj.T[k] - t) / float64(m)
		for j := 0; j < m; j++ {
			if traj.Steps >= cfg.MaxSteps {
				return &dynamo.IntegrationError{Time: t, Step: traj.Steps, Reason: "maximum number of steps exceeded"}
			}
			next := stepper.Step(sys, t, y, h)
			if !next.IsValid() {
				return &dynamo.IntegrationError{Time: t, Step: traj.Steps, Reason: "state became NaN or Inf"}
			}
			y = next
			t += h
			traj.Steps++
		}
		record(traj, k, y)
	}
	return nil
}

// initialStep follows the usual first guess h = 0.01 * |y| / |f(t0, y0)| in
// the tolerance-weighted norm, capped by the span.
func initialStep(sys dynamo.System, t float64, y dynamo.State, span, rtol, atol float64) float64 {
	f := sys.Derive(t, y)
	var d0, d1 float64
	for i := range y {
		scale := atol + rtol*math.Abs(y[i])
		d0 += (y[i] / scale) * (y[i] / scale)
		d1 += (f[i] / scale) * (f[i] / scale)
	}
	d0, d1 = math.Sqrt(d0), math.Sqrt(d1)

	h := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h = 0.01 * d0 / d1
	}
	if math.IsNaN(h) || h <= 0 {
		h = 1e-6
	}
	return math.Min(h, span)
}

func minStep(floor, t float64) float64 {
	return math.Max(floor, 10*math.Abs(math.Nextafter(t, math.Inf(1))-t))
}

type countingSystem struct {
	dynamo.System
	calls int
}

func (c *countingSystem) Derive(t float64, y dynamo.State) dynamo.State {
	c.calls++
	return c.System.Derive(t, y)
}

// Result pairs a trajectory with the error that prevented it.
type Result struct {
	Descriptor *model.Descriptor
	Trajectory *dynamo.Trajectory
	Err        error
}

// SolveAll solves independent descriptors concurrently, one goroutine each.
// Results are index-aligned with ds.
func SolveAll(ds []*model.Descriptor, opts ...Option) []Result {
	results := make([]Result, len(ds))

	var wg sync.WaitGroup
	for i, d := range ds {
		wg.Add(1)
		go func(idx int, d *model.Descriptor) {
			defer wg.Done()
			traj, err := Solve(d, opts...)
			results[idx] = Result{Descriptor: d, Trajectory: traj, Err: err}
		}(i, d)
	}

	wg.Wait()
	return results
}
