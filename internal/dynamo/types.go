package dynamo

import (
	"math"
	"strconv"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// AddScaled returns s + factor*other.
func (s State) AddScaled(factor float64, other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + factor*other[i]
	}
	return result
}

// System is a closed first-order vector field dy/dt = f(t, y). Parameters
// are bound into the System before it reaches an integrator.
type System interface {
	Derive(t float64, y State) State
	StateDim() int
}

type Stepper interface {
	Step(sys System, t float64, y State, dt float64) State
}

// AdaptiveStepper takes one trial step and reports the scaled error norm of
// that step (accept when <= 1) together with a proposed next step size.
type AdaptiveStepper interface {
	Stepper
	StepAdaptive(sys System, t float64, y State, dt, rtol, atol float64) (next State, errNorm, dtNew float64)
	Order() int
}

// Trajectory is a dense solution sampled on a fixed time grid. Y holds one
// series per state variable, index-aligned with Names.
type Trajectory struct {
	Names       []string
	T           []float64
	Y           [][]float64
	Steps       int
	Rejected    int
	Evaluations int
}

// Dim returns the number of state variables.
func (tr *Trajectory) Dim() int { return len(tr.Y) }

// Len returns the number of sample points.
func (tr *Trajectory) Len() int { return len(tr.T) }

// State returns the state vector at sample k.
func (tr *Trajectory) State(k int) State {
	s := make(State, len(tr.Y))
	for i := range tr.Y {
		s[i] = tr.Y[i][k]
	}
	return s
}

// Label returns the display name of series i, falling back to y<i>(t).
func (tr *Trajectory) Label(i int) string {
	if i < len(tr.Names) && tr.Names[i] != "" {
		return tr.Names[i]
	}
	return "y" + strconv.Itoa(i) + "(t)"
}
