package integrators

import "github.com/san-kum/odelab/internal/dynamo"

// Tableau is the Butcher tableau of an explicit Runge-Kutta method. A is
// strictly lower triangular; row i holds the weights of stages 0..i-1.
type Tableau struct {
	A [][]float64
	B []float64
	C []float64
}

var (
	eulerTableau = Tableau{
		A: [][]float64{{}},
		B: []float64{1},
		C: []float64{0},
	}
	heunTableau = Tableau{
		A: [][]float64{{}, {1}},
		B: []float64{0.5, 0.5},
		C: []float64{0, 1},
	}
	midpointTableau = Tableau{
		A: [][]float64{{}, {0.5}},
		B: []float64{0, 1},
		C: []float64{0, 0.5},
	}
	rk4Tableau = Tableau{
		A: [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		C: []float64{0, 0.5, 0.5, 1},
	}
)

// Explicit is a fixed-step explicit Runge-Kutta stepper. It keeps stage
// buffers between steps, so one Explicit must not be shared between
// goroutines.
type Explicit struct {
	tab     Tableau
	order   int
	k       []dynamo.State
	scratch dynamo.State
}

func NewExplicit(tab Tableau, order int) *Explicit {
	return &Explicit{tab: tab, order: order}
}

func NewEuler() *Explicit    { return NewExplicit(eulerTableau, 1) }
func NewHeun() *Explicit     { return NewExplicit(heunTableau, 2) }
func NewMidpoint() *Explicit { return NewExplicit(midpointTableau, 2) }
func NewRK4() *Explicit      { return NewExplicit(rk4Tableau, 4) }

func (e *Explicit) Order() int  { return e.order }
func (e *Explicit) Stages() int { return len(e.tab.B) }

func (e *Explicit) ensureScratch(n int) {
	if e.k != nil && len(e.scratch) == n {
		return
	}
	e.k = make([]dynamo.State, len(e.tab.B))
	for s := range e.k {
		e.k[s] = make(dynamo.State, n)
	}
	e.scratch = make(dynamo.State, n)
}

func (e *Explicit) Step(sys dynamo.System, t float64, y dynamo.State, dt float64) dynamo.State {
	n := len(y)
	e.ensureScratch(n)

	for s, row := range e.tab.A {
		copy(e.scratch, y)
		for j, a := range row {
			if a == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				e.scratch[i] += dt * a * e.k[j][i]
			}
		}
		copy(e.k[s], sys.Derive(t+e.tab.C[s]*dt, e.scratch))
	}

	next := y.Clone()
	for s, b := range e.tab.B {
		if b == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			next[i] += dt * b * e.k[s][i]
		}
	}
	return next
}
