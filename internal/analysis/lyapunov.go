package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
	"github.com/san-kum/odelab/internal/model"
)

// LyapunovExponent estimates the largest Lyapunov exponent of d by following
// a reference and a perturbed trajectory with RK4 on the descriptor's grid,
// renormalizing their separation to the initial distance after every step.
// A positive value indicates chaos.
func LyapunovExponent(d *model.Descriptor, perturbation float64) (float64, error) {
	if perturbation <= 0 {
		return 0, errors.New("analysis: perturbation must be positive")
	}
	t0, t1 := d.TimeSpan()
	steps := d.Resolution() - 1
	if steps < 1 {
		return 0, errors.New("analysis: need at least two samples")
	}
	dt := (t1 - t0) / float64(steps)

	sys := d.System()
	integ := integrators.NewRK4()

	x := dynamo.State(d.InitialConditions())
	xp := x.Clone()
	xp[0] += perturbation
	d0 := perturbation

	sumLog := 0.0
	t := t0
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, t, x, dt)
		xp = integ.Step(sys, t, xp, dt)
		t += dt

		if !x.IsValid() || !xp.IsValid() {
			return 0, &dynamo.IntegrationError{Time: t, Step: i, Reason: "state became NaN or Inf"}
		}

		sep := xp.Sub(x).Norm()
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)

		// pull the twin back to distance d0 along the current separation
		xp = x.AddScaled(d0/sep, xp.Sub(x))
	}

	return sumLog / (t - t0), nil
}
