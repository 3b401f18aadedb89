package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
)

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	dt := 0.01
	steps := 100

	y := dynamo.State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		y = integ.Step(harmonicOscillator, float64(i)*dt, y, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(y[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", y[0], expectedX)
	}

	if math.Abs(y[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", y[1], expectedV)
	}
}

func TestEuler_Decay(t *testing.T) {
	decay := fieldFunc{dim: 1, fn: func(t float64, y dynamo.State) dynamo.State {
		return dynamo.State{-0.5 * y[0]}
	}}
	integ := NewEuler()

	y := dynamo.State{100}
	dt := 0.001
	for i := 0; i < 10000; i++ {
		next := integ.Step(decay, float64(i)*dt, y, dt)
		if next[0] > y[0] {
			t.Fatalf("step %d increased: %g -> %g", i, y[0], next[0])
		}
		y = next
	}

	want := 100 * math.Exp(-5)
	if math.Abs(y[0]-want)/want > 0.01 {
		t.Errorf("y(10) = %g, want ~%g", y[0], want)
	}
}

func TestSteppers_TimeDependentField(t *testing.T) {
	// dy/dt = 2t, y(0) = 0, so y(1) = 1.
	ramp := fieldFunc{dim: 1, fn: func(t float64, y dynamo.State) dynamo.State {
		return dynamo.State{2 * t}
	}}
	for _, s := range []dynamo.Stepper{NewRK4(), NewRK45()} {
		y := dynamo.State{0}
		for i := 0; i < 10; i++ {
			y = s.Step(ramp, float64(i)*0.1, y, 0.1)
		}
		if math.Abs(y[0]-1) > 1e-12 {
			t.Errorf("%T: y(1) = %.15f, want 1", s, y[0])
		}
	}
}

func TestExplicit_ConvergenceOrder(t *testing.T) {
	// Halving dt should shrink the global error by about 2^order.
	solveTo := func(s dynamo.Stepper, dt float64) float64 {
		y := dynamo.State{1.0, 0.0}
		steps := int(math.Round(1 / dt))
		for i := 0; i < steps; i++ {
			y = s.Step(harmonicOscillator, float64(i)*dt, y, dt)
		}
		return math.Abs(y[0] - math.Cos(1))
	}

	tests := []struct {
		name    string
		stepper func() *Explicit
		order   int
	}{
		{"euler", NewEuler, 1},
		{"heun", NewHeun, 2},
		{"midpoint", NewMidpoint, 2},
		{"rk4", NewRK4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.stepper()
			if s.Order() != tt.order {
				t.Fatalf("Order() = %d, want %d", s.Order(), tt.order)
			}
			coarse := solveTo(s, 0.02)
			fine := solveTo(s, 0.01)
			got := math.Log2(coarse / fine)
			if math.Abs(got-float64(tt.order)) > 0.35 {
				t.Errorf("observed order %.2f, want %d", got, tt.order)
			}
		})
	}
}
