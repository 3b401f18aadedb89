package integrators

import (
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	y := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		y = integrator.Step(harmonicOscillator, 0, y, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	y := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		y = integrator.Step(harmonicOscillator, 0, y, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	y := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		y = integrator.Step(harmonicOscillator, 0, y, 0.01)
	}
}

func BenchmarkRK45_CompiledLorenz(b *testing.B) {
	d, err := model.GetPreset("lorenz", "classic").Build("lorenz")
	if err != nil {
		b.Fatal(err)
	}
	sys := d.System()
	integrator := NewRK45()
	y := dynamo.State(d.InitialConditions())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		y = integrator.Step(sys, 0, y, 0.001)
	}
}
