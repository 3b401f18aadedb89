package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/odelab/internal/dynamo"
)

var registry = map[string]func() dynamo.Stepper{
	"rk45":     func() dynamo.Stepper { return NewRK45() },
	"rk4":      func() dynamo.Stepper { return NewRK4() },
	"heun":     func() dynamo.Stepper { return NewHeun() },
	"midpoint": func() dynamo.Stepper { return NewMidpoint() },
	"euler":    func() dynamo.Stepper { return NewEuler() },
}

// New returns a fresh stepper by name. Steppers may hold scratch state, so
// every solve gets its own.
func New(name string) (dynamo.Stepper, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// Names lists the registered integrators.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
