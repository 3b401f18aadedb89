package integrators

import (
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Order() int { return 5 }

// Step takes one unchecked fifth-order step.
func (r *RK45) Step(sys dynamo.System, t float64, y dynamo.State, dt float64) dynamo.State {
	next, _, _ := r.StepAdaptive(sys, t, y, dt, 1e-6, 1e-9)
	return next
}

// StepAdaptive takes a trial step of size dt. errNorm is the RMS of the
// embedded error estimate scaled by atol + rtol*max(|y|, |next|); the step
// is acceptable when errNorm <= 1.
func (r *RK45) StepAdaptive(sys dynamo.System, t float64, y dynamo.State, dt, rtol, atol float64) (dynamo.State, float64, float64) {
	n := len(y)

	k1 := sys.Derive(t, y)

	y2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		y2[i] = y[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(t+a2*dt, y2)

	y3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		y3[i] = y[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(t+a3*dt, y3)

	y4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		y4[i] = y[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(t+a4*dt, y4)

	y5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		y5[i] = y[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(t+a5*dt, y5)

	y6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		y6[i] = y[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(t+dt, y6)

	yNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(t+dt, yNew)

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := atol + rtol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		sum += (errEst / scale) * (errEst / scale)
	}
	errNorm := 0.0
	if n > 0 {
		errNorm = math.Sqrt(sum / float64(n))
	}
	if math.IsNaN(errNorm) {
		errNorm = math.Inf(1)
	}

	var factor float64
	switch {
	case errNorm == 0:
		factor = r.maxScale
	case math.IsInf(errNorm, 1):
		factor = r.minScale
	default:
		factor = r.safety * math.Pow(errNorm, -1.0/float64(r.Order()))
		factor = math.Min(r.maxScale, math.Max(r.minScale, factor))
	}

	return yNew, errNorm, dt * factor
}
