// Package dynamo provides the core primitives shared by the ODE pipeline.
//
// The package defines the fundamental types that flow between the compiler,
// the model builder, the integrators and the renderer:
//
//   - [State]: vector representing the system state y
//   - [System]: a closed vector field dy/dt = f(t, y)
//   - [Stepper]: numerical integrator interface
//   - [Trajectory]: sampled solution over a time grid
//
// It also holds the error taxonomy. Every failure surfaced by the pipeline
// wraps one of the sentinels ([ErrMalformedExpression], [ErrArityMismatch],
// [ErrInvalidTimeSpan], [ErrUnresolvedParameter], [ErrIntegrationFailure])
// so callers can branch with errors.Is and recover context with errors.As.
//
// # Example
//
//	field, _ := compiler.Compile([]string{"N"}, "-k*N")
//	d, _ := model.Build("decay", field, "0,10", "100", model.WithParameters("0.5"))
//	traj, _ := solver.Solve(d)
//
// # Thread Safety
//
// Values in this package are plain data. A [Trajectory] is owned by the caller
// that requested it and is never shared by the pipeline.
package dynamo
