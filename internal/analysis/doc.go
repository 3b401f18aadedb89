// Package analysis characterizes solved trajectories.
//
//   - [Summarize]: per-variable range, mean, final value and dominant frequency
//   - [Spectrum]: windowed amplitude spectrum of one series
//   - [LyapunovExponent]: largest Lyapunov exponent of a model
//   - [Sweep]: parameter sweep recording the peaks of one variable
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(d, 1e-8)
//	if err == nil && lambda > 0 {
//	    // System is chaotic
//	}
package analysis
