package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and integration.
var (
	// ErrMalformedExpression indicates right-hand-side text that does not parse
	// as an arithmetic expression over the permitted names.
	ErrMalformedExpression = errors.New("dynamo: malformed expression")

	// ErrArityMismatch indicates disagreeing counts of variables, equations,
	// initial conditions or parameter values.
	ErrArityMismatch = errors.New("dynamo: arity mismatch")

	// ErrInvalidTimeSpan indicates a time span that is not exactly two
	// increasing finite values.
	ErrInvalidTimeSpan = errors.New("dynamo: invalid time span")

	// ErrUnresolvedParameter indicates a parameter referenced by the field
	// that was never given a value.
	ErrUnresolvedParameter = errors.New("dynamo: unresolved parameter")

	// ErrIntegrationFailure indicates the integrator could not produce a
	// finite trajectory.
	ErrIntegrationFailure = errors.New("dynamo: integration failure")
)

// ExpressionError wraps ErrMalformedExpression with the offending text.
type ExpressionError struct {
	Text   string
	Pos    int
	Reason string
}

func (e *ExpressionError) Error() string {
	if e.Pos >= 0 && e.Text != "" {
		return fmt.Sprintf("malformed expression %q at offset %d: %s", e.Text, e.Pos, e.Reason)
	}
	if e.Text != "" {
		return fmt.Sprintf("malformed expression %q: %s", e.Text, e.Reason)
	}
	return "malformed expression: " + e.Reason
}

func (e *ExpressionError) Unwrap() error {
	return ErrMalformedExpression
}

// ArityError wraps ErrArityMismatch with the expected and actual counts.
type ArityError struct {
	What     string
	Expected int
	Actual   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *ArityError) Unwrap() error {
	return ErrArityMismatch
}

// TimeSpanError wraps ErrInvalidTimeSpan.
type TimeSpanError struct {
	Text   string
	Reason string
}

func (e *TimeSpanError) Error() string {
	if e.Text == "" {
		return "invalid time span: " + e.Reason
	}
	return fmt.Sprintf("invalid time span %q: %s", e.Text, e.Reason)
}

func (e *TimeSpanError) Unwrap() error {
	return ErrInvalidTimeSpan
}

// ParameterError wraps ErrUnresolvedParameter. Name is empty when the
// parameter is only known by position.
type ParameterError struct {
	Name   string
	Index  int
	Reason string
}

func (e *ParameterError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("parameter %s (p[%d]): %s", e.Name, e.Index, e.Reason)
	}
	return fmt.Sprintf("parameter p[%d]: %s", e.Index, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrUnresolvedParameter
}

// IntegrationError wraps ErrIntegrationFailure with the last valid time
// reached by the integrator.
type IntegrationError struct {
	Time   float64
	Step   int
	Reason string
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration failed at step %d (t=%.6g): %s", e.Step, e.Time, e.Reason)
}

func (e *IntegrationError) Unwrap() error {
	return ErrIntegrationFailure
}
