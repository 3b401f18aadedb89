package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/expr"
)

const (
	DefaultResolution = 1000
	MaxResolution     = 1_000_000
)

// ErrInvalidResolution indicates a point count that is not a positive integer
// within MaxResolution.
var ErrInvalidResolution = errors.New("model: resolution must be a positive integer")

// ParseNumber parses a float literal, falling back to a constant arithmetic
// expression such as "1/3" or "2*pi".
func ParseNumber(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}
	return expr.EvalConstant(text)
}

// ParseNumbers parses a comma-separated list of numbers or constant
// expressions. Blank text is an empty list.
func ParseNumbers(text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	items, err := expr.SplitList(text)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		v, err := ParseNumber(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseTimeSpan parses "t0, t1".
func ParseTimeSpan(text string) ([2]float64, error) {
	items, err := expr.SplitList(text)
	if err != nil {
		return [2]float64{}, &dynamo.TimeSpanError{Text: text, Reason: err.Error()}
	}
	if len(items) != 2 {
		return [2]float64{}, &dynamo.TimeSpanError{Text: text, Reason: fmt.Sprintf("expected 2 values, got %d", len(items))}
	}
	var span [2]float64
	for i, item := range items {
		v, err := ParseNumber(item)
		if err != nil {
			return [2]float64{}, &dynamo.TimeSpanError{Text: text, Reason: fmt.Sprintf("bad bound %q", item)}
		}
		span[i] = v
	}
	if err := ValidateTimeSpan(span[:]); err != nil {
		return [2]float64{}, &dynamo.TimeSpanError{Text: text, Reason: err.(*dynamo.TimeSpanError).Reason}
	}
	return span, nil
}

// ValidateTimeSpan checks for exactly two finite, strictly increasing bounds.
func ValidateTimeSpan(span []float64) error {
	if len(span) != 2 {
		return &dynamo.TimeSpanError{Reason: fmt.Sprintf("expected 2 values, got %d", len(span))}
	}
	for _, v := range span {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &dynamo.TimeSpanError{Reason: "bounds must be finite"}
		}
	}
	if span[0] >= span[1] {
		return &dynamo.TimeSpanError{Reason: "start time must be smaller than end time"}
	}
	return nil
}

// ParseResolution parses a positive point count.
func ParseResolution(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidResolution, text)
	}
	return n, ValidateResolution(n)
}

func ValidateResolution(n int) error {
	if n <= 0 || n > MaxResolution {
		return fmt.Errorf("%w: %d", ErrInvalidResolution, n)
	}
	return nil
}

// ParamValue is a parameter value that is either fixed or resolved when the
// descriptor is built, e.g. a random draw.
type ParamValue struct {
	Value    float64
	Deferred func() float64
}

// Literal wraps fixed values.
func Literal(vals ...float64) []ParamValue {
	out := make([]ParamValue, len(vals))
	for i, v := range vals {
		out[i] = ParamValue{Value: v}
	}
	return out
}

// Deferred wraps a value computed at build time.
func Deferred(fn func() float64) ParamValue {
	return ParamValue{Deferred: fn}
}

func (v ParamValue) resolve() float64 {
	if v.Deferred != nil {
		return v.Deferred()
	}
	return v.Value
}

// ParseParameters parses "0.5, 1/3, 2*pi" into literal parameter values.
func ParseParameters(text string) ([]ParamValue, error) {
	vals, err := ParseNumbers(text)
	if err != nil {
		return nil, err
	}
	return Literal(vals...), nil
}
