package compiler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
)

func TestCompile_Decay(t *testing.T) {
	f, err := Compile([]string{"N"}, "dN/dt = -k*N")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	if got := f.Source(); got != "-p[0]*y[0]" {
		t.Errorf("source = %q, want %q", got, "-p[0]*y[0]")
	}
	if !reflect.DeepEqual(f.Parameters, []string{"k"}) {
		t.Errorf("parameters = %v, want [k]", f.Parameters)
	}
	if f.Dim() != 1 {
		t.Errorf("dim = %d, want 1", f.Dim())
	}
	if f.Original[0] != "-k*N" {
		t.Errorf("original = %q", f.Original[0])
	}
}

func TestCompile_CaseInsensitive(t *testing.T) {
	f, err := Compile([]string{"n"}, "-K*n + K*N")
	if err != nil {
		t.Fatal(err)
	}
	if f.Variables[0] != "N" {
		t.Errorf("variable = %q, want N", f.Variables[0])
	}
	if got := f.Source(); got != "-p[0]*y[0]+p[0]*y[0]" {
		t.Errorf("source = %q", got)
	}
	if !reflect.DeepEqual(f.Parameters, []string{"k"}) {
		t.Errorf("parameters = %v, want [k]", f.Parameters)
	}
}

func TestCompile_NoPartialNameSubstitution(t *testing.T) {
	tests := []struct {
		name   string
		vars   []string
		rhs    string
		source string
		params []string
	}{
		{"param containing var", []string{"N"}, "-Nk*N", "-p[0]*y[0]", []string{"nk"}},
		{"var inside function name", []string{"S", "I"}, "-b*S*I, b*S*I - g*sin(I)", "-p[0]*y[0]*y[1], p[0]*y[0]*y[1]-p[1]*sin(y[1])", []string{"b", "g"}},
		{"var prefix of other var", []string{"X", "XX"}, "XX, -X", "y[1], -y[0]", nil},
		{"var equals param suffix", []string{"a"}, "ba*a", "p[0]*y[0]", []string{"ba"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.vars, tt.rhs)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if got := f.Source(); got != tt.source {
				t.Errorf("source = %q, want %q", got, tt.source)
			}
			if len(tt.params) == 0 && len(f.Parameters) == 0 {
				return
			}
			if !reflect.DeepEqual(f.Parameters, tt.params) {
				t.Errorf("parameters = %v, want %v", f.Parameters, tt.params)
			}
		})
	}
}

func TestCompile_ParameterDiscovery(t *testing.T) {
	f, err := Compile([]string{"X", "Y2", "Z"}, "sigma*(y2 - x), x*(rho - z) - y2, x*y2 - beta*z + exp(-t)*pi")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"sigma", "rho", "beta"}
	if !reflect.DeepEqual(f.Parameters, want) {
		t.Errorf("parameters = %v, want %v", f.Parameters, want)
	}
	for _, p := range f.Parameters {
		switch p {
		case "exp", "pi", "t", "y":
			t.Errorf("%s must not be a parameter", p)
		}
	}
}

func TestCompile_DeterministicOrder(t *testing.T) {
	rhs := "a*X + b*W - c, d*X - e1*W + f1*g1"
	first, err := Compile([]string{"X", "W"}, rhs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		again, err := Compile([]string{"X", "W"}, rhs)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Parameters, again.Parameters) {
			t.Fatalf("run %d parameter order %v differs from %v", i, again.Parameters, first.Parameters)
		}
		if first.Source() != again.Source() {
			t.Fatalf("run %d source %q differs from %q", i, again.Source(), first.Source())
		}
	}
	want := []string{"a", "b", "c", "d", "e1", "f1", "g1"}
	if !reflect.DeepEqual(first.Parameters, want) {
		t.Errorf("parameters = %v, want %v", first.Parameters, want)
	}
}

func TestCompile_CallTargetsAreNotParameters(t *testing.T) {
	_, err := Compile([]string{"X"}, "f(X) + f")
	if !errors.Is(err, dynamo.ErrMalformedExpression) {
		t.Errorf("unknown call target: err = %v, want ErrMalformedExpression", err)
	}

	f, err := Compile([]string{"X"}, "atan2(X, w) + max(X, 1, w)")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f.Parameters, []string{"w"}) {
		t.Errorf("parameters = %v, want [w]", f.Parameters)
	}
}

func TestCompile_Arity(t *testing.T) {
	tests := []struct {
		name string
		vars []string
		rhs  string
	}{
		{"too few", []string{"X", "W"}, "-X"},
		{"too many", []string{"X"}, "-X, -X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.vars, tt.rhs)
			if !errors.Is(err, dynamo.ErrArityMismatch) {
				t.Fatalf("err = %v, want ErrArityMismatch", err)
			}
			var ae *dynamo.ArityError
			if !errors.As(err, &ae) {
				t.Fatal("expected *ArityError")
			}
			if ae.Expected != len(tt.vars) {
				t.Errorf("expected count = %d, want %d", ae.Expected, len(tt.vars))
			}
		})
	}
}

func TestCompile_Malformed(t *testing.T) {
	tests := []struct {
		name string
		vars []string
		rhs  string
	}{
		{"syntax", []string{"X"}, "-k*"},
		{"unbalanced", []string{"X"}, "sin(X"},
		{"variable as function", []string{"X"}, "X(1)"},
		{"bare state array", []string{"X"}, "y*X"},
		{"positional param", []string{"X"}, "p[0]*X"},
		{"reserved variable", []string{"t"}, "1"},
		{"library variable", []string{"pi"}, "1"},
		{"duplicate variable", []string{"X", "x"}, "1, 2"},
		{"empty variable", []string{""}, "1"},
		{"unknown function", []string{"X"}, "system(X)"},
		{"wrong arity", []string{"X"}, "sin(X, X)"},
		{"statement", []string{"X"}, "import os"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.vars, tt.rhs)
			if !errors.Is(err, dynamo.ErrMalformedExpression) {
				t.Errorf("err = %v, want ErrMalformedExpression", err)
			}
		})
	}
}

func TestParseVariables(t *testing.T) {
	vars, err := ParseVariables(" j, r ")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(vars, []string{"J", "R"}) {
		t.Errorf("vars = %v", vars)
	}
	if _, err := ParseVariables("a b"); err == nil {
		t.Error("expected error for non-identifier")
	}
}

func TestCompileEquations_LengthMatchesVariables(t *testing.T) {
	f, err := CompileEquations([]string{"J", "R"}, []string{"a*R", "-b*J"})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Exprs) != len(f.Variables) {
		t.Errorf("exprs %d != variables %d", len(f.Exprs), len(f.Variables))
	}
	if got := f.Equations(); !reflect.DeepEqual(got, []string{"p[0]*y[1]", "-p[1]*y[0]"}) {
		t.Errorf("equations = %v", got)
	}
}

func TestCompile_ReservedVariableName(t *testing.T) {
	_, err := Compile([]string{"X", "Y"}, "Y, -X")
	if !errors.Is(err, dynamo.ErrMalformedExpression) {
		t.Errorf("err = %v, want ErrMalformedExpression", err)
	}
}
