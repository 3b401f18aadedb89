package expr

import (
	"math"
	"sort"
)

// LibraryVersion identifies the contents of the math allow-list. Bump it
// whenever a name is added or removed, since parameter discovery depends on
// the exact set.
const LibraryVersion = 1

// Variadic marks a function accepting one or more arguments.
const Variadic = -1

// Function is an allow-listed math function.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int // Variadic for no upper bound
	Fn      func(args []float64) float64
}

func (f Function) accepts(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs == Variadic || n <= f.MaxArgs
}

func unary(name string, fn func(float64) float64) Function {
	return Function{Name: name, MinArgs: 1, MaxArgs: 1, Fn: func(a []float64) float64 { return fn(a[0]) }}
}

func binary(name string, fn func(float64, float64) float64) Function {
	return Function{Name: name, MinArgs: 2, MaxArgs: 2, Fn: func(a []float64) float64 { return fn(a[0], a[1]) }}
}

var functions = map[string]Function{}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
	"inf": math.Inf(1),
	"nan": math.NaN(),
}

func init() {
	for _, f := range []Function{
		unary("sin", math.Sin),
		unary("cos", math.Cos),
		unary("tan", math.Tan),
		unary("asin", math.Asin),
		unary("acos", math.Acos),
		unary("atan", math.Atan),
		unary("sinh", math.Sinh),
		unary("cosh", math.Cosh),
		unary("tanh", math.Tanh),
		unary("asinh", math.Asinh),
		unary("acosh", math.Acosh),
		unary("atanh", math.Atanh),
		unary("exp", math.Exp),
		unary("expm1", math.Expm1),
		unary("log10", math.Log10),
		unary("log2", math.Log2),
		unary("log1p", math.Log1p),
		unary("ln", math.Log),
		unary("sqrt", math.Sqrt),
		unary("cbrt", math.Cbrt),
		unary("abs", math.Abs),
		unary("fabs", math.Abs),
		unary("floor", math.Floor),
		unary("ceil", math.Ceil),
		unary("trunc", math.Trunc),
		unary("erf", math.Erf),
		unary("erfc", math.Erfc),
		unary("gamma", math.Gamma),
		unary("lgamma", func(x float64) float64 { v, _ := math.Lgamma(x); return v }),
		unary("degrees", func(x float64) float64 { return x * 180 / math.Pi }),
		unary("radians", func(x float64) float64 { return x * math.Pi / 180 }),
		unary("sign", sign),
		binary("atan2", math.Atan2),
		binary("pow", math.Pow),
		binary("hypot", math.Hypot),
		binary("fmod", math.Mod),
		binary("copysign", math.Copysign),
		{Name: "log", MinArgs: 1, MaxArgs: 2, Fn: logBase},
		{Name: "min", MinArgs: 1, MaxArgs: Variadic, Fn: minOf},
		{Name: "max", MinArgs: 1, MaxArgs: Variadic, Fn: maxOf},
	} {
		functions[f.Name] = f
	}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x
}

// logBase is log(x) or log(x, base).
func logBase(a []float64) float64 {
	if len(a) == 2 {
		return math.Log(a[0]) / math.Log(a[1])
	}
	return math.Log(a[0])
}

func minOf(a []float64) float64 {
	m := a[0]
	for _, v := range a[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(a []float64) float64 {
	m := a[0]
	for _, v := range a[1:] {
		m = math.Max(m, v)
	}
	return m
}

// LookupFunction returns the allow-listed function with the given lowercase name.
func LookupFunction(name string) (Function, bool) {
	f, ok := functions[name]
	return f, ok
}

// LookupConstant returns the allow-listed constant with the given lowercase name.
func LookupConstant(name string) (float64, bool) {
	v, ok := constants[name]
	return v, ok
}

// IsLibraryName reports whether name is an allow-listed function or constant.
func IsLibraryName(name string) bool {
	if _, ok := functions[name]; ok {
		return true
	}
	_, ok := constants[name]
	return ok
}

// LibraryNames lists every allow-listed function and constant, sorted.
func LibraryNames() []string {
	names := make([]string, 0, len(functions)+len(constants))
	for n := range functions {
		names = append(names, n)
	}
	for n := range constants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
