package expression

import "math"

// FunctionName names a built-in numeric function.
type FunctionName string

const (
	Min   FunctionName = "min"
	Max   FunctionName = "max"
	Floor FunctionName = "floor"
	Ceil  FunctionName = "ceil"
	Round FunctionName = "round"
	Abs   FunctionName = "abs"
)

type function struct {
	minArgs int
	maxArgs int // -1 = variadic
	apply   func(args []float64) float64
}

var functions = map[FunctionName]function{
	Min: {minArgs: 1, maxArgs: -1, apply: func(args []float64) float64 {
		v := args[0]
		for _, a := range args[1:] {
			v = math.Min(v, a)
		}
		return v
	}},
	Max: {minArgs: 1, maxArgs: -1, apply: func(args []float64) float64 {
		v := args[0]
		for _, a := range args[1:] {
			v = math.Max(v, a)
		}
		return v
	}},
	Floor: {minArgs: 1, maxArgs: 1, apply: func(args []float64) float64 { return math.Floor(args[0]) }},
	Ceil:  {minArgs: 1, maxArgs: 1, apply: func(args []float64) float64 { return math.Ceil(args[0]) }},
	// Halves round toward positive infinity: round(2.5) = 3, round(-2.5) = -2.
	Round: {minArgs: 1, maxArgs: 1, apply: func(args []float64) float64 { return math.Floor(args[0] + 0.5) }},
	Abs:   {minArgs: 1, maxArgs: 1, apply: func(args []float64) float64 { return math.Abs(args[0]) }},
}

// IsFunctionName reports whether name is a built-in function.
func IsFunctionName(name string) bool {
	_, ok := functions[FunctionName(name)]
	return ok
}
