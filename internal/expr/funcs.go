package expr

import (
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

const pi = math.Pi

// unaryMath wraps a float64 math function as a cty function of one number.
func unaryMath(impl func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "x", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			x, _ := args[0].AsBigFloat().Float64()
			return cty.NumberFloatVal(impl(x)), nil
		},
	})
}

// binaryMath wraps a float64 math function as a cty function of two numbers.
func binaryMath(impl func(float64, float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "a", Type: cty.Number},
			{Name: "b", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			a, _ := args[0].AsBigFloat().Float64()
			b, _ := args[1].AsBigFloat().Float64()
			return cty.NumberFloatVal(impl(a, b)), nil
		},
	})
}

// mathFunctions is the function catalogue available to lattice expressions.
// It mirrors the usual accelerator-description evaluator surface.
func mathFunctions() map[string]function.Function {
	return map[string]function.Function{
		"sin":   unaryMath(math.Sin),
		"cos":   unaryMath(math.Cos),
		"tan":   unaryMath(math.Tan),
		"asin":  unaryMath(math.Asin),
		"acos":  unaryMath(math.Acos),
		"atan":  unaryMath(math.Atan),
		"sinh":  unaryMath(math.Sinh),
		"cosh":  unaryMath(math.Cosh),
		"tanh":  unaryMath(math.Tanh),
		"sqrt":  unaryMath(math.Sqrt),
		"abs":   unaryMath(math.Abs),
		"exp":   unaryMath(math.Exp),
		"log":   unaryMath(math.Log),
		"log10": unaryMath(math.Log10),
		"floor": unaryMath(math.Floor),
		"ceil":  unaryMath(math.Ceil),
		"atan2": binaryMath(math.Atan2),
		"pow":   binaryMath(math.Pow),
	}
}
