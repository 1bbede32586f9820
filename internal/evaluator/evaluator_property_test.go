package evaluator

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"yqhp/fractal-engine/pkg/types"
)

// Every evaluator stays within [0, MaxIter] for any point.
func TestEvaluatorBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	mandelbrot := NewMandelbrot(64)
	newton := NewNewton(64, 1e-6)

	properties.Property("mandelbrot bounded", prop.ForAll(
		func(re, im float64) bool {
			v := mandelbrot.Evaluate(types.Point{Re: re, Im: im})
			return v >= 0 && v <= mandelbrot.MaxIter()
		},
		gen.Float64Range(-3, 3),
		gen.Float64Range(-3, 3),
	))

	properties.Property("newton bounded", prop.ForAll(
		func(re, im float64) bool {
			v := newton.Evaluate(types.Point{Re: re, Im: im})
			return v >= 0 && v <= newton.MaxIter()
		},
		gen.Float64Range(-1, 1),
		gen.Float64Range(-1, 1),
	))

	properties.TestingRun(t)
}
