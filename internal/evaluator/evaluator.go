// Package evaluator provides the per-point functions the grid is filled with.
// Every evaluator is pure and returns its iteration cap when the point neither
// escapes nor converges within it.
package evaluator

import "yqhp/fractal-engine/pkg/types"

// PointEvaluator maps one coordinate to an iteration count in [0, MaxIter()].
type PointEvaluator interface {
	// Name returns the registered name of the evaluator.
	Name() string

	// MaxIter returns the iteration cap.
	MaxIter() int

	// Evaluate returns the iteration count for p.
	Evaluate(p types.Point) int
}

// Func adapts a plain function to PointEvaluator.
type Func struct {
	Label string
	Cap   int
	Fn    func(p types.Point) int
}

// Name implements PointEvaluator.
func (f Func) Name() string { return f.Label }

// MaxIter implements PointEvaluator.
func (f Func) MaxIter() int { return f.Cap }

// Evaluate implements PointEvaluator.
func (f Func) Evaluate(p types.Point) int { return f.Fn(p) }
