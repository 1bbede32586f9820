package evaluator

import (
	"math/cmplx"

	"yqhp/fractal-engine/pkg/types"
)

// DefaultEpsilon is the convergence tolerance used when none is configured.
const DefaultEpsilon = 1e-6

// Newton counts Newton-Raphson steps on f(z) = z³ - 1 until |f(z)| < epsilon.
type Newton struct {
	maxIter int
	epsilon float64
}

// NewNewton creates a Newton evaluator. A non-positive epsilon selects DefaultEpsilon.
func NewNewton(maxIter int, epsilon float64) *Newton {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Newton{maxIter: maxIter, epsilon: epsilon}
}

// Name implements PointEvaluator.
func (n *Newton) Name() string { return KindNewton }

// MaxIter implements PointEvaluator.
func (n *Newton) MaxIter() int { return n.maxIter }

// Epsilon returns the convergence tolerance.
func (n *Newton) Epsilon() float64 { return n.epsilon }

// Evaluate implements PointEvaluator.
func (n *Newton) Evaluate(p types.Point) int {
	z := complex(p.Re, p.Im)
	for i := 0; i < n.maxIter; i++ {
		f := z*z*z - 1
		if cmplx.Abs(f) < n.epsilon {
			return i
		}
		z -= f / (3 * z * z)
	}
	return n.maxIter
}
