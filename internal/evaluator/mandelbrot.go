package evaluator

import "yqhp/fractal-engine/pkg/types"

// Mandelbrot counts the iterations of z = z² + c before |z| exceeds 2.
type Mandelbrot struct {
	maxIter int
}

// NewMandelbrot creates a Mandelbrot evaluator.
func NewMandelbrot(maxIter int) *Mandelbrot {
	return &Mandelbrot{maxIter: maxIter}
}

// Name implements PointEvaluator.
func (m *Mandelbrot) Name() string { return KindMandelbrot }

// MaxIter implements PointEvaluator.
func (m *Mandelbrot) MaxIter() int { return m.maxIter }

// Evaluate implements PointEvaluator.
func (m *Mandelbrot) Evaluate(p types.Point) int {
	var zr, zi float64
	iter := 0
	// |z| <= 2 compared squared
	for zr*zr+zi*zi <= 4 && iter < m.maxIter {
		zr, zi = zr*zr-zi*zi+p.Re, 2*zr*zi+p.Im
		iter++
	}
	return iter
}
