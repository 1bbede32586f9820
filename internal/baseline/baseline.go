// Package baseline computes a grid sequentially on the calling goroutine.
// Its output is the reference the distributed run must reproduce exactly.
package baseline

import (
	"context"
	"fmt"
	"time"

	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// Compute evaluates every cell row by row. ctx is checked between rows.
func Compute(ctx context.Context, geometry *grid.Geometry, ev evaluator.PointEvaluator) (*grid.Grid, error) {
	g, err := grid.New(geometry.Width, geometry.Height)
	if err != nil {
		return nil, fmt.Errorf("allocate grid: %w", err)
	}

	values := make([]int, geometry.Width)
	for row := 0; row < geometry.Height; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for col := range values {
			values[col] = ev.Evaluate(geometry.PointAt(row, col))
		}
		// Insert copies, so values is reused
		if err := g.Insert(row, values); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Run computes the grid and returns it with its run metadata.
func Run(ctx context.Context, geometry *grid.Geometry, ev evaluator.PointEvaluator) (*grid.Grid, types.RunMetadata, error) {
	start := time.Now()
	g, err := Compute(ctx, geometry, ev)
	if err != nil {
		return nil, types.RunMetadata{}, err
	}
	return g, types.RunMetadata{
		Width:   geometry.Width,
		Height:  geometry.Height,
		Window:  geometry.Window,
		Elapsed: time.Since(start),
	}, nil
}
