package baseline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

func sumEvaluator() evaluator.PointEvaluator {
	return evaluator.Func{Label: "sum", Cap: 100, Fn: func(p types.Point) int { return int(p.Re + p.Im) }}
}

func TestComputeRowPlusCol(t *testing.T) {
	geometry, err := grid.NewGeometry(4, 4, types.Window{XMin: 0, XMax: 3, YMin: 0, YMax: 3})
	require.NoError(t, err)

	g, err := Compute(context.Background(), geometry, sumEvaluator())
	require.NoError(t, err)
	require.True(t, g.Complete())

	want := [][]int{{0, 1, 2, 3}, {1, 2, 3, 4}, {2, 3, 4, 5}, {3, 4, 5, 6}}
	for row, values := range want {
		assert.Equal(t, values, g.Row(row))
	}
}

func TestRunMetadata(t *testing.T) {
	window := types.Window{XMin: -1.5, XMax: -1.2, YMin: -0.1, YMax: 0.1}
	geometry, err := grid.NewGeometry(8, 3, window)
	require.NoError(t, err)

	g, meta, err := Run(context.Background(), geometry, evaluator.NewMandelbrot(30))
	require.NoError(t, err)
	assert.Equal(t, 8, g.Width())
	assert.Equal(t, 8, meta.Width)
	assert.Equal(t, 3, meta.Height)
	assert.Equal(t, window, meta.Window)
	assert.GreaterOrEqual(t, meta.Elapsed.Nanoseconds(), int64(0))
}

func TestComputeCancelled(t *testing.T) {
	geometry, err := grid.NewGeometry(4, 4, types.Window{XMax: 1, YMax: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Compute(ctx, geometry, sumEvaluator())
	assert.ErrorIs(t, err, context.Canceled)
}
