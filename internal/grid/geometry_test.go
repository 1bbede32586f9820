package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/fractal-engine/pkg/types"
)

var unitWindow = types.Window{XMin: -1, XMax: 1, YMin: -2, YMax: 2}

func TestNewGeometryValidation(t *testing.T) {
	_, err := NewGeometry(0, 4, unitWindow)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = NewGeometry(4, -1, unitWindow)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = NewGeometry(4, 4, types.Window{XMin: 1, XMax: 1, YMin: 0, YMax: 1})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewGeometry(4, 4, types.Window{XMin: 0, XMax: 1, YMin: 2, YMax: 1})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewGeometry(1<<16, 1<<16, unitWindow)
	assert.ErrorIs(t, err, ErrGridTooLarge)
}

func TestPointAtCorners(t *testing.T) {
	g, err := NewGeometry(5, 3, unitWindow)
	require.NoError(t, err)

	assert.Equal(t, types.Point{Re: -1, Im: -2}, g.PointAt(0, 0))
	assert.Equal(t, types.Point{Re: 1, Im: -2}, g.PointAt(0, 4))
	assert.Equal(t, types.Point{Re: -1, Im: 2}, g.PointAt(2, 0))
	assert.Equal(t, types.Point{Re: 0, Im: 0}, g.PointAt(1, 2))
}

func TestSinglePixelAxisMapsToMinimum(t *testing.T) {
	g, err := NewGeometry(1, 1, unitWindow)
	require.NoError(t, err)

	assert.Equal(t, types.Point{Re: -1, Im: -2}, g.PointAt(0, 0))
}

func TestRowPointsMatchesPointAt(t *testing.T) {
	g, err := NewGeometry(7, 5, unitWindow)
	require.NoError(t, err)

	for row := 0; row < g.Height; row++ {
		points := g.RowPoints(row)
		require.Len(t, points, g.Width)
		for col, p := range points {
			assert.Equal(t, g.PointAt(row, col), p)
		}
	}
}

func TestFromJob(t *testing.T) {
	g, err := FromJob(&types.JobSpec{Width: 3, Height: 2, Window: unitWindow})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Width)
	assert.True(t, g.Contains(1))
	assert.False(t, g.Contains(2))

	_, err = FromJob(nil)
	assert.Error(t, err)
}
