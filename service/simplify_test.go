package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifySquareToCorners(t *testing.T) {
	// Closed axis-aligned square with collinear mid-edge points.
	pts := []Point{
		{0, 0}, {1, 0}, {2, 0}, {3, 0},
		{3, 1}, {3, 2}, {3, 3},
		{2, 3}, {1, 3}, {0, 3},
		{0, 2}, {0, 1}, {0, 0},
	}
	out := SimplifyRDP(pts, 1)

	require.Len(t, out, 5)
	assert.Equal(t, []Point{{0, 0}, {3, 0}, {3, 3}, {0, 3}, {0, 0}}, out)
}

func TestSimplifyKeepsEndpoints(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0.2}, {2, -0.1}, {3, 0.15}, {4, 0}}
	out := SimplifyRDP(pts, 0.5)

	require.GreaterOrEqual(t, len(out), 2)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[len(pts)-1], out[len(out)-1])
}

func TestSimplifyNeverGrows(t *testing.T) {
	pts := []Point{
		{0, 0}, {1, 2}, {2, -1}, {3, 4}, {4, 0}, {5, 3}, {6, -2}, {7, 0},
	}
	for _, tol := range []float64{0, 0.5, 1, 2, 10} {
		out := SimplifyRDP(pts, tol)
		assert.LessOrEqual(t, len(out), len(pts), "tolerance %v", tol)
		assert.Equal(t, pts[0], out[0])
		assert.Equal(t, pts[len(pts)-1], out[len(out)-1])
	}
}

func TestSimplifyTinyInputsUntouched(t *testing.T) {
	one := []Point{{1, 1}}
	two := []Point{{1, 1}, {2, 2}}
	assert.Equal(t, one, SimplifyRDP(one, 5))
	assert.Equal(t, two, SimplifyRDP(two, 5))
}

func TestSimplifyKeepsSignificantDetour(t *testing.T) {
	pts := []Point{{0, 0}, {5, 4}, {10, 0}}
	out := SimplifyRDP(pts, 1.2)
	assert.Len(t, out, 3, "a 4px detour must survive a 1.2px tolerance")
}

func TestPathDataFormat(t *testing.T) {
	pts := []Point{{0, 0}, {3, 0}, {3, 3}, {0, 0}}
	path := PathData(pts, 2, 2, 0, 0)
	assert.Equal(t, "M 0 0 L 6 0 L 6 6 L 0 0 Z", path)
}

func TestPathDataPrecisionAndOffset(t *testing.T) {
	pts := []Point{{10.5, 20.25}, {11.123, 21.987}}
	path := PathData(pts, 1, 1, 10, 20)

	assert.True(t, strings.HasPrefix(path, "M 0.5 0.25 L "), path)
	assert.True(t, strings.HasSuffix(path, " Z"), path)
	assert.Contains(t, path, "1.12 1.99")
	// Never more than 2 decimal places.
	for _, tok := range strings.Fields(path) {
		if i := strings.IndexByte(tok, '.'); i >= 0 {
			assert.LessOrEqual(t, len(tok)-i-1, 2, "token %q", tok)
		}
	}
}

func TestPathDataEmpty(t *testing.T) {
	assert.Equal(t, "", PathData(nil, 1, 1, 0, 0))
}
