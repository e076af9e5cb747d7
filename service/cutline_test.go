package service

import (
	"context"
	"image"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCutlineSquare(t *testing.T) {
	e := testEngine(t)
	src := opaqueRect(100, 100, image.Rect(20, 20, 80, 80))
	_, variant := buildTestVariant(t, e, src, "cut1", 3)

	cutline, ok := e.ExtractCutline(variant, 400, 400)
	require.True(t, ok)

	assert.True(t, strings.HasPrefix(cutline.Path, "M "))
	assert.True(t, strings.HasSuffix(cutline.Path, " Z"))
	assert.Contains(t, cutline.Path, " L ")
	assert.Equal(t, 0.5, cutline.StrokeWidth)
	assert.Greater(t, cutline.Points, 3)

	// A dilated square silhouette simplifies to far fewer points than the
	// raw pixel trace.
	raw := TraceContour(variant.Mask)
	assert.Less(t, cutline.Points, len(raw))
}

func TestExtractCutlineEmptyMask(t *testing.T) {
	e := testEngine(t)
	src := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	mc, err := e.BuildMasterContext(context.Background(), src, "cut2")
	require.NoError(t, err)
	variant := e.GetOrBuildVariant(mc, 3, DilateExact)

	_, ok := e.ExtractCutline(variant, 400, 400)
	assert.False(t, ok, "no silhouette means no cutline, not an error")
}

func TestExtractCutlineCoordinatesInsideOutput(t *testing.T) {
	e := testEngine(t)
	src := opaqueRect(120, 80, image.Rect(10, 10, 110, 70))
	_, variant := buildTestVariant(t, e, src, "cut3", 5)

	cutline, ok := e.ExtractCutline(variant, 600, 400)
	require.True(t, ok)

	for _, tok := range strings.Fields(cutline.Path) {
		if tok == "M" || tok == "L" || tok == "Z" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		require.NoError(t, err, "token %q", tok)
		assert.GreaterOrEqual(t, v, -1.0, "coordinate %q below output raster", tok)
		assert.LessOrEqual(t, v, 601.0, "coordinate %q beyond output raster", tok)
	}
}
