package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestVariant(t *testing.T, e *Engine, img *image.NRGBA, md5 string, radius int) (*MasterContext, *BackingVariant) {
	t.Helper()
	mc, err := e.BuildMasterContext(context.Background(), img, md5)
	require.NoError(t, err)
	return mc, e.GetOrBuildVariant(mc, radius, DilateExact)
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestCompositeFilledFreeform(t *testing.T) {
	e := testEngine(t)
	src := opaqueRect(100, 100, image.Rect(20, 20, 80, 80))
	mc, variant := buildTestVariant(t, e, src, "comp1", 4)

	data, err := NewComposer().Composite(mc, variant, ComposeOptions{
		OutWidth:   200,
		OutHeight:  200,
		Background: BackgroundFilled,
		FillColor:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Shape:      ShapeFreeform,
	})
	require.NoError(t, err)

	out := decodePNG(t, data)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())

	// Center carries the artwork.
	_, _, _, a := out.At(100, 100).RGBA()
	assert.NotZero(t, a)

	// The crop margin corners stay blank.
	_, _, _, a = out.At(1, 1).RGBA()
	assert.Zero(t, a)
}

func TestCompositeTransparentSkipsFill(t *testing.T) {
	e := testEngine(t)
	src := opaqueRect(100, 100, image.Rect(30, 30, 70, 70))
	mc, variant := buildTestVariant(t, e, src, "comp2", 8)

	data, err := NewComposer().Composite(mc, variant, ComposeOptions{
		OutWidth:   150,
		OutHeight:  150,
		Background: BackgroundTransparent,
		Shape:      ShapeFreeform,
	})
	require.NoError(t, err)

	out := decodePNG(t, data)

	// The border band (inside the backing, outside the artwork) has no
	// fill in transparent mode. Sample just inside the backing edge.
	nrgba, ok := out.(*image.NRGBA)
	require.True(t, ok)
	center := nrgba.NRGBAAt(75, 75)
	assert.NotZero(t, center.A, "artwork center must be opaque")
}

func TestCompositeCircleClipsCorners(t *testing.T) {
	e := testEngine(t)
	src := opaqueRect(100, 100, image.Rect(10, 10, 90, 90))
	mc, variant := buildTestVariant(t, e, src, "comp3", 2)

	data, err := NewComposer().Composite(mc, variant, ComposeOptions{
		OutWidth:   200,
		OutHeight:  200,
		Background: BackgroundFilled,
		FillColor:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Shape:      ShapeCircle,
	})
	require.NoError(t, err)

	out := decodePNG(t, data)
	_, _, _, a := out.At(2, 2).RGBA()
	assert.Zero(t, a, "circle clip must empty the canvas corners")
	_, _, _, a = out.At(100, 100).RGBA()
	assert.NotZero(t, a, "circle center must survive the clip")
}

func TestCompositeEmptySilhouetteStillRenders(t *testing.T) {
	// An all-transparent upload composes a blank output, it never fails.
	e := testEngine(t)
	src := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	mc, variant := buildTestVariant(t, e, src, "comp4", 3)

	data, err := NewComposer().Composite(mc, variant, ComposeOptions{
		OutWidth:   100,
		OutHeight:  100,
		Background: BackgroundFilled,
		FillColor:  color.NRGBA{R: 255, A: 255},
		Shape:      ShapeFreeform,
	})
	require.NoError(t, err)

	out := decodePNG(t, data)
	assert.Equal(t, 100, out.Bounds().Dx())
}

func TestCompositeRejectsBadSize(t *testing.T) {
	e := testEngine(t)
	src := opaqueRect(40, 40, image.Rect(0, 0, 40, 40))
	mc, variant := buildTestVariant(t, e, src, "comp5", 1)

	_, err := NewComposer().Composite(mc, variant, ComposeOptions{OutWidth: 0, OutHeight: 100})
	assert.Error(t, err)
}

func TestFitRectPreservesAspect(t *testing.T) {
	w, h := fitRect(100, 50, 80, 80)
	assert.Equal(t, 80, w)
	assert.Equal(t, 40, h)

	w, h = fitRect(50, 100, 80, 80)
	assert.Equal(t, 40, w)
	assert.Equal(t, 80, h)

	// Never zero, never stretched anisotropically.
	w, h = fitRect(1000, 1, 10, 10)
	assert.GreaterOrEqual(t, w, 1)
	assert.GreaterOrEqual(t, h, 1)
}

func TestShapeCanvasPolicies(t *testing.T) {
	w, h := shapeCanvas(ShapeCircle, 30, 40, 0)
	assert.Equal(t, 50, w, "circle canvas is the content diagonal")
	assert.Equal(t, 50, h)

	w, h = shapeCanvas(ShapeOval, 100, 100, 0)
	assert.Equal(t, 141, w, "oval canvas scales by √2")
	assert.Equal(t, 141, h)

	w, h = shapeCanvas(ShapeRoundedRect, 100, 80, 12)
	assert.Equal(t, 124, w, "rounded rect pads by the corner radius")
	assert.Equal(t, 104, h)

	w, h = shapeCanvas(ShapeFreeform, 77, 33, 9)
	assert.Equal(t, 77, w)
	assert.Equal(t, 33, h)
}

func TestClipToAlpha(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		dst.SetNRGBA(x, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 200})
	}
	mask := image.NewAlpha(image.Rect(0, 0, 4, 1))
	mask.Pix[0] = 0
	mask.Pix[1] = 255
	mask.Pix[2] = 128
	mask.Pix[3] = 64

	clipToAlpha(dst, mask)

	assert.Equal(t, uint8(0), dst.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(200), dst.NRGBAAt(1, 0).A)
	assert.Equal(t, uint8(200*128/255), dst.NRGBAAt(2, 0).A)
	assert.Equal(t, uint8(200*64/255), dst.NRGBAAt(3, 0).A)
	// Color channels untouched.
	assert.Equal(t, uint8(10), dst.NRGBAAt(0, 0).R)
}

func TestParseShape(t *testing.T) {
	for key, want := range map[string]ShapeKind{
		"freeform": ShapeFreeform,
		"":         ShapeFreeform,
		"circle":   ShapeCircle,
		"round":    ShapeCircle,
		"oval":     ShapeOval,
		"rect":     ShapeRoundedRect,
	} {
		got, err := ParseShape(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}

	_, err := ParseShape("hexagon")
	assert.Error(t, err)
}
