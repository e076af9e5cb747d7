package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singlePixelMask(w, h, x, y int) *BinaryMask {
	m := NewBinaryMask(w, h)
	m.Set(x, y, true)
	return m
}

func TestDiscOffsetsRadius5(t *testing.T) {
	offsets := discOffsets(5)
	// Lattice points with dx²+dy² ≤ 25.
	assert.Len(t, offsets, 81)
}

func TestDilateExactSinglePixel(t *testing.T) {
	m := singlePixelMask(100, 100, 50, 50)
	d := Dilate(m, 5, DilateExact)

	assert.Equal(t, 81, d.Count())

	// Symmetric about (50,50) in both axes.
	for dy := 0; dy <= 6; dy++ {
		for dx := 0; dx <= 6; dx++ {
			v := d.At(50+dx, 50+dy)
			require.Equal(t, v, d.At(50-dx, 50+dy), "x mirror at (%d,%d)", dx, dy)
			require.Equal(t, v, d.At(50+dx, 50-dy), "y mirror at (%d,%d)", dx, dy)
		}
	}
}

func TestDilateZeroIsIdentity(t *testing.T) {
	m := singlePixelMask(10, 10, 4, 4)
	assert.True(t, Dilate(m, 0, DilateExact).Equal(m))
	assert.True(t, Dilate(m, 0, DilateApprox).Equal(m))
}

func TestDilateMonotonicInRadius(t *testing.T) {
	m := singlePixelMask(64, 64, 30, 28)
	m.Set(12, 40, true)

	prev := m
	for r := 1; r <= 8; r++ {
		d := Dilate(m, r, DilateExact)
		assert.True(t, d.Contains(prev), "radius %d must contain radius %d", r, r-1)
		prev = d
	}
}

func TestDilateIteratedWithinSingleStep(t *testing.T) {
	// Two exact dilations never escape the single dilation by the summed
	// radius (triangle inequality on the disc offsets).
	m := singlePixelMask(80, 80, 40, 40)
	iterated := Dilate(Dilate(m, 3, DilateExact), 4, DilateExact)
	single := Dilate(m, 7, DilateExact)
	assert.True(t, single.Contains(iterated))

	// With unit radii the two agree exactly.
	assert.True(t, Dilate(Dilate(m, 1, DilateExact), 1, DilateExact).
		Equal(Dilate(m, 2, DilateExact)))
}

func TestDilateApproxBoundsExact(t *testing.T) {
	// The box approximation covers the disc but may only overshoot into
	// the corners: at most (2r+1)² - |disc(r)| extra pixels per set pixel.
	m := singlePixelMask(100, 100, 50, 50)
	exact := Dilate(m, 5, DilateExact)
	approx := Dilate(m, 5, DilateApprox)

	assert.True(t, approx.Contains(exact))
	assert.Equal(t, 11*11, approx.Count())
	assert.LessOrEqual(t, approx.Count()-exact.Count(), 11*11-81)
}

func TestCloseSupersetAndIdentity(t *testing.T) {
	m := NewBinaryMask(50, 50)
	for y := 20; y < 30; y++ {
		for x := 10; x < 40; x++ {
			if x != 24 { // 1px slit
				m.Set(x, y, true)
			}
		}
	}

	assert.True(t, Close(m, 0, DilateExact).Equal(m), "closing by 0 is the identity")

	for _, r := range []int{1, 2, 3} {
		closed := Close(m, r, DilateExact)
		assert.True(t, closed.Contains(m), "closing by %d must contain the input", r)
	}

	// Radius 1 seals the 1px slit.
	closed := Close(m, 1, DilateExact)
	assert.True(t, closed.At(24, 25))
}

func TestErodeInverseOfDilateOnInterior(t *testing.T) {
	m := NewBinaryMask(40, 40)
	for y := 15; y < 25; y++ {
		for x := 15; x < 25; x++ {
			m.Set(x, y, true)
		}
	}
	eroded := Erode(Dilate(m, 2, DilateExact), 2, DilateExact)
	assert.True(t, eroded.Contains(m))
}
