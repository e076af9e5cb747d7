package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnforceMinEdgeScalesUp(t *testing.T) {
	s := NewSizer(4, 30)

	// 5×3 with a 4cm minimum: factor 4/3.
	w, h := s.EnforceMinEdge(5, 3)
	assert.InDelta(t, 6.6667, w, 0.001)
	assert.InDelta(t, 4.0, h, 0.001)
}

func TestEnforceMinEdgeDegenerate(t *testing.T) {
	s := NewSizer(4, 30)

	for _, in := range [][2]float64{{0, 0}, {-1, 5}, {5, -1}, {0, 7}} {
		w, h := s.EnforceMinEdge(in[0], in[1])
		assert.Equal(t, 4.0, w, "input %v", in)
		assert.Equal(t, 4.0, h, "input %v", in)
	}
}

func TestEnforceMinEdgeProperties(t *testing.T) {
	s := NewSizer(4, 30)

	cases := [][2]float64{{1, 1}, {2, 8}, {8, 2}, {3.9, 3.9}, {4, 4}, {10, 10}, {0.1, 25}}
	for _, in := range cases {
		w, h := s.EnforceMinEdge(in[0], in[1])
		shorter := w
		if h < shorter {
			shorter = h
		}
		assert.GreaterOrEqual(t, shorter, 4.0, "input %v", in)
		if in[0] > 0 && in[1] > 0 {
			assert.InDelta(t, in[0]/in[1], w/h, 1e-9, "aspect must survive for %v", in)
		}
	}
}

func TestEnforceMinEdgeLeavesValidInputs(t *testing.T) {
	s := NewSizer(4, 30)
	w, h := s.EnforceMinEdge(7, 5)
	assert.Equal(t, 7.0, w)
	assert.Equal(t, 5.0, h)
}

func TestLockedResizeRecomputesOtherEdge(t *testing.T) {
	s := NewSizer(4, 30)

	// Aspect 2 (twice as wide as tall), editing the width.
	w, h := s.LockedResize(12, 2, true)
	assert.InDelta(t, 12.0, w, 0.001)
	assert.InDelta(t, 6.0, h, 0.001)

	// Editing the height instead.
	w, h = s.LockedResize(6, 2, false)
	assert.InDelta(t, 12.0, w, 0.001)
	assert.InDelta(t, 6.0, h, 0.001)
}

func TestLockedResizeClampsToRange(t *testing.T) {
	s := NewSizer(4, 30)

	// Too small: min edge kicks in.
	w, h := s.LockedResize(2, 2, true)
	assert.InDelta(t, 8.0, w, 0.001)
	assert.InDelta(t, 4.0, h, 0.001)

	// Too large: clamped to the max edge, aspect kept.
	w, h = s.LockedResize(100, 2, true)
	assert.InDelta(t, 30.0, w, 0.001)
	assert.InDelta(t, 15.0, h, 0.001)
}

func TestDeriveFromLongSide(t *testing.T) {
	s := NewSizer(4, 30)

	// Wide silhouette: long side is the width.
	w, h := s.DeriveFromLongSide(10, 2)
	assert.InDelta(t, 10.0, w, 0.001)
	assert.InDelta(t, 5.0, h, 0.001)

	// Tall silhouette: long side is the height.
	w, h = s.DeriveFromLongSide(10, 0.5)
	assert.InDelta(t, 5.0, w, 0.001)
	assert.InDelta(t, 10.0, h, 0.001)

	// Extreme aspect still respects the minimum edge.
	w, h = s.DeriveFromLongSide(10, 5)
	assert.GreaterOrEqual(t, h, 4.0)
	assert.InDelta(t, 5.0, w/h, 1e-9)
}
