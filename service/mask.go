package service

import (
	"image"
)

// BinaryMask is a width×height grid with one byte (0/1) per pixel.
//
// Two coordinate spaces coexist in the engine: the full-resolution "master"
// space used for final composition, and the downsampled "mask" space all
// morphology and tracing run in. A Scale value converts between them; bare
// multiplication by a scale factor is not used outside that type.
type BinaryMask struct {
	W, H int
	Pix  []byte
}

func NewBinaryMask(w, h int) *BinaryMask {
	return &BinaryMask{W: w, H: h, Pix: make([]byte, w*h)}
}

func (m *BinaryMask) At(x, y int) bool {
	return m.Pix[y*m.W+x] != 0
}

func (m *BinaryMask) Set(x, y int, v bool) {
	if v {
		m.Pix[y*m.W+x] = 1
	} else {
		m.Pix[y*m.W+x] = 0
	}
}

func (m *BinaryMask) Clone() *BinaryMask {
	out := &BinaryMask{W: m.W, H: m.H, Pix: make([]byte, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Invert returns a new mask with every pixel flipped.
func (m *BinaryMask) Invert() *BinaryMask {
	out := NewBinaryMask(m.W, m.H)
	for i, v := range m.Pix {
		if v == 0 {
			out.Pix[i] = 1
		}
	}
	return out
}

// Count returns the number of set pixels.
func (m *BinaryMask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Contains reports whether every set pixel of other is also set in m.
func (m *BinaryMask) Contains(other *BinaryMask) bool {
	if m.W != other.W || m.H != other.H {
		return false
	}
	for i, v := range other.Pix {
		if v != 0 && m.Pix[i] == 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two masks have identical dimensions and pixels.
func (m *BinaryMask) Equal(other *BinaryMask) bool {
	if m.W != other.W || m.H != other.H {
		return false
	}
	for i, v := range m.Pix {
		if v != other.Pix[i] {
			return false
		}
	}
	return true
}

// BoundingBox computes the tight box around set pixels, grown by margin on
// each side and clamped to the canvas. An empty mask yields the full canvas
// so downstream cropping always has a valid region to work with.
func (m *BinaryMask) BoundingBox(margin int) image.Rectangle {
	minX, minY := m.W, m.H
	maxX, maxY := -1, -1
	for y := 0; y < m.H; y++ {
		row := m.Pix[y*m.W : (y+1)*m.W]
		for x, v := range row {
			if v == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rect(0, 0, m.W, m.H)
	}
	r := image.Rect(minX-margin, minY-margin, maxX+1+margin, maxY+1+margin)
	return r.Intersect(image.Rect(0, 0, m.W, m.H))
}

// Scale links mask space, master space and physical millimeters.
// It is the only place the engine converts between coordinate spaces.
type Scale struct {
	maskPerMaster float64 // mask px per master px
	maskPerMM     float64 // mask px per physical millimeter
}

func NewScale(maskPerMaster, maskPerMM float64) Scale {
	return Scale{maskPerMaster: maskPerMaster, maskPerMM: maskPerMM}
}

// MasterToMask converts a master-space length to mask space.
func (s Scale) MasterToMask(px float64) float64 {
	return px * s.maskPerMaster
}

// MaskToMaster converts a mask-space length to master space.
func (s Scale) MaskToMaster(px float64) float64 {
	if s.maskPerMaster == 0 {
		return 0
	}
	return px / s.maskPerMaster
}

// MMToMaskPx converts a physical millimeter distance to whole mask pixels,
// rounding to nearest. Border radii go through here.
func (s Scale) MMToMaskPx(mm float64) int {
	px := mm * s.maskPerMM
	if px <= 0 {
		return 0
	}
	return int(px + 0.5)
}

// MaskPxToMM converts a mask-space length back to millimeters.
func (s Scale) MaskPxToMM(px float64) float64 {
	if s.maskPerMM == 0 {
		return 0
	}
	return px / s.maskPerMM
}
