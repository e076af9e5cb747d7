package service

import (
	"image"
)

// AlphaMaskBuilder turns a decoded image's alpha channel into the binary
// "inside" silhouette of the artwork.
type AlphaMaskBuilder struct {
	threshold  int // alpha values above this count as opaque
	sealRadius int // closing radius that seals thin slits before flood fill
}

func NewAlphaMaskBuilder(threshold, sealRadius int) *AlphaMaskBuilder {
	return &AlphaMaskBuilder{threshold: threshold, sealRadius: sealRadius}
}

// Build computes the inside mask for a mask-space image.
//
// Raw alpha thresholding alone would misclassify enclosed transparent
// regions (a donut hole, the inside of a printed "O") as background. The
// builder instead flood-fills from the canvas border: only transparent
// pixels reachable from the edge are outside, everything else is inside.
func (b *AlphaMaskBuilder) Build(img *image.NRGBA) *BinaryMask {
	opaque := b.opaqueMask(img)
	if b.sealRadius > 0 {
		opaque = Close(opaque, b.sealRadius, DilateExact)
	}
	outside := floodOutside(opaque)
	return outside.Invert()
}

func (b *AlphaMaskBuilder) opaqueMask(img *image.NRGBA) *BinaryMask {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := NewBinaryMask(w, h)
	for y := 0; y < h; y++ {
		rowOff := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < w; x++ {
			alpha := img.Pix[rowOff+x*4+3]
			if int(alpha) > b.threshold {
				m.Pix[y*w+x] = 1
			}
		}
	}
	return m
}

// floodOutside marks every non-opaque pixel reachable from the canvas border
// with a 4-connected BFS. The queue keeps it iterative; large transparent
// backgrounds would blow the stack recursively.
func floodOutside(opaque *BinaryMask) *BinaryMask {
	w, h := opaque.W, opaque.H
	outside := NewBinaryMask(w, h)
	queue := make([]int, 0, 2*(w+h))

	push := func(x, y int) {
		idx := y*w + x
		if opaque.Pix[idx] == 0 && outside.Pix[idx] == 0 {
			outside.Pix[idx] = 1
			queue = append(queue, idx)
		}
	}

	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		x, y := idx%w, idx/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	return outside
}
