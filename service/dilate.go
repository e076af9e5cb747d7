package service

// DilationStrategy selects between the two dilation implementations. The
// choice is always made by the caller: exact for anything that reaches the
// cutter or the exported file, approximate for interactive previews only.
type DilationStrategy int

const (
	DilateExact DilationStrategy = iota
	DilateApprox
)

// discOffsets enumerates all integer offsets within radius r
// (disc membership dx²+dy² ≤ r²).
func discOffsets(r int) [][2]int {
	if r <= 0 {
		return nil
	}
	offsets := make([][2]int, 0, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				offsets = append(offsets, [2]int{dx, dy})
			}
		}
	}
	return offsets
}

// Dilate grows the mask by r pixels using the given strategy.
func Dilate(m *BinaryMask, r int, strategy DilationStrategy) *BinaryMask {
	if r <= 0 {
		return m.Clone()
	}
	if strategy == DilateApprox {
		return dilateBox(m, r)
	}
	return dilateExact(m, r)
}

// dilateExact ORs every disc offset into each set pixel's neighborhood.
// Geometrically faithful: round corners stay round.
func dilateExact(m *BinaryMask, r int) *BinaryMask {
	out := NewBinaryMask(m.W, m.H)
	offsets := discOffsets(r)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.Pix[y*m.W+x] == 0 {
				continue
			}
			for _, off := range offsets {
				nx, ny := x+off[0], y+off[1]
				if nx >= 0 && nx < m.W && ny >= 0 && ny < m.H {
					out.Pix[ny*out.W+nx] = 1
				}
			}
		}
	}
	return out
}

// dilateBox is the O(w·h) separable approximation: a pixel is set if any
// source pixel lies within the [x-r,x+r]×[y-r,y+r] box. Corners come out
// square-ish, which is fine for latency-sensitive previews and nothing else.
func dilateBox(m *BinaryMask, r int) *BinaryMask {
	w, h := m.W, m.H

	// Horizontal pass over row prefix sums.
	horiz := make([]byte, w*h)
	prefix := make([]int, w+1)
	for y := 0; y < h; y++ {
		row := m.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(row[x])
		}
		out := horiz[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			lo := x - r
			if lo < 0 {
				lo = 0
			}
			hi := x + r + 1
			if hi > w {
				hi = w
			}
			if prefix[hi]-prefix[lo] > 0 {
				out[x] = 1
			}
		}
	}

	// Vertical pass over column prefix sums of the horizontal result.
	out := NewBinaryMask(w, h)
	colPrefix := make([]int, h+1)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colPrefix[y+1] = colPrefix[y] + int(horiz[y*w+x])
		}
		for y := 0; y < h; y++ {
			lo := y - r
			if lo < 0 {
				lo = 0
			}
			hi := y + r + 1
			if hi > h {
				hi = h
			}
			if colPrefix[hi]-colPrefix[lo] > 0 {
				out.Pix[y*w+x] = 1
			}
		}
	}
	return out
}

// Erode shrinks the mask by r pixels: invert, dilate, invert back.
func Erode(m *BinaryMask, r int, strategy DilationStrategy) *BinaryMask {
	if r <= 0 {
		return m.Clone()
	}
	return Dilate(m.Invert(), r, strategy).Invert()
}

// Close performs morphological closing (dilate then erode by r), sealing
// gaps narrower than about 2r. Close(m, 0) is the identity.
func Close(m *BinaryMask, r int, strategy DilationStrategy) *BinaryMask {
	if r <= 0 {
		return m.Clone()
	}
	return Erode(Dilate(m, r, strategy), r, strategy)
}
