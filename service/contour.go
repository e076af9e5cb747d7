package service

// Point is a 2D point in mask-space coordinates.
type Point struct {
	X, Y float64
}

type stepDir int

const (
	stepNone stepDir = iota
	stepUp
	stepRight
	stepDown
	stepLeft
)

// stepTable maps the 2×2 corner occupancy pattern to the next step.
// Bits: 1 = up-left cell, 2 = up-right, 4 = down-left, 8 = down-right.
// States 6 and 9 are saddles and resolved from the previous step.
var stepTable = [16]stepDir{
	0:  stepNone,
	1:  stepUp,
	2:  stepRight,
	3:  stepRight,
	4:  stepLeft,
	5:  stepUp,
	6:  stepNone, // saddle
	7:  stepRight,
	8:  stepDown,
	9:  stepNone, // saddle
	10: stepDown,
	11: stepDown,
	12: stepLeft,
	13: stepUp,
	14: stepLeft,
	15: stepNone,
}

// TraceContour walks the boundary of the mask and returns the ordered corner
// polyline, closed (first point repeated at the end). An empty or completely
// full mask has no traceable boundary and yields nil, which callers treat as
// "no cutline available", not an error.
func TraceContour(m *BinaryMask) []Point {
	startX, startY, ok := findStart(m)
	if !ok {
		return nil
	}

	at := func(x, y int) bool {
		if x < 0 || y < 0 || x >= m.W || y >= m.H {
			return false
		}
		return m.Pix[y*m.W+x] != 0
	}

	// Ill-formed masks must not loop forever.
	maxSteps := m.W*m.H + (m.W+m.H)*50

	pts := make([]Point, 0, 256)
	pts = append(pts, Point{X: float64(startX), Y: float64(startY)})

	cx, cy := startX, startY
	prev := stepNone
	for step := 0; step < maxSteps; step++ {
		state := 0
		if at(cx-1, cy-1) {
			state |= 1
		}
		if at(cx, cy-1) {
			state |= 2
		}
		if at(cx-1, cy) {
			state |= 4
		}
		if at(cx, cy) {
			state |= 8
		}

		dir := stepTable[state]
		switch state {
		case 6:
			if prev == stepUp {
				dir = stepLeft
			} else {
				dir = stepRight
			}
		case 9:
			if prev == stepRight {
				dir = stepUp
			} else {
				dir = stepDown
			}
		}
		if dir == stepNone {
			return nil
		}

		switch dir {
		case stepUp:
			cy--
		case stepRight:
			cx++
		case stepDown:
			cy++
		case stepLeft:
			cx--
		}
		prev = dir
		pts = append(pts, Point{X: float64(cx), Y: float64(cy)})

		if cx == startX && cy == startY && step >= 2 {
			return pts
		}
	}
	// Step budget exceeded; return what was traced so far rather than spin.
	return pts
}

// findStart scans row-major for the first outside→inside transition: a set
// pixel whose in-canvas left neighbor is unset. A fully empty or fully full
// mask has no such transition. Backing masks are always padded away from the
// canvas edge, so a real silhouette is never missed by requiring the
// neighbor to exist.
func findStart(m *BinaryMask) (int, int, bool) {
	for y := 0; y < m.H; y++ {
		for x := 1; x < m.W; x++ {
			if m.Pix[y*m.W+x] != 0 && m.Pix[y*m.W+x-1] == 0 {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
