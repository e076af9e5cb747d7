package service

import (
	"math"
	"strconv"
	"strings"
)

// SimplifyRDP reduces a polyline with Ramer–Douglas–Peucker: keep the point
// farthest from the chord between the endpoints if it exceeds tolerance and
// recurse on both halves, otherwise collapse the run to its endpoints. The
// first and last input points always survive.
func SimplifyRDP(pts []Point, tolerance float64) []Point {
	if len(pts) <= 2 {
		return pts
	}

	maxDist := 0.0
	maxIdx := 0
	a, b := pts[0], pts[len(pts)-1]
	for i := 1; i < len(pts)-1; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return []Point{a, b}
	}

	left := SimplifyRDP(pts[:maxIdx+1], tolerance)
	right := SimplifyRDP(pts[maxIdx:], tolerance)

	// Merge without the duplicated split point, into a fresh slice: the
	// halves may alias the input and must not be appended into.
	out := make([]Point, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	out = append(out, right...)
	return out
}

// perpendicularDistance is the distance from p to the line through a and b.
// A degenerate chord (a == b) falls back to point distance.
func perpendicularDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dx*(a.Y-p.Y)-(a.X-p.X)*dy) / length
}

// PathData serializes a polyline as SVG path data with absolute M/L commands
// and a closing Z, coordinates rounded to 2 decimal places. The scale factors
// map mask space to the output raster; the offset shifts the crop origin.
func PathData(pts []Point, scaleX, scaleY, offX, offY float64) string {
	if len(pts) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range pts {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(formatCoord((p.X - offX) * scaleX))
		sb.WriteByte(' ')
		sb.WriteString(formatCoord((p.Y - offY) * scaleY))
	}
	sb.WriteString(" Z")
	return sb.String()
}

func formatCoord(v float64) string {
	// Round half away from zero to 2 decimals before formatting so -0.004
	// prints as "0" rather than "-0".
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
