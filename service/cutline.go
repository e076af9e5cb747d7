package service

// Cutline is the simplified vector outline mapped into output coordinates.
type Cutline struct {
	Path        string
	StrokeWidth float64
	Points      int
}

// ExtractCutline traces the backing mask boundary, simplifies it and maps
// the polyline into an outW×outH output raster using the same centered,
// aspect-preserving fit the composite uses, so path and raster line up.
//
// A mask with no traceable boundary yields ok == false. That is a normal
// outcome, not an error: the cutline is optional, the composite is not.
func (e *Engine) ExtractCutline(variant *BackingVariant, outW, outH int) (Cutline, bool) {
	pts := TraceContour(variant.Mask)
	if len(pts) == 0 {
		return Cutline{}, false
	}

	tolerance := e.cfg.RDPTolerancePx
	if tolerance <= 0 {
		tolerance = 1.2
	}
	simplified := SimplifyRDP(pts, tolerance)

	box := variant.Box
	fitW, fitH := fitRect(box.Dx(), box.Dy(), outW, outH)
	scaleX := float64(fitW) / float64(box.Dx())
	scaleY := float64(fitH) / float64(box.Dy())
	fx := float64(outW-fitW) / 2
	fy := float64(outH-fitH) / 2

	// (p - off) * scale places the path at the same centered crop the
	// composite renders into.
	offX := float64(box.Min.X) - fx/scaleX
	offY := float64(box.Min.Y) - fy/scaleY

	stroke := e.cfg.StrokeWidth
	if stroke <= 0 {
		stroke = 0.5
	}

	return Cutline{
		Path:        PathData(simplified, scaleX, scaleY, offX, offY),
		StrokeWidth: stroke,
		Points:      len(simplified),
	}, true
}
