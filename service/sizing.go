package service

// Sizer enforces the numeric sizing policies: minimum edge, aspect locking
// and clamping. All dimensions are physical centimeters.
type Sizer struct {
	minEdgeCM float64
	maxEdgeCM float64
}

func NewSizer(minEdgeCM, maxEdgeCM float64) *Sizer {
	if minEdgeCM <= 0 {
		minEdgeCM = 4
	}
	if maxEdgeCM <= minEdgeCM {
		maxEdgeCM = 30
	}
	return &Sizer{minEdgeCM: minEdgeCM, maxEdgeCM: maxEdgeCM}
}

func (s *Sizer) MinEdgeCM() float64 { return s.minEdgeCM }
func (s *Sizer) MaxEdgeCM() float64 { return s.maxEdgeCM }

// EnforceMinEdge scales (w, h) up uniformly until the shorter edge reaches
// the minimum, preserving aspect ratio. Degenerate inputs fall back to a
// square of the minimum edge.
func (s *Sizer) EnforceMinEdge(w, h float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return s.minEdgeCM, s.minEdgeCM
	}
	shorter := w
	if h < shorter {
		shorter = h
	}
	if shorter >= s.minEdgeCM {
		return w, h
	}
	factor := s.minEdgeCM / shorter
	return w * factor, h * factor
}

// LockedResize recomputes the dependent dimension from a locked aspect ratio
// after the user edits one dimension. The aspect comes from the silhouette's
// own bounding box, not the raw image, so transparent padding never skews it.
// Results are clamped to the configured edge range, aspect preserved.
func (s *Sizer) LockedResize(edited float64, aspect float64, editedIsWidth bool) (float64, float64) {
	if aspect <= 0 {
		aspect = 1
	}
	if edited <= 0 {
		edited = s.minEdgeCM
	}

	var w, h float64
	if editedIsWidth {
		w = edited
		h = edited / aspect
	} else {
		h = edited
		w = edited * aspect
	}

	w, h = s.EnforceMinEdge(w, h)

	longer := w
	if h > longer {
		longer = h
	}
	if longer > s.maxEdgeCM {
		factor := s.maxEdgeCM / longer
		w *= factor
		h *= factor
	}
	return w, h
}

// DeriveFromLongSide builds a freeform billing box from a target long side
// and the locked aspect, then applies the minimum-edge rule.
func (s *Sizer) DeriveFromLongSide(longSideCM, aspect float64) (float64, float64) {
	if aspect <= 0 {
		aspect = 1
	}
	if longSideCM <= 0 {
		longSideCM = s.minEdgeCM
	}
	var w, h float64
	if aspect >= 1 {
		w = longSideCM
		h = longSideCM / aspect
	} else {
		h = longSideCM
		w = longSideCM * aspect
	}
	return s.EnforceMinEdge(w, h)
}
