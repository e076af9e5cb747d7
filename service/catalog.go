package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/druckerbude-source/sticker-customizer/config"
)

// SizeKind tags a parsed catalog size label.
type SizeKind int

const (
	SizeUnrecognized SizeKind = iota
	SizeRect
	SizeRound
)

// SizeSpec is the typed result of parsing a free-text size label.
// Rect sizes carry width and height, round sizes carry the diameter in both.
type SizeSpec struct {
	Kind     SizeKind
	WidthCM  float64
	HeightCM float64
	Label    string
}

// Area in cm².
func (s SizeSpec) Area() float64 {
	return s.WidthCM * s.HeightCM
}

// ContainsBox reports whether a w×h box fits inside this size, allowing the
// box to be rotated 90°.
func (s SizeSpec) ContainsBox(w, h float64) (fits, rotated bool) {
	if w <= s.WidthCM && h <= s.HeightCM {
		return true, false
	}
	if h <= s.WidthCM && w <= s.HeightCM {
		return true, true
	}
	return false, false
}

var (
	rectLabelRe  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*[x×*]\s*(\d+(?:[.,]\d+)?)\s*(cm|mm)?`)
	roundLabelRe = regexp.MustCompile(`(?i)[ø⌀o]?\s*(\d+(?:[.,]\d+)?)\s*(cm|mm)?`)
)

// ParseSizeLabel parses tolerant catalog labels like "4×6 cm", "4x6",
// "Ø 4" or "⌀40 mm" into a typed SizeSpec. A label containing a w×h pair
// always parses as a rectangle; the single-number (round) reading applies
// only when no pair is present anywhere in the label.
func ParseSizeLabel(label string) SizeSpec {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return SizeSpec{Kind: SizeUnrecognized, Label: label}
	}

	if m := rectLabelRe.FindStringSubmatch(trimmed); m != nil {
		w := parseDimension(m[1], m[3])
		h := parseDimension(m[2], m[3])
		if w > 0 && h > 0 {
			return SizeSpec{Kind: SizeRect, WidthCM: w, HeightCM: h, Label: label}
		}
		return SizeSpec{Kind: SizeUnrecognized, Label: label}
	}

	if m := roundLabelRe.FindStringSubmatch(trimmed); m != nil {
		d := parseDimension(m[1], m[2])
		if d > 0 {
			return SizeSpec{Kind: SizeRound, WidthCM: d, HeightCM: d, Label: label}
		}
	}
	return SizeSpec{Kind: SizeUnrecognized, Label: label}
}

func parseDimension(num, unit string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
	if err != nil || v <= 0 {
		return 0
	}
	if strings.EqualFold(unit, "mm") {
		v /= 10
	}
	return v
}

// ShapeEntry is one validated shape family of the catalog.
type ShapeEntry struct {
	Sizes  []SizeSpec
	Colors []string
}

// Catalog holds the validated size catalog, keyed by shape.
type Catalog struct {
	shapes map[string]ShapeEntry
}

// LoadCatalog validates the raw config catalog. Malformed entries are
// rejected with an error rather than silently defaulted.
func LoadCatalog(raw map[string]config.CatalogShape) (*Catalog, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	shapes := make(map[string]ShapeEntry, len(raw))
	for shape, entry := range raw {
		if len(entry.Sizes) == 0 {
			return nil, fmt.Errorf("catalog shape %q has no sizes", shape)
		}
		specs := make([]SizeSpec, 0, len(entry.Sizes))
		for _, label := range entry.Sizes {
			spec := ParseSizeLabel(label)
			if spec.Kind == SizeUnrecognized {
				return nil, fmt.Errorf("catalog shape %q: unrecognized size label %q", shape, label)
			}
			specs = append(specs, spec)
		}
		sort.Slice(specs, func(i, j int) bool {
			return specs[i].Area() < specs[j].Area()
		})
		shapes[shape] = ShapeEntry{Sizes: specs, Colors: entry.Colors}
	}
	return &Catalog{shapes: shapes}, nil
}

// Shape returns a shape family by key.
func (c *Catalog) Shape(key string) (ShapeEntry, bool) {
	entry, ok := c.shapes[key]
	return entry, ok
}

// Shapes lists the shape keys in sorted order.
func (c *Catalog) Shapes() []string {
	keys := make([]string, 0, len(c.shapes))
	for k := range c.shapes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snap rounds a freeform billing box up to the smallest catalog size of the
// given shape whose box contains it, rotation permitted. When nothing fits,
// the largest size is returned as a degraded fallback.
func (c *Catalog) Snap(shape string, w, h float64) (spec SizeSpec, rotated, degraded bool, err error) {
	entry, ok := c.shapes[shape]
	if !ok {
		return SizeSpec{}, false, false, fmt.Errorf("unknown catalog shape %q", shape)
	}
	// Sizes are sorted by area ascending, so the first hit is the smallest.
	for _, s := range entry.Sizes {
		if fits, rot := s.ContainsBox(w, h); fits {
			return s, rot, false, nil
		}
	}
	return entry.Sizes[len(entry.Sizes)-1], false, true, nil
}
