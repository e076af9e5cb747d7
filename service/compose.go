package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/anthonynsimon/bild/blur"
	xdraw "golang.org/x/image/draw"
)

// BackgroundMode selects how the area behind the artwork is rendered.
type BackgroundMode int

const (
	BackgroundFilled BackgroundMode = iota
	BackgroundTransparent
)

// ShapeKind is the cut shape family.
type ShapeKind int

const (
	ShapeFreeform ShapeKind = iota
	ShapeCircle
	ShapeOval
	ShapeRoundedRect
)

// ParseShape maps a catalog shape key onto a ShapeKind.
func ParseShape(key string) (ShapeKind, error) {
	switch key {
	case "freeform", "contour", "":
		return ShapeFreeform, nil
	case "circle", "round":
		return ShapeCircle, nil
	case "oval":
		return ShapeOval, nil
	case "rect", "rounded", "rounded_rect":
		return ShapeRoundedRect, nil
	}
	return ShapeFreeform, fmt.Errorf("unknown shape %q", key)
}

// ComposeOptions parameterize one composite render.
type ComposeOptions struct {
	OutWidth, OutHeight int // billing box canvas, px
	Background          BackgroundMode
	FillColor           color.NRGBA
	Shape               ShapeKind
	CornerRadiusPx      int  // rounded rect only
	Soften              bool // blur the mask edge, interactive previews only
}

// Composer crops, fills and clips a backing variant into the final raster.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Composite renders the sticker into a PNG sized to the billing box.
//
// Filled mode layers, in order: the backing-mask alpha, a solid fill
// constrained to that alpha, the source artwork, and a final re-clip of the
// whole composite to the backing alpha so nothing bleeds outside the shape.
// Transparent mode skips the fill. The result is centered and scale-fit,
// never stretched, into the billing canvas.
func (c *Composer) Composite(mc *MasterContext, variant *BackingVariant, opts ComposeOptions) ([]byte, error) {
	if opts.OutWidth <= 0 || opts.OutHeight <= 0 {
		return nil, fmt.Errorf("output size %dx%d is not positive", opts.OutWidth, opts.OutHeight)
	}

	box := variant.Box
	contentW, contentH := fitRect(box.Dx(), box.Dy(), opts.OutWidth, opts.OutHeight)

	canvasW, canvasH := shapeCanvas(opts.Shape, contentW, contentH, opts.CornerRadiusPx)
	offX := (canvasW - contentW) / 2
	offY := (canvasH - contentH) / 2
	contentRect := image.Rect(offX, offY, offX+contentW, offY+contentH)

	// Backing mask crop, scaled into the sticker canvas.
	alpha := image.NewAlpha(image.Rect(0, 0, canvasW, canvasH))
	xdraw.ApproxBiLinear.Scale(alpha, contentRect, variant.Alpha.SubImage(box), box, xdraw.Src, nil)
	if opts.Soften {
		alpha = softenAlpha(alpha)
	}

	out := image.NewNRGBA(image.Rect(0, 0, canvasW, canvasH))

	if opts.Background == BackgroundFilled {
		// Solid fill constrained to the backing alpha.
		draw.DrawMask(out, out.Bounds(), image.NewUniform(opts.FillColor), image.Point{}, alpha, image.Point{}, draw.Over)
	}

	// Artwork over the fill, from the matching full-resolution region.
	masterRegion := mc.MasterRegion(box)
	if !masterRegion.Empty() {
		xdraw.CatmullRom.Scale(out, contentRect, mc.Master.SubImage(masterRegion), masterRegion, xdraw.Over, nil)
	}

	// Re-clip the whole composite to the backing alpha.
	clipToAlpha(out, alpha)

	if shapeAlpha := shapeClip(opts.Shape, canvasW, canvasH, opts.CornerRadiusPx); shapeAlpha != nil {
		clipToAlpha(out, shapeAlpha)
	}

	final := image.NewNRGBA(image.Rect(0, 0, opts.OutWidth, opts.OutHeight))
	fitW, fitH := fitRect(canvasW, canvasH, opts.OutWidth, opts.OutHeight)
	fx := (opts.OutWidth - fitW) / 2
	fy := (opts.OutHeight - fitH) / 2
	xdraw.CatmullRom.Scale(final, image.Rect(fx, fy, fx+fitW, fy+fitH), out, out.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, final); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// fitRect scales (w, h) to fit inside (maxW, maxH) preserving aspect ratio.
// Never anisotropic, never zero.
func fitRect(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	outW := int(float64(w)*scale + 0.5)
	outH := int(float64(h)*scale + 0.5)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

// shapeCanvas sizes the sticker canvas for a cut shape. A circle uses the
// content diagonal so the centered circle circumscribes the artwork box; an
// oval scales by √2 before the elliptical clip; a rounded rect pads by the
// corner radius; freeform uses the backing crop directly.
func shapeCanvas(shape ShapeKind, contentW, contentH, cornerRadius int) (int, int) {
	switch shape {
	case ShapeCircle:
		diag := int(math.Ceil(math.Hypot(float64(contentW), float64(contentH))))
		return diag, diag
	case ShapeOval:
		return int(float64(contentW)*math.Sqrt2 + 0.5), int(float64(contentH)*math.Sqrt2 + 0.5)
	case ShapeRoundedRect:
		return contentW + 2*cornerRadius, contentH + 2*cornerRadius
	default:
		return contentW, contentH
	}
}

// shapeClip renders the clip alpha for non-freeform shapes, 2×2
// supersampled so the edge is not a staircase. Freeform returns nil.
func shapeClip(shape ShapeKind, w, h, cornerRadius int) *image.Alpha {
	var inside func(x, y float64) bool
	switch shape {
	case ShapeCircle:
		cx, cy := float64(w)/2, float64(h)/2
		r := math.Min(cx, cy)
		inside = func(x, y float64) bool {
			dx, dy := x-cx, y-cy
			return dx*dx+dy*dy <= r*r
		}
	case ShapeOval:
		cx, cy := float64(w)/2, float64(h)/2
		rx, ry := cx, cy
		inside = func(x, y float64) bool {
			dx, dy := (x-cx)/rx, (y-cy)/ry
			return dx*dx+dy*dy <= 1
		}
	case ShapeRoundedRect:
		r := float64(cornerRadius)
		fw, fh := float64(w), float64(h)
		inside = func(x, y float64) bool {
			if x < 0 || y < 0 || x > fw || y > fh {
				return false
			}
			dx := math.Max(math.Max(r-x, x-(fw-r)), 0)
			dy := math.Max(math.Max(r-y, y-(fh-r)), 0)
			return dx*dx+dy*dy <= r*r
		}
	default:
		return nil
	}

	alpha := image.NewAlpha(image.Rect(0, 0, w, h))
	samples := [4][2]float64{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75}}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hit := 0
			for _, s := range samples {
				if inside(float64(x)+s[0], float64(y)+s[1]) {
					hit++
				}
			}
			alpha.Pix[y*alpha.Stride+x] = uint8(hit * 255 / 4)
		}
	}
	return alpha
}

// clipToAlpha multiplies the destination alpha by the mask alpha
// (destination-in), leaving color channels untouched.
func clipToAlpha(dst *image.NRGBA, mask *image.Alpha) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			ai := mask.PixOffset(x, y)
			di := dst.PixOffset(x, y)
			m := uint32(mask.Pix[ai])
			a := uint32(dst.Pix[di+3])
			dst.Pix[di+3] = uint8(a * m / 255)
		}
	}
}

// softenAlpha blurs the mask edge slightly for interactive previews. Export
// renders keep the hard edge.
func softenAlpha(alpha *image.Alpha) *image.Alpha {
	blurred := blur.Gaussian(alpha, 1.5)
	out := image.NewAlpha(alpha.Bounds())
	b := blurred.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// bild returns RGBA; the red channel carries the blurred value.
			out.Pix[out.PixOffset(x, y)] = blurred.Pix[blurred.PixOffset(x, y)]
		}
	}
	return out
}
