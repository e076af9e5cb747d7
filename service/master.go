package service

import (
	"context"
	"fmt"
	"image"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/druckerbude-source/sticker-customizer/config"
	"github.com/druckerbude-source/sticker-customizer/utils"
)

// bboxMarginPx is the fixed margin added around the tight bounding box.
const bboxMarginPx = 3

// maxMasterContexts bounds how many distinct uploads keep their full-res
// surfaces in memory at once.
const maxMasterContexts = 16

// BackingVariant is the derived artifact for one border radius: the dilated
// backing mask, its bounding box and the rendered mask-space alpha surface.
type BackingVariant struct {
	Radius   int
	Strategy DilationStrategy
	Mask     *BinaryMask
	Box      image.Rectangle
	Alpha    *image.Alpha
}

type variantKey struct {
	radius   int
	strategy DilationStrategy
}

// MasterContext owns everything derived once per distinct image identity:
// the full-resolution source surface, the mask-space inside mask, the
// padding applied around the mask canvas, and a bounded per-radius cache of
// backing variants. It is invalidated as a whole when the image changes.
type MasterContext struct {
	MD5     string
	Master  *image.NRGBA // full resolution, as uploaded
	MaskImg *image.NRGBA // downsampled + padded working surface
	Inside  *BinaryMask
	Padding int

	maskPerMaster float64
	aspect        float64 // locked, from the inside mask's own bounding box
	variants      *lru.Cache[variantKey, *BackingVariant]
}

// Aspect returns the locked width/height ratio of the silhouette's bounding
// box. Frozen per image; transparent padding in the upload never skews it.
func (mc *MasterContext) Aspect() float64 {
	return mc.aspect
}

// InsideBox is the silhouette bounding box in mask space.
func (mc *MasterContext) InsideBox() image.Rectangle {
	return mc.Inside.BoundingBox(bboxMarginPx)
}

// ScaleFor builds the Scale tying mask space to master space and to physical
// millimeters, given the physical width the silhouette box will print at.
func (mc *MasterContext) ScaleFor(widthCM float64) Scale {
	box := mc.InsideBox()
	maskPerMM := 0.0
	if widthCM > 0 && box.Dx() > 0 {
		maskPerMM = float64(box.Dx()) / (widthCM * 10)
	}
	return NewScale(mc.maskPerMaster, maskPerMM)
}

// MaskToMasterPoint maps a mask-space coordinate to master space,
// compensating for the mask canvas padding.
func (mc *MasterContext) MaskToMasterPoint(s Scale, x, y float64) (float64, float64) {
	return s.MaskToMaster(x - float64(mc.Padding)), s.MaskToMaster(y - float64(mc.Padding))
}

// MasterRegion maps a mask-space rectangle to the corresponding full
// resolution region, clamped to the master surface.
func (mc *MasterContext) MasterRegion(box image.Rectangle) image.Rectangle {
	s := NewScale(mc.maskPerMaster, 0)
	x0, y0 := mc.MaskToMasterPoint(s, float64(box.Min.X), float64(box.Min.Y))
	x1, y1 := mc.MaskToMasterPoint(s, float64(box.Max.X), float64(box.Max.Y))
	r := image.Rect(int(x0), int(y0), int(x1+0.5), int(y1+0.5))
	return r.Intersect(mc.Master.Bounds())
}

// Engine is the raster mask & cutline engine. All pixel work is synchronous;
// the semaphore only bounds how many expensive context builds run at once.
type Engine struct {
	cfg       config.EngineConfig
	builder   *AlphaMaskBuilder
	contexts  *lru.Cache[string, *MasterContext]
	semaphore chan struct{}
	log       *zap.Logger
}

func NewEngine(cfg config.EngineConfig) *Engine {
	contexts, _ := lru.New[string, *MasterContext](maxMasterContexts)
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Engine{
		cfg:       cfg,
		builder:   NewAlphaMaskBuilder(cfg.AlphaThreshold, cfg.SealRadiusPx),
		contexts:  contexts,
		semaphore: make(chan struct{}, maxConcurrent),
		log:       utils.Named("engine"),
	}
}

// BuildMasterContext decodes nothing: it takes an already-decoded image and
// its content hash, and builds (or returns the cached) master context.
// Concurrent callers for the same md5 may both build; the recomputation is
// idempotent and the last put wins, so this is a known inefficiency rather
// than a correctness problem.
func (e *Engine) BuildMasterContext(ctx context.Context, img image.Image, md5 string) (*MasterContext, error) {
	if mc, ok := e.contexts.Get(md5); ok {
		return mc, nil
	}

	queueTimeout := time.Duration(e.cfg.QueueTimeout) * time.Second
	if queueTimeout <= 0 {
		queueTimeout = 30 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, queueTimeout)
	defer cancel()

	select {
	case e.semaphore <- struct{}{}:
		defer func() { <-e.semaphore }()
	case <-waitCtx.Done():
		return nil, fmt.Errorf("processing queue full, try again later")
	}

	start := time.Now()
	mc, err := e.buildContext(img, md5)
	if err != nil {
		return nil, err
	}
	e.contexts.Add(md5, mc)

	e.log.Info("master context built",
		zap.String("md5", md5),
		zap.Int("master_w", mc.Master.Bounds().Dx()),
		zap.Int("master_h", mc.Master.Bounds().Dy()),
		zap.Int("mask_w", mc.Inside.W),
		zap.Int("mask_h", mc.Inside.H),
		zap.Duration("cost", time.Since(start)))
	return mc, nil
}

// Context returns the cached master context for an image identity, if the
// upload is still resident.
func (e *Engine) Context(md5 string) (*MasterContext, bool) {
	return e.contexts.Get(md5)
}

// Invalidate drops a context, forcing a rebuild on next use.
func (e *Engine) Invalidate(md5 string) {
	e.contexts.Remove(md5)
}

func (e *Engine) buildContext(img image.Image, md5 string) (*MasterContext, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	master := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(master, master.Bounds(), img, bounds.Min, xdraw.Src)

	// Downsample so morphology and tracing run on a bounded canvas.
	maxDim := e.cfg.MaxMaskDim
	if maxDim <= 0 {
		maxDim = 600
	}
	factor := 1.0
	longer := w
	if h > longer {
		longer = h
	}
	if longer > maxDim {
		factor = float64(maxDim) / float64(longer)
	}
	maskW := int(float64(w)*factor + 0.5)
	maskH := int(float64(h)*factor + 0.5)
	if maskW < 1 {
		maskW = 1
	}
	if maskH < 1 {
		maskH = 1
	}

	// Pad the working canvas so border dilation never clips at the edge.
	padding := maxDim / 10
	maskImg := image.NewNRGBA(image.Rect(0, 0, maskW+2*padding, maskH+2*padding))
	content := image.Rect(padding, padding, padding+maskW, padding+maskH)
	xdraw.ApproxBiLinear.Scale(maskImg, content, master, master.Bounds(), xdraw.Src, nil)

	inside := e.builder.Build(maskImg)

	box := inside.BoundingBox(bboxMarginPx)
	aspect := 1.0
	if box.Dy() > 0 {
		aspect = float64(box.Dx()) / float64(box.Dy())
	}

	variants, _ := lru.New[variantKey, *BackingVariant](e.variantCacheSize())
	return &MasterContext{
		MD5:           md5,
		Master:        master,
		MaskImg:       maskImg,
		Inside:        inside,
		Padding:       padding,
		maskPerMaster: factor,
		aspect:        aspect,
		variants:      variants,
	}, nil
}

func (e *Engine) variantCacheSize() int {
	if e.cfg.VariantCacheSize > 0 {
		return e.cfg.VariantCacheSize
	}
	return 12
}

// GetOrBuildVariant returns the backing variant for a border radius in mask
// pixels, computing and caching it on miss. The dilation strategy is part of
// the key: an approximate preview variant never masquerades as the exact
// export geometry.
func (e *Engine) GetOrBuildVariant(mc *MasterContext, radius int, strategy DilationStrategy) *BackingVariant {
	if radius < 0 {
		radius = 0
	}
	key := variantKey{radius: radius, strategy: strategy}
	if v, ok := mc.variants.Get(key); ok {
		return v
	}

	start := time.Now()
	backing := Dilate(mc.Inside, radius, strategy)
	variant := &BackingVariant{
		Radius:   radius,
		Strategy: strategy,
		Mask:     backing,
		Box:      backing.BoundingBox(bboxMarginPx),
		Alpha:    maskToAlpha(backing),
	}
	mc.variants.Add(key, variant)

	e.log.Debug("backing variant built",
		zap.String("md5", mc.MD5),
		zap.Int("radius", radius),
		zap.Int("strategy", int(strategy)),
		zap.Duration("cost", time.Since(start)))
	return variant
}

// maskToAlpha renders a binary mask as an 8-bit alpha surface.
func maskToAlpha(m *BinaryMask) *image.Alpha {
	alpha := image.NewAlpha(image.Rect(0, 0, m.W, m.H))
	for i, v := range m.Pix {
		if v != 0 {
			alpha.Pix[i] = 0xff
		}
	}
	return alpha
}
