package handler

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/druckerbude-source/sticker-customizer/config"
	"github.com/druckerbude-source/sticker-customizer/model"
	"github.com/druckerbude-source/sticker-customizer/service"
	"github.com/druckerbude-source/sticker-customizer/utils"
)

const (
	defaultLongSideCM = 10.0
	defaultBorderMM   = 3.0
	previewOutPx      = 800
	exportDPI         = 300
)

type StickerHandler struct {
	cfg          *config.Config
	redisService *service.RedisService
	engine       *service.Engine
	composer     *service.Composer
	catalog      *service.Catalog
	sizer        *service.Sizer
	validator    *service.ResolutionValidator
	previews     *service.PreviewCache
}

func NewStickerHandler(cfg *config.Config, redisService *service.RedisService,
	engine *service.Engine, catalog *service.Catalog) *StickerHandler {
	return &StickerHandler{
		cfg:          cfg,
		redisService: redisService,
		engine:       engine,
		composer:     service.NewComposer(),
		catalog:      catalog,
		sizer:        service.NewSizer(cfg.Sizing.MinEdgeCM, cfg.Sizing.MaxEdgeCM),
		validator:    service.NewResolutionValidator(cfg.Engine.DPIHardFloor, cfg.Engine.DPIWarnCeiling),
		previews:     service.NewPreviewCache(cfg.Engine.PreviewCacheSize, cfg.Engine.PreviewCacheTTL),
	}
}

// Upload receives the artwork, builds the master context and reports the
// silhouette geometry and default-size resolution check.
func (h *StickerHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "please upload an image file",
			Error:   err.Error(),
		})
		return
	}

	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("file exceeds the size limit (%d MB)", h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "unsupported file type, only JPEG/PNG are accepted",
		})
		return
	}

	ext := filepath.Ext(file.Filename)
	filename := fmt.Sprintf("%d%s", utils.GenerateID(), ext)
	savePath := filepath.Join(h.cfg.Upload.UploadDir, filename)

	if err := c.SaveUploadedFile(file, savePath); err != nil {
		utils.Logger.Error("failed to save file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "failed to store upload",
			Error:   err.Error(),
		})
		return
	}

	if h.cfg.Engine.CleanupTempFiles {
		defer func() {
			if err := os.Remove(savePath); err != nil {
				utils.Logger.Warn("failed to delete temp file",
					zap.String("file", savePath),
					zap.Error(err))
			}
		}()
	}

	md5, err := utils.FileMD5(savePath)
	if err != nil {
		utils.Logger.Error("failed to calculate md5", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "failed to hash upload",
			Error:   err.Error(),
		})
		return
	}

	utils.Logger.Info("file uploaded",
		zap.String("filename", filename),
		zap.String("md5", md5),
		zap.Int64("size", file.Size))

	f, err := os.Open(savePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "failed to read upload",
			Error:   err.Error(),
		})
		return
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "could not decode image",
			Error:   err.Error(),
		})
		return
	}

	mc, err := h.engine.BuildMasterContext(c.Request.Context(), img, md5)
	if err != nil {
		utils.Logger.Error("failed to process image", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Message: "image processing failed",
			Error:   err.Error(),
		})
		return
	}

	result := h.describeSticker(mc)

	ctx := c.Request.Context()
	if err := h.redisService.SetStickerResult(ctx, md5, result); err != nil {
		utils.Logger.Warn("failed to set cache", zap.Error(err))
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "processed",
		Data:    result,
	})
}

// describeSticker summarizes a master context at the default physical size.
func (h *StickerHandler) describeSticker(mc *service.MasterContext) *model.StickerResult {
	box := mc.InsideBox()
	wcm, hcm := h.sizer.DeriveFromLongSide(defaultLongSideCM, mc.Aspect())

	bounds := mc.Master.Bounds()
	report, _ := h.validator.Validate(bounds.Dx(), bounds.Dy(), wcm, hcm)

	return &model.StickerResult{
		MD5:    mc.MD5,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		MaskBox: model.BBox{
			X:      box.Min.X,
			Y:      box.Min.Y,
			Width:  box.Dx(),
			Height: box.Dy(),
		},
		Aspect:     mc.Aspect(),
		Resolution: report,
		Timestamp:  time.Now().Unix(),
	}
}

// GetSticker returns the processing result for a previously uploaded image.
func (h *StickerHandler) GetSticker(c *gin.Context) {
	md5 := c.Param("md5")
	if md5 == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "md5 parameter missing",
		})
		return
	}

	if mc, ok := h.engine.Context(md5); ok {
		c.JSON(http.StatusOK, model.UploadResponse{
			Success: true,
			Message: "ok",
			Data:    h.describeSticker(mc),
		})
		return
	}

	result, err := h.redisService.GetStickerResult(c.Request.Context(), md5)
	if err != nil {
		utils.Logger.Error("failed to get sticker result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "lookup failed",
			Error:   err.Error(),
		})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "no sticker found for this image",
		})
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "ok",
		Data:    result,
	})
}

// renderParams are the sanitized per-request render settings.
type renderParams struct {
	shape    service.ShapeKind
	shapeKey string
	borderMM float64
	widthCM  float64
	heightCM float64
	bg       service.BackgroundMode
	fill     color.NRGBA
}

func (h *StickerHandler) parseRenderParams(c *gin.Context, mc *service.MasterContext) (renderParams, error) {
	p := renderParams{
		shapeKey: c.DefaultQuery("shape", "freeform"),
		borderMM: parseFloatDefault(c.Query("border_mm"), defaultBorderMM),
		bg:       service.BackgroundFilled,
		fill:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}

	shape, err := service.ParseShape(p.shapeKey)
	if err != nil {
		return p, err
	}
	p.shape = shape

	if p.borderMM < 0 {
		p.borderMM = 0
	}

	bg := c.DefaultQuery("bg", "ffffff")
	if strings.EqualFold(bg, "transparent") {
		p.bg = service.BackgroundTransparent
	} else {
		fill, err := parseHexColor(bg)
		if err != nil {
			return p, err
		}
		p.fill = fill
	}

	// Physical size: explicit w/h in cm, or derived from a long side and
	// the locked silhouette aspect.
	w := parseFloatDefault(c.Query("w"), 0)
	hh := parseFloatDefault(c.Query("h"), 0)
	switch {
	case w > 0 && hh > 0:
		p.widthCM, p.heightCM = h.sizer.EnforceMinEdge(w, hh)
	case w > 0:
		p.widthCM, p.heightCM = h.sizer.LockedResize(w, mc.Aspect(), true)
	case hh > 0:
		p.widthCM, p.heightCM = h.sizer.LockedResize(hh, mc.Aspect(), false)
	default:
		long := parseFloatDefault(c.Query("size"), defaultLongSideCM)
		p.widthCM, p.heightCM = h.sizer.DeriveFromLongSide(long, mc.Aspect())
	}
	return p, nil
}

// Preview renders an interactive preview PNG. Uses the approximate dilation
// and a softened edge; never the path the exported file takes.
func (h *StickerHandler) Preview(c *gin.Context) {
	mc, ok := h.requireContext(c)
	if !ok {
		return
	}

	p, err := h.parseRenderParams(c, mc)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "invalid parameters", Error: err.Error(),
		})
		return
	}

	outW, outH := billingCanvas(p.widthCM, p.heightCM, previewOutPx)
	key := utils.VariantKey(mc.MD5, "preview", p.shapeKey, p.borderMM, p.widthCM, p.heightCM, p.bg, p.fill, outW, outH)

	if data, ok := h.previews.Get(key); ok {
		servePNG(c, data)
		return
	}
	if data, err := h.redisService.GetPreview(c.Request.Context(), key); err == nil && data != nil {
		h.previews.Put(key, data)
		servePNG(c, data)
		return
	}

	scale := mc.ScaleFor(p.widthCM)
	radius := scale.MMToMaskPx(p.borderMM)
	variant := h.engine.GetOrBuildVariant(mc, radius, service.DilateApprox)

	data, err := h.composer.Composite(mc, variant, service.ComposeOptions{
		OutWidth:       outW,
		OutHeight:      outH,
		Background:     p.bg,
		FillColor:      p.fill,
		Shape:          p.shape,
		CornerRadiusPx: cornerRadiusPx(outW, outH),
		Soften:         true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false, Message: "preview render failed", Error: err.Error(),
		})
		return
	}

	h.previews.Put(key, data)
	if err := h.redisService.SetPreview(c.Request.Context(), key, data); err != nil {
		utils.Logger.Warn("failed to cache preview", zap.Error(err))
	}
	servePNG(c, data)
}

// Cutline returns the simplified vector outline for the current settings.
// Absence of a traceable contour is a normal outcome, not an error.
func (h *StickerHandler) Cutline(c *gin.Context) {
	mc, ok := h.requireContext(c)
	if !ok {
		return
	}

	p, err := h.parseRenderParams(c, mc)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "invalid parameters", Error: err.Error(),
		})
		return
	}

	outW, outH := billingCanvas(p.widthCM, p.heightCM, previewOutPx)
	scale := mc.ScaleFor(p.widthCM)
	radius := scale.MMToMaskPx(p.borderMM)
	variant := h.engine.GetOrBuildVariant(mc, radius, service.DilateExact)

	cutline, ok := h.engine.ExtractCutline(variant, outW, outH)
	if !ok {
		c.JSON(http.StatusOK, model.CutlineResponse{
			Success: true,
			Message: "no cutline available",
		})
		return
	}

	c.JSON(http.StatusOK, model.CutlineResponse{
		Success: true,
		Message: "ok",
		Data: &model.CutlineResult{
			Path:        cutline.Path,
			StrokeWidth: cutline.StrokeWidth,
			Points:      cutline.Points,
			WidthCM:     p.widthCM,
			HeightCM:    p.heightCM,
		},
	})
}

// Export renders the print-ready PNG with exact geometry, gated on the
// minimum print resolution.
func (h *StickerHandler) Export(c *gin.Context) {
	mc, ok := h.requireContext(c)
	if !ok {
		return
	}

	p, err := h.parseRenderParams(c, mc)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false, Message: "invalid parameters", Error: err.Error(),
		})
		return
	}

	bounds := mc.Master.Bounds()
	report, err := h.validator.Validate(bounds.Dx(), bounds.Dy(), p.widthCM, p.heightCM)
	if err != nil {
		// A user-input problem, not transient: no retry, no output.
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, service.ErrResolutionTooLow) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, model.ErrorResponse{
			Success: false,
			Message: report.Message,
			Error:   err.Error(),
		})
		return
	}
	if report.Status == "warn" {
		c.Header("X-Resolution-Warning", report.Message)
	}

	outW := int(p.widthCM/2.54*exportDPI + 0.5)
	outH := int(p.heightCM/2.54*exportDPI + 0.5)

	scale := mc.ScaleFor(p.widthCM)
	radius := scale.MMToMaskPx(p.borderMM)
	variant := h.engine.GetOrBuildVariant(mc, radius, service.DilateExact)

	data, err := h.composer.Composite(mc, variant, service.ComposeOptions{
		OutWidth:       outW,
		OutHeight:      outH,
		Background:     p.bg,
		FillColor:      p.fill,
		Shape:          p.shape,
		CornerRadiusPx: cornerRadiusPx(outW, outH),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false, Message: "export render failed", Error: err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=sticker-%s.png", mc.MD5[:8]))
	servePNG(c, data)
}

// Sizes lists the catalog and, given w/h query params, shows how a freeform
// billing box snaps onto it.
func (h *StickerHandler) Sizes(c *gin.Context) {
	shapes := make(map[string][]model.SizeOption)
	for _, key := range h.catalog.Shapes() {
		entry, _ := h.catalog.Shape(key)
		options := make([]model.SizeOption, 0, len(entry.Sizes))
		for _, spec := range entry.Sizes {
			options = append(options, model.SizeOption{
				Label:    spec.Label,
				WidthCM:  spec.WidthCM,
				HeightCM: spec.HeightCM,
				Round:    spec.Kind == service.SizeRound,
			})
		}
		shapes[key] = options
	}

	resp := gin.H{"success": true, "shapes": shapes}

	w := parseFloatDefault(c.Query("w"), 0)
	hh := parseFloatDefault(c.Query("h"), 0)
	if w > 0 || hh > 0 {
		w, hh = h.sizer.EnforceMinEdge(w, hh)
		shape := c.DefaultQuery("shape", "rect")
		spec, rotated, degraded, err := h.catalog.Snap(shape, w, hh)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Success: false, Message: "invalid shape", Error: err.Error(),
			})
			return
		}
		resp["snap"] = model.SnapResult{
			Requested: model.SizeOption{WidthCM: w, HeightCM: hh},
			Snapped: model.SizeOption{
				Label:    spec.Label,
				WidthCM:  spec.WidthCM,
				HeightCM: spec.HeightCM,
				Round:    spec.Kind == service.SizeRound,
			},
			Rotated:  rotated,
			Degraded: degraded,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// requireContext resolves the md5 route param to a resident master context.
func (h *StickerHandler) requireContext(c *gin.Context) (*service.MasterContext, bool) {
	md5 := c.Param("md5")
	if md5 == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "md5 parameter missing",
		})
		return nil, false
	}
	mc, ok := h.engine.Context(md5)
	if !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Message: "image not resident, please upload again",
		})
		return nil, false
	}
	return mc, true
}

func (h *StickerHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

func servePNG(c *gin.Context, data []byte) {
	c.Data(http.StatusOK, "image/png", data)
}

// billingCanvas maps a physical billing box onto a raster whose long side is
// longPx, preserving the box aspect.
func billingCanvas(wcm, hcm float64, longPx int) (int, int) {
	if wcm <= 0 || hcm <= 0 {
		return longPx, longPx
	}
	if wcm >= hcm {
		return longPx, int(float64(longPx)*hcm/wcm + 0.5)
	}
	return int(float64(longPx)*wcm/hcm + 0.5), longPx
}

// cornerRadiusPx is the fixed rounded-rect corner radius, proportional to
// the output canvas.
func cornerRadiusPx(outW, outH int) int {
	shorter := outW
	if outH < shorter {
		shorter = outH
	}
	r := shorter / 12
	if r < 4 {
		r = 4
	}
	return r
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return def
	}
	return v
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q must be 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q is not valid hex", s)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
