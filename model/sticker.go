package model

// StickerResult describes a processed upload.
type StickerResult struct {
	MD5        string           `json:"md5"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	MaskBox    BBox             `json:"mask_box"`
	Aspect     float64          `json:"aspect"`
	Resolution ResolutionReport `json:"resolution"`
	Timestamp  int64            `json:"timestamp"`
}

// BBox is a pixel-space bounding box.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResolutionReport classifies the effective print resolution.
type ResolutionReport struct {
	EffectiveDPI float64 `json:"effective_dpi"`
	Status       string  `json:"status"` // ok, warn, fail
	Message      string  `json:"message,omitempty"`
}

// CutlineResult carries the simplified vector outline for cutting hardware.
type CutlineResult struct {
	Path        string  `json:"path"` // SVG path data, absolute M/L/Z commands
	StrokeWidth float64 `json:"stroke_width"`
	Points      int     `json:"points"`
	WidthCM     float64 `json:"width_cm"`
	HeightCM    float64 `json:"height_cm"`
}

// SizeOption is one catalog size offered for a shape.
type SizeOption struct {
	Label    string  `json:"label"`
	WidthCM  float64 `json:"width_cm"`
	HeightCM float64 `json:"height_cm"`
	Round    bool    `json:"round"`
}

// SnapResult reports how a freeform billing box mapped onto the catalog.
type SnapResult struct {
	Requested SizeOption `json:"requested"`
	Snapped   SizeOption `json:"snapped"`
	Rotated   bool       `json:"rotated"`
	Degraded  bool       `json:"degraded"` // true when nothing contained the box
}

// UploadResponse wraps a successful upload.
type UploadResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *StickerResult `json:"data,omitempty"`
}

// CutlineResponse wraps a cutline query.
type CutlineResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *CutlineResult `json:"data,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
