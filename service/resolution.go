package service

import (
	"errors"
	"fmt"

	"github.com/druckerbude-source/sticker-customizer/model"
)

const cmPerInch = 2.54

// ErrResolutionTooLow marks an image too coarse to print at the requested
// size. Export aborts on it; retrying cannot help, the input is the problem.
var ErrResolutionTooLow = errors.New("effective resolution below print minimum")

// ResolutionValidator classifies the effective print DPI of an image at a
// requested physical size.
type ResolutionValidator struct {
	hardFloor   float64 // below this the export is refused
	warnCeiling float64 // below this the export proceeds with a warning
}

func NewResolutionValidator(hardFloor, warnCeiling float64) *ResolutionValidator {
	if hardFloor <= 0 {
		hardFloor = 180
	}
	if warnCeiling <= hardFloor {
		warnCeiling = 240
	}
	return &ResolutionValidator{hardFloor: hardFloor, warnCeiling: warnCeiling}
}

// EffectiveDPI is the limiting dots-per-inch across both axes.
func EffectiveDPI(pxW, pxH int, targetWidthCM, targetHeightCM float64) float64 {
	if targetWidthCM <= 0 || targetHeightCM <= 0 {
		return 0
	}
	dpiW := float64(pxW) / (targetWidthCM / cmPerInch)
	dpiH := float64(pxH) / (targetHeightCM / cmPerInch)
	if dpiW < dpiH {
		return dpiW
	}
	return dpiH
}

// Validate computes the effective DPI and bands it. The returned error is
// non-nil only for the hard failure band.
func (v *ResolutionValidator) Validate(pxW, pxH int, targetWidthCM, targetHeightCM float64) (model.ResolutionReport, error) {
	dpi := EffectiveDPI(pxW, pxH, targetWidthCM, targetHeightCM)

	switch {
	case dpi < v.hardFloor:
		report := model.ResolutionReport{
			EffectiveDPI: dpi,
			Status:       "fail",
			Message: fmt.Sprintf("image resolves to %.0f dpi at %.1f×%.1f cm, minimum is %.0f dpi",
				dpi, targetWidthCM, targetHeightCM, v.hardFloor),
		}
		return report, fmt.Errorf("%w: %.0f dpi at %.1f×%.1f cm", ErrResolutionTooLow, dpi, targetWidthCM, targetHeightCM)
	case dpi < v.warnCeiling:
		return model.ResolutionReport{
			EffectiveDPI: dpi,
			Status:       "warn",
			Message:      fmt.Sprintf("image resolves to %.0f dpi, print quality may be reduced (300 dpi recommended)", dpi),
		}, nil
	default:
		return model.ResolutionReport{EffectiveDPI: dpi, Status: "ok"}, nil
	}
}
