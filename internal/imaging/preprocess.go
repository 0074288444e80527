package imaging

import (
	"image"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
)

// OrientationFunc estimates the rotation of a rendered page in degrees
// (a multiple of 90 for upside-down or sideways scans, or a small skew
// angle). Implementations return an error when orientation cannot be
// determined; the preprocessor treats that as "leave the image alone".
type OrientationFunc func(img image.Image) (int, error)

// Preprocessor normalizes a rendered page before any analysis: orientation
// correction, local contrast enhancement, adaptive binarization and a light
// denoising opening. Output is always single-channel at the input's logical
// resolution.
type Preprocessor struct {
	detectOrientation OrientationFunc
	log               *logging.Logger

	// Binarization settings, fixed to the values the pipeline was tuned on.
	clipLimit float64
	tileGrid  int
	block     int
	bias      int
}

// NewPreprocessor creates a preprocessor. detect may be nil, in which case
// the orientation pass is skipped entirely.
func NewPreprocessor(detect OrientationFunc, log *logging.Logger) *Preprocessor {
	return &Preprocessor{
		detectOrientation: detect,
		log:               log,
		clipLimit:         3.0,
		tileGrid:          8,
		block:             31,
		bias:              15,
	}
}

// Preprocess runs the normalization chain. Orientation failures are
// non-fatal: the unrotated image continues down the chain with a warning.
func (p *Preprocessor) Preprocess(img image.Image) *image.Gray {
	gray := ToGray(img)

	if p.detectOrientation != nil {
		angle, err := p.detectOrientation(gray)
		switch {
		case err != nil:
			p.log.Warn("orientation detection failed, keeping original image", "error", err)
		case angle != 0:
			p.log.Info("correcting page rotation", "degrees", angle)
			gray = Rotate(gray, angle)
		}
	}

	equalized := EqualizeCLAHE(gray, p.clipLimit, p.tileGrid)
	binary := AdaptiveThreshold(equalized, p.block, p.bias)

	// Minimal opening knocks out single-pixel speckle without thinning
	// glyph strokes.
	return Open(binary, 1, 1)
}
