/**
 * Table region detection from page geometry.
 *
 * Tables are found by isolating their ruling lines: a wide-flat opening
 * keeps horizontal strokes, a tall-thin opening keeps vertical strokes,
 * and connected regions of the combined mask are table candidates.
 *
 * Region order follows the component scan and is NOT reading order;
 * callers must not assume top-to-bottom.
 */

package table

import (
	"image"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/imaging"
)

// Line-extraction geometry. Kernel lengths are in pixels at render DPI.
const (
	lineKernel = 40 // flat/thin kernel length for ruling-line extraction

	minRegionWidth  = 50
	minRegionHeight = 30
	regionPadding   = 10

	// hasTableRatio is the minimum line-pixel share of the page for the
	// cheap pre-filter to report tabular structure.
	hasTableRatio = 0.005
)

// Region is a table candidate inside a page image.
type Region struct {
	Rect        image.Rectangle
	Confidence  float64 // line-pixel density inside the box, 0..1
	RowEstimate int
	ColEstimate int
}

// Detector finds rectangular table candidates in a grayscale page.
type Detector struct{}

// NewDetector creates a table region detector.
func NewDetector() *Detector { return &Detector{} }

// lineMasks binarizes the page with ink as foreground and extracts the
// horizontal and vertical ruling-line masks.
func (d *Detector) lineMasks(gray *image.Gray) (horizontal, vertical *image.Gray) {
	binary := imaging.BinarizeOtsu(gray, true)
	horizontal = imaging.Open(binary, lineKernel, 1)
	vertical = imaging.Open(binary, 1, lineKernel)
	return horizontal, vertical
}

// HasTable is the cheap pre-filter: it reports whether the share of
// ruling-line pixels on the page exceeds the detection ratio, without
// extracting regions.
func (d *Detector) HasTable(gray *image.Gray) bool {
	b := gray.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return false
	}
	horizontal, vertical := d.lineMasks(gray)
	mask := imaging.Union(horizontal, vertical)
	ratio := float64(imaging.CountNonZero(mask)) / float64(total)
	return ratio > hasTableRatio
}

// DetectRegions returns the table candidates of a page, possibly empty.
// Small boxes (under 50x30 px) are discarded; survivors are padded by
// 10 px per side, clamped to the page, so border lines are not clipped.
func (d *Detector) DetectRegions(gray *image.Gray) []Region {
	horizontal, vertical := d.lineMasks(gray)
	mask := imaging.Union(horizontal, vertical)

	// Bridge small gaps between line fragments before grouping.
	mask = imaging.DilateN(mask, 3, 3, 3)

	var regions []Region
	for _, comp := range imaging.Components(mask) {
		if comp.Rect.Dx() < minRegionWidth || comp.Rect.Dy() < minRegionHeight {
			continue
		}
		rect := imaging.Pad(comp.Rect, regionPadding, gray.Bounds())
		regions = append(regions, Region{
			Rect:        rect,
			Confidence:  lineDensity(mask, rect),
			RowEstimate: countBands(imaging.Crop(horizontal, rect)),
			ColEstimate: countBands(imaging.Crop(vertical, rect)),
		})
	}
	return regions
}

// lineDensity is the fraction of line-mask pixels inside rect.
func lineDensity(mask *image.Gray, rect image.Rectangle) float64 {
	area := rect.Dx() * rect.Dy()
	if area == 0 {
		return 0
	}
	return float64(imaging.CountNonZero(imaging.Crop(mask, rect))) / float64(area)
}

// countBands estimates the number of cell rows or columns separated by the
// ruling lines inside a region crop: n parallel lines bound n-1 bands.
func countBands(lines *image.Gray) int {
	n := len(imaging.Components(lines))
	if n < 2 {
		return 0
	}
	return n - 1
}
