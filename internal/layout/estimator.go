package layout

import "image"

// Block is a positioned text block reported by the document source, in
// page pixel coordinates.
type Block struct {
	X0, Y0, X1, Y1 float64
	Text           string
}

// PageAnalysis carries the derived, read-only facts about a rendered page
// that the estimator decides on. Computed once per page; never mutated.
type PageAnalysis struct {
	// TextLen is the length of the directly-extractable text layer.
	TextLen int
	// Blocks are the source's positioned text blocks, possibly empty.
	Blocks []Block
	// AspectRatio is page width divided by height.
	AspectRatio float64
	// ContourCount is the number of connected ink regions on the
	// binarized page; -1 when not computed.
	ContourCount int
	// Bounds is the rendered page rectangle.
	Bounds image.Rectangle
}

// Estimator picks an OCR segmentation strategy per page. Two heuristics
// cover the two situations the pipeline meets: pages with a usable block
// layout from the source, and bare raster pages where only ink statistics
// exist.
type Estimator struct {
	dpi           int
	userWordsPath string
}

// NewEstimator creates an estimator that stamps directives with the
// configured render DPI and optional user lexicon.
func NewEstimator(dpi int, userWordsPath string) *Estimator {
	return &Estimator{dpi: dpi, userWordsPath: userWordsPath}
}

// Estimate applies the block-layout decision policy, in order, first match
// wins:
//  1. no extractable text and sparse ink        -> sparse/general
//  2. three or more distinct column bands       -> column-flow
//  3. wide page (aspect ratio above 1.3)        -> uniform-block
//  4. otherwise                                 -> continuous text
func (e *Estimator) Estimate(a PageAnalysis) Directive {
	mode := ModeContinuous
	switch {
	case a.TextLen == 0 && a.ContourCount >= 0 && a.ContourCount < lowDensityContours:
		mode = ModeSparse
	case e.columnBands(a) >= 3:
		mode = ModeColumnFlow
	case a.AspectRatio > 1.3:
		mode = ModeUniformBlock
	}
	return e.directive(mode)
}

// EstimateFromContours is the fallback policy when no block data exists,
// driven purely by the connected-ink-region count:
//
//	count < 5          -> single line
//	5  <= count <= 20  -> uniform block
//	20 <  count <= 50  -> column flow
//	count > 50         -> sparse/general
//
// Thresholds are inclusive on the lower-mode side so boundary values
// resolve to the stricter mode.
func (e *Estimator) EstimateFromContours(count int) Directive {
	var mode SegmentationMode
	switch {
	case count < 5:
		mode = ModeSingleLine
	case count <= 20:
		mode = ModeUniformBlock
	case count <= 50:
		mode = ModeColumnFlow
	default:
		mode = ModeSparse
	}
	return e.directive(mode)
}

// lowDensityContours is the ink-region count below which a textless page
// is considered sparse rather than a dense scan.
const lowDensityContours = 20

// columnBands buckets block left/right edges into five equal-width ranges
// across the page and counts how many distinct ranges are occupied. Three
// or more occupied ranges indicate a multi-column layout.
func (e *Estimator) columnBands(a PageAnalysis) int {
	if len(a.Blocks) <= 3 {
		return 0
	}
	width := float64(a.Bounds.Dx())
	if width <= 0 {
		return 0
	}
	band := width / 5
	seen := make(map[int]struct{})
	for _, b := range a.Blocks {
		seen[bandIndex(b.X0, band)] = struct{}{}
		seen[bandIndex(b.X1, band)] = struct{}{}
	}
	return len(seen)
}

func bandIndex(x, band float64) int {
	if band <= 0 {
		return 0
	}
	i := int(x / band)
	if i < 0 {
		i = 0
	}
	if i > 4 {
		i = 4
	}
	return i
}

func (e *Estimator) directive(mode SegmentationMode) Directive {
	return Directive{Mode: mode, DPI: e.dpi, UserWordsPath: e.userWordsPath}
}
