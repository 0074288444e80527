package layout

// SegmentationMode is the closed set of OCR segmentation strategies the
// estimator can pick. Each maps to a Tesseract page segmentation mode.
type SegmentationMode int

const (
	// ModeSingleLine treats the page as one text line.
	ModeSingleLine SegmentationMode = iota
	// ModeColumnFlow assumes multiple columns of flowing text.
	ModeColumnFlow
	// ModeUniformBlock assumes a single uniform block of text.
	ModeUniformBlock
	// ModeContinuous assumes large continuous paragraphs.
	ModeContinuous
	// ModeSparse is the general mode for noisy or scattered content.
	ModeSparse
)

func (m SegmentationMode) String() string {
	switch m {
	case ModeSingleLine:
		return "single-line"
	case ModeColumnFlow:
		return "column-flow"
	case ModeUniformBlock:
		return "uniform-block"
	case ModeContinuous:
		return "continuous-text"
	case ModeSparse:
		return "sparse"
	}
	return "unknown"
}

// PSM returns the Tesseract page segmentation mode for this strategy.
func (m SegmentationMode) PSM() int {
	switch m {
	case ModeSingleLine:
		return 7
	case ModeColumnFlow:
		return 4
	case ModeUniformBlock:
		return 6
	case ModeContinuous:
		return 4
	case ModeSparse:
		return 11
	}
	return 3
}

// Directive is the per-page OCR instruction produced by the estimator and
// consumed once by the engine call. Immutable after creation.
type Directive struct {
	Mode SegmentationMode
	// DPI the page was (or should be) rendered at.
	DPI int
	// UserWordsPath is an optional lexicon handed to the engine as a hint.
	UserWordsPath string
}
