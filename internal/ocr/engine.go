package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/layout"
)

// Request carries the per-call OCR parameters. The directive is consumed
// once; the language is a hint for the engine's trained data.
type Request struct {
	Language  string
	Directive layout.Directive
}

// Engine recognizes text in a raster image. Implementations must be usable
// both on full pages and on small crops (table cells), and must honor
// context cancellation.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, req Request) (string, error)
	// DetectOrientation estimates page rotation in degrees. An error means
	// orientation is unknown; callers treat that as "do not rotate".
	DetectOrientation(img image.Image) (int, error)
}

// Kind selects one of the known engine implementations. The set is closed:
// adding an engine means extending this enum and the switch in New.
type Kind string

const (
	KindTesseract Kind = "tesseract"
)

// Options configures engine construction.
type Options struct {
	// TesseractPath is the binary used for the orientation (OSD) pass.
	TesseractPath string
}

// New is the single dispatch point over the known engines.
func New(kind Kind, opts Options) (Engine, error) {
	switch kind {
	case KindTesseract:
		return NewTesseractEngine(opts.TesseractPath), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine kind %q", kind)
	}
}
