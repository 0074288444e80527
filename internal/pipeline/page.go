/**
 * Per-page conversion pipeline.
 *
 * Decides between direct text extraction and the raster OCR path, and on
 * the OCR path runs: cache lookup, preprocessing, table detection and
 * reconstruction, table masking, layout-directed prose OCR and text
 * postprocessing. Every recoverable failure degrades the page instead of
 * failing the document.
 */

package pipeline

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/cache"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/config"
	apperrors "github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/errors"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/imaging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/layout"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/ocr"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/table"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/textproc"
)

// PageSource is the per-page view of an open document. *source.Source
// implements it; tests substitute fakes.
type PageSource interface {
	PageText(page int) (string, error)
	PageMarkdown(page int) (string, error)
	RenderPage(page, dpi int) (image.Image, error)
	PageBlocks(page int) ([]layout.Block, error)
}

// DocumentSource adds the whole-document surface used by the assembler.
type DocumentSource interface {
	PageSource
	PageCount() int
	Close() error
}

// tableBackground is the fill level used to mask table regions out of the
// binarized page before prose OCR. The preprocessor emits dark ink on a
// light background, so masked regions become blank paper.
const tableBackground uint8 = 255

// PageProcessor converts a single page to Markdown.
type PageProcessor struct {
	engine        ocr.Engine
	preprocessor  *imaging.Preprocessor
	estimator     *layout.Estimator
	detector      *table.Detector
	reconstructor *table.Reconstructor
	postprocessor *textproc.Postprocessor
	store         cache.Store
	log           *logging.Logger

	language     string
	dpi          int
	minTextChars int
	ocrTimeout   time.Duration
}

// NewPageProcessor wires the page pipeline from configuration and shared
// collaborators. The engine and cache store may be shared across workers;
// everything built here is stateless per call.
func NewPageProcessor(cfg *config.Config, engine ocr.Engine, store cache.Store,
	postprocessor *textproc.Postprocessor, log *logging.Logger) *PageProcessor {
	return &PageProcessor{
		engine:        engine,
		preprocessor:  imaging.NewPreprocessor(engine.DetectOrientation, log),
		estimator:     layout.NewEstimator(cfg.RenderDPI, cfg.LegalWordsPath),
		detector:      table.NewDetector(),
		reconstructor: table.NewReconstructor(engine, cfg.OCRLanguage, cfg.RenderDPI, log),
		postprocessor: postprocessor,
		store:         store,
		log:           log,
		language:      cfg.OCRLanguage,
		dpi:           cfg.RenderDPI,
		minTextChars:  cfg.OCRMinTextChars,
		ocrTimeout:    time.Duration(cfg.OCRTimeoutSecs) * time.Second,
	}
}

// ProcessPage converts one page (zero-based index). It never returns an
// error: unrecoverable page failures produce a degraded, possibly empty,
// result and the document continues.
func (p *PageProcessor) ProcessPage(ctx context.Context, src PageSource, pageIdx int) PageResult {
	result := PageResult{Page: pageIdx + 1}
	log := p.log.WithField("page", result.Page)

	embedded, err := src.PageText(pageIdx)
	if err != nil {
		log.Warn("text layer extraction failed, falling back to OCR", "error", err)
		embedded = ""
	}
	embedded = strings.TrimSpace(embedded)

	if len([]rune(embedded)) >= p.minTextChars {
		return p.directPage(src, pageIdx, embedded, log)
	}
	return p.ocrPage(ctx, src, pageIdx, embedded, log)
}

// directPage handles born-digital pages: the text layer is trusted and
// converted straight to Markdown, no rasterization.
func (p *PageProcessor) directPage(src PageSource, pageIdx int, embedded string, log *logging.Logger) PageResult {
	result := PageResult{Page: pageIdx + 1}

	markdown, err := src.PageMarkdown(pageIdx)
	if err != nil || strings.TrimSpace(markdown) == "" {
		if err != nil {
			log.Warn("direct markdown conversion failed, using plain text layer", "error", err)
		}
		markdown = p.postprocessor.Process(embedded)
	}
	result.Text = markdown
	log.Debug("page converted from text layer", "chars", len(markdown))
	return result
}

// ocrPage is the raster path: render, cache check, preprocess, tables,
// prose OCR, postprocess, cache store.
func (p *PageProcessor) ocrPage(ctx context.Context, src PageSource, pageIdx int, embedded string, log *logging.Logger) PageResult {
	result := PageResult{Page: pageIdx + 1, UsedOCR: true}

	img, err := src.RenderPage(pageIdx, p.dpi)
	if err != nil {
		renderErr := apperrors.NewPageRenderFailure(result.Page, err)
		log.Error("page render failed, emitting empty page", "error", renderErr)
		result.Degraded = true
		return result
	}

	key := cache.Fingerprint(img)
	if entry, hit, err := p.store.Get(ctx, key); err != nil {
		log.Warn("cache lookup failed, treating as miss",
			"error", apperrors.NewCacheFailure("read", err))
	} else if hit {
		log.Debug("cache hit", "key", key[:12])
		result.Text = entry.Text
		result.TablesDetected = entry.TablesDetected
		result.UsedOCR = entry.UsedOCR
		result.FromCache = true
		return result
	}

	ocrCtx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
	defer cancel()

	page := p.preprocessor.Preprocess(img)

	var tables []string
	if p.detector.HasTable(page) {
		tables = p.extractTables(ocrCtx, page, &result, log)
	}

	prose, err := p.engine.Recognize(ocrCtx, page, ocr.Request{
		Language:  p.language,
		Directive: p.directive(src, pageIdx, page, embedded),
	})
	if err != nil {
		log.Error("prose recognition failed",
			"error", apperrors.NewOcrEngineFailure(result.Page, err))
		result.Degraded = true
		prose = ""
	}

	result.Text = composePage(p.postprocessor.Process(prose), tables)

	if !result.Degraded {
		entry := cache.Entry{
			Text:           result.Text,
			TablesDetected: result.TablesDetected,
			UsedOCR:        true,
			CreatedAt:      time.Now().UTC(),
		}
		if err := p.store.Put(ctx, key, entry); err != nil {
			log.Warn("cache store failed",
				"error", apperrors.NewCacheFailure("write", err))
		}
	}
	return result
}

// extractTables reconstructs every detected table region as Markdown and
// masks the region out of the page so the prose pass does not read table
// contents twice. A region that cannot be reconstructed falls back to
// plain OCR of its crop; only when that also fails is it dropped.
func (p *PageProcessor) extractTables(ctx context.Context, page *image.Gray, result *PageResult, log *logging.Logger) []string {
	regions := p.detector.DetectRegions(page)
	if len(regions) == 0 {
		return nil
	}
	log.Info("table regions detected", "count", len(regions))

	var tables []string
	for _, region := range regions {
		crop := imaging.Crop(page, region.Rect)
		markdown, err := p.reconstructor.ToMarkdown(ctx, crop)
		if err != nil {
			log.Warn("table reconstruction failed, falling back to plain recognition",
				"error", apperrors.NewTableReconstructionFailure(result.Page, err))
			text, ocrErr := p.engine.Recognize(ctx, crop, ocr.Request{
				Language: p.language,
				Directive: layout.Directive{
					Mode: layout.ModeUniformBlock,
					DPI:  p.dpi,
				},
			})
			if ocrErr != nil {
				log.Error("table region dropped",
					"error", apperrors.NewTableReconstructionFailure(result.Page, ocrErr))
				result.Degraded = true
				imaging.FillRect(page, region.Rect, tableBackground)
				continue
			}
			markdown = strings.TrimSpace(text)
		}
		if markdown != "" {
			tables = append(tables, markdown)
			result.TablesDetected++
		}
		imaging.FillRect(page, region.Rect, tableBackground)
	}
	return tables
}

// directive picks the segmentation strategy for the prose pass: the block
// heuristic when the source reports positioned blocks, the ink-region
// fallback otherwise.
func (p *PageProcessor) directive(src PageSource, pageIdx int, page *image.Gray, embedded string) layout.Directive {
	ink := imaging.BinarizeOtsu(page, true)
	contours := imaging.CountComponents(ink)

	blocks, err := src.PageBlocks(pageIdx)
	if err != nil || len(blocks) == 0 {
		return p.estimator.EstimateFromContours(contours)
	}
	return p.estimator.Estimate(layout.PageAnalysis{
		TextLen:      len([]rune(embedded)),
		Blocks:       blocks,
		AspectRatio:  imaging.AspectRatio(page),
		ContourCount: contours,
		Bounds:       page.Bounds(),
	})
}

// ProcessImage runs the OCR path on a standalone image, outside any
// document: preprocessing, ink-driven layout estimation, recognition and
// postprocessing. Used by the single-image conversion surface.
func (p *PageProcessor) ProcessImage(ctx context.Context, img image.Image) (string, error) {
	ocrCtx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
	defer cancel()

	page := p.preprocessor.Preprocess(img)
	ink := imaging.BinarizeOtsu(page, true)
	directive := p.estimator.EstimateFromContours(imaging.CountComponents(ink))

	text, err := p.engine.Recognize(ocrCtx, page, ocr.Request{
		Language:  p.language,
		Directive: directive,
	})
	if err != nil {
		return "", apperrors.NewOcrEngineFailure(0, err)
	}
	return p.postprocessor.Process(text), nil
}

// composePage appends the detected-tables section to the prose body.
func composePage(prose string, tables []string) string {
	if len(tables) == 0 {
		return prose
	}
	var sb strings.Builder
	sb.WriteString(prose)
	if prose != "" {
		sb.WriteString("\n\n")
	}
	sb.WriteString("## Tablas detectadas")
	for _, table := range tables {
		sb.WriteString("\n\n")
		sb.WriteString(table)
	}
	return sb.String()
}
