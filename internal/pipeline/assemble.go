/**
 * Document assembly.
 *
 * Fans page conversion out over a bounded worker pool and gathers results
 * by page index, so output order never depends on completion order. Each
 * worker owns its own document handle: the underlying PDF library is not
 * safe for concurrent use of one handle.
 */

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/config"
	apperrors "github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/errors"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/refine"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/source"
)

// Assembler converts whole documents.
type Assembler struct {
	cfg     *config.Config
	pages   *PageProcessor
	refiner refine.Refiner
	log     *logging.Logger

	// open is the document opener, replaceable in tests.
	open func(path string) (DocumentSource, error)
}

// NewAssembler creates a document assembler.
func NewAssembler(cfg *config.Config, pages *PageProcessor, refiner refine.Refiner, log *logging.Logger) *Assembler {
	return &Assembler{
		cfg:     cfg,
		pages:   pages,
		refiner: refiner,
		log:     log,
		open: func(path string) (DocumentSource, error) {
			src, err := source.Open(path)
			if err != nil {
				return nil, err
			}
			return src, nil
		},
	}
}

// Convert turns the PDF at path into a Markdown document. The only error
// returned is the fatal source-unavailable case; every page-level failure
// is degraded into the result instead.
func (a *Assembler) Convert(ctx context.Context, path string) (*DocumentResult, error) {
	started := time.Now()

	probe, err := a.open(path)
	if err != nil {
		return nil, err
	}
	pageCount := probe.PageCount()
	_ = probe.Close()

	workers := a.cfg.EffectivePageWorkers()
	if workers > pageCount {
		workers = pageCount
	}
	if workers < 1 {
		workers = 1
	}
	a.log.Info("converting document",
		"document", filepath.Base(path), "pages", pageCount, "workers", workers)

	results := make([]PageResult, pageCount)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runWorker(ctx, path, jobs, results)
		}()
	}
	for idx := 0; idx < pageCount; idx++ {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	result := &DocumentResult{
		Pages:     results,
		PageCount: pageCount,
		Duration:  time.Since(started),
	}
	result.Markdown = a.assemble(path, results)
	result.aggregate()

	if a.cfg.RefineDocument && a.refiner.Enabled() {
		refined, err := a.refiner.Refine(ctx, result.Markdown)
		if err != nil {
			a.log.Warn("document refinement failed, keeping unrefined text",
				"error", apperrors.NewRefinementFailure(err))
		} else {
			result.Markdown = refined
			result.Refined = true
		}
	}

	a.log.Info("document converted",
		"document", filepath.Base(path),
		"pages", result.PageCount,
		"ocr_pages", result.OCRPages,
		"cached_pages", result.CachedPages,
		"degraded_pages", result.DegradedPages,
		"tables", result.TablesDetected,
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// runWorker drains page indexes from jobs with its own document handle.
// When the handle cannot be opened the worker's pages degrade to empty
// placeholders rather than stalling the pool.
func (a *Assembler) runWorker(ctx context.Context, path string, jobs <-chan int, results []PageResult) {
	src, err := a.open(path)
	if err != nil {
		a.log.Error("worker could not open document, degrading its pages", "error", err)
		for idx := range jobs {
			results[idx] = PageResult{Page: idx + 1, Degraded: true}
		}
		return
	}
	defer src.Close()

	for idx := range jobs {
		if ctx.Err() != nil {
			results[idx] = PageResult{Page: idx + 1, Degraded: true}
			continue
		}
		results[idx] = a.pages.ProcessPage(ctx, src, idx)
	}
}

// assemble joins the per-page Markdown under a document title, one
// "## Página N" section per page in order.
func (a *Assembler) assemble(path string, pages []PageResult) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", name)
	for _, page := range pages {
		fmt.Fprintf(&sb, "\n## Página %d\n", page.Page)
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}
