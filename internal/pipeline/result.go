package pipeline

import "time"

// PageResult is the outcome of processing one page. A degraded page still
// carries whatever text could be recovered; only the whole-document
// failure modes abort a conversion.
type PageResult struct {
	// Page is the 1-based page number.
	Page int
	// Text is the page's Markdown content, empty for unrecoverable pages.
	Text string
	// TablesDetected is the number of table regions rendered on this page.
	TablesDetected int
	// UsedOCR reports whether the raster OCR path ran, as opposed to the
	// direct text-layer extraction.
	UsedOCR bool
	// FromCache reports a cache hit: the page was not re-recognized.
	FromCache bool
	// Degraded reports that at least one recoverable failure happened on
	// this page (render, OCR, table reconstruction).
	Degraded bool
}

// DocumentResult is the assembled conversion outcome.
type DocumentResult struct {
	Markdown       string
	Pages          []PageResult
	PageCount      int
	OCRPages       int
	CachedPages    int
	DegradedPages  int
	TablesDetected int
	Refined        bool
	Duration       time.Duration
}

// aggregate fills the counters from the per-page results.
func (d *DocumentResult) aggregate() {
	for _, page := range d.Pages {
		if page.UsedOCR {
			d.OCRPages++
		}
		if page.FromCache {
			d.CachedPages++
		}
		if page.Degraded {
			d.DegradedPages++
		}
		d.TablesDetected += page.TablesDetected
	}
}
