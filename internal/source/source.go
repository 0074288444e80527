/**
 * PDF document source.
 *
 * Wraps a MuPDF document handle (go-fitz) and exposes the per-page
 * facts the pipeline needs: rasterized images, the embedded text layer,
 * positioned text blocks and a direct HTML-to-Markdown rendition for
 * born-digital pages.
 *
 * A Source is NOT safe for concurrent use; every page worker opens its
 * own handle on the same file.
 */

package source

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"

	apperrors "github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/errors"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/layout"
)

// Source reads pages out of a single PDF file.
type Source struct {
	doc       *fitz.Document
	path      string
	converter *md.Converter
}

// Open opens the PDF at path. Failure to open is fatal for the whole
// document and reported as a source-unavailable error.
func Open(path string) (*Source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, apperrors.NewSourceUnavailable(path, err)
	}
	return &Source{
		doc:       doc,
		path:      path,
		converter: md.NewConverter("", true, nil),
	}, nil
}

// Path returns the file path the source was opened from.
func (s *Source) Path() string { return s.path }

// PageCount returns the number of pages in the document.
func (s *Source) PageCount() int { return s.doc.NumPage() }

// Close releases the underlying document handle.
func (s *Source) Close() error { return s.doc.Close() }

// RenderPage rasterizes page (zero-based) at the given DPI.
func (s *Source) RenderPage(page, dpi int) (image.Image, error) {
	img, err := s.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d at %d dpi: %w", page+1, dpi, err)
	}
	return img, nil
}

// PageText returns the embedded text layer of a page. Empty for purely
// scanned pages.
func (s *Source) PageText(page int) (string, error) {
	text, err := s.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("extract text of page %d: %w", page+1, err)
	}
	return text, nil
}

// hardcodedImages matches inline base64 images the HTML renderer embeds
// for raster content; they are useless in text output and huge.
var hardcodedImages = regexp.MustCompile(`!\[\]\(data:image/[^)]+\)`)

// PageMarkdown converts the page's HTML rendition straight to Markdown.
// This is the fast path for born-digital pages that need no OCR.
func (s *Source) PageMarkdown(page int) (string, error) {
	html, err := s.doc.HTML(page, true)
	if err != nil {
		return "", fmt.Errorf("render page %d as html: %w", page+1, err)
	}
	text, err := s.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert page %d to markdown: %w", page+1, err)
	}
	return strings.TrimSpace(hardcodedImages.ReplaceAllString(text, "")), nil
}

// PageBlocks returns the positioned text blocks of a page, parsed out of
// the HTML rendition. Blocks without text are skipped; pages without a
// text layer yield an empty slice, not an error.
func (s *Source) PageBlocks(page int) ([]layout.Block, error) {
	html, err := s.doc.HTML(page, false)
	if err != nil {
		return nil, fmt.Errorf("render page %d as html: %w", page+1, err)
	}
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page %d html: %w", page+1, err)
	}

	var blocks []layout.Block
	parsed.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		style, _ := sel.Attr("style")
		left := styleValue(style, "left")
		top := styleValue(style, "top")
		blocks = append(blocks, layout.Block{
			X0:   left,
			Y0:   top,
			X1:   left + styleValue(style, "width"),
			Y1:   top + styleValue(style, "height"),
			Text: text,
		})
	})
	return blocks, nil
}

// styleValue extracts a numeric CSS property (e.g. "left:54.1pt") from an
// inline style string. Missing or unparsable values yield 0.
func styleValue(style, property string) float64 {
	for _, decl := range strings.Split(style, ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found || strings.TrimSpace(name) != property {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.TrimSuffix(value, "pt")
		value = strings.TrimSuffix(value, "px")
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}
