package table

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/layout"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/ocr"
)

// Reconstructor turns a cropped table image into a Markdown table by
// detecting the cell grid and recognizing each cell independently.
type Reconstructor struct {
	engine   ocr.Engine
	language string
	dpi      int
	log      *logging.Logger
}

// NewReconstructor creates a table reconstructor.
func NewReconstructor(engine ocr.Engine, language string, dpi int, log *logging.Logger) *Reconstructor {
	return &Reconstructor{engine: engine, language: language, dpi: dpi, log: log}
}

// ToMarkdown converts a table crop to Markdown. When the grid is
// degenerate (fewer than four cells) the crop is not a real table: the
// whole image is recognized as plain text and returned as a fenced
// literal block instead of table syntax. An empty string means nothing
// recognizable was found.
func (r *Reconstructor) ToMarkdown(ctx context.Context, crop *image.Gray) (string, error) {
	grid := DetectCells(crop)
	if grid.Degenerate() {
		text, err := r.recognize(ctx, crop)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", nil
		}
		return "```\n" + text + "\n```", nil
	}

	// Recognize every present cell; a failed cell becomes an empty one
	// rather than failing the table.
	cellText := make(map[CellIndex]string, grid.rows*grid.MaxCols())
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; ; col++ {
			cell, ok := grid.Cell(row, col)
			if !ok {
				break
			}
			text, err := r.recognize(ctx, cell)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				r.log.Warn("cell recognition failed, leaving cell empty",
					"row", row, "col", col, "error", err)
				text = ""
			}
			cellText[CellIndex{Row: row, Col: col}] = normalizeCell(text)
		}
	}

	return renderMarkdown(grid, cellText), nil
}

// renderMarkdown assembles the table with a generated header and every
// data row padded or truncated to the widest row. Ragged input never
// reaches the output.
func renderMarkdown(grid *CellGrid, cellText map[CellIndex]string) string {
	cols := grid.MaxCols()
	if cols == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("|")
	for c := 0; c < cols; c++ {
		fmt.Fprintf(&sb, " Columna %d |", c+1)
	}
	sb.WriteString("\n|")
	for c := 0; c < cols; c++ {
		sb.WriteString(" --- |")
	}
	for row := 0; row < grid.Rows(); row++ {
		sb.WriteString("\n|")
		for c := 0; c < cols; c++ {
			sb.WriteString(" ")
			sb.WriteString(cellText[CellIndex{Row: row, Col: c}])
			sb.WriteString(" |")
		}
	}
	return sb.String()
}

func (r *Reconstructor) recognize(ctx context.Context, img *image.Gray) (string, error) {
	return r.engine.Recognize(ctx, img, ocr.Request{
		Language: r.language,
		Directive: layout.Directive{
			Mode: layout.ModeUniformBlock,
			DPI:  r.dpi,
		},
	})
}

// normalizeCell flattens cell text onto one line and strips characters
// that would break table syntax.
func normalizeCell(text string) string {
	text = strings.ReplaceAll(text, "|", "/")
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
