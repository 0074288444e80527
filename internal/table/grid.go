package table

import (
	"image"
	"sort"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/imaging"
)

const (
	// minCellArea filters speckle from the enclosed-region scan.
	minCellArea = 100
	// rowBand is the vertical tolerance for two cells to share a row.
	rowBand = 10
	// minGridCells is the smallest cell count that still counts as a
	// table (a 2x2 grid). Below this the grid is degenerate.
	minGridCells = 4
)

// CellIndex addresses a cell by zero-based row and column, both contiguous
// per detected line.
type CellIndex struct {
	Row int
	Col int
}

// CellGrid is a sparse mapping from cell index to the cropped cell image.
// Rows are derived by clustering cell boxes along Y within the row band;
// columns by X order inside each row. Indices are never negative.
type CellGrid struct {
	cells map[CellIndex]*image.Gray
	rows  int
}

// Degenerate reports whether too few cells were found for this to be a
// real table. Callers must then fall back to raw OCR of the crop.
func (g *CellGrid) Degenerate() bool {
	return len(g.cells) < minGridCells
}

// Rows returns the number of detected rows.
func (g *CellGrid) Rows() int { return g.rows }

// Cell returns the cropped image for (row, col) when present.
func (g *CellGrid) Cell(row, col int) (*image.Gray, bool) {
	img, ok := g.cells[CellIndex{Row: row, Col: col}]
	return img, ok
}

// MaxCols returns the widest row's cell count.
func (g *CellGrid) MaxCols() int {
	maxCols := 0
	for idx := range g.cells {
		if idx.Col+1 > maxCols {
			maxCols = idx.Col + 1
		}
	}
	return maxCols
}

// DetectCells locates the enclosed regions of a table crop and organizes
// them into a grid. The ruling-line mask is rebuilt as in region detection,
// then inverted so each enclosed cell interior becomes its own connected
// region.
func DetectCells(crop *image.Gray) *CellGrid {
	grid := &CellGrid{cells: make(map[CellIndex]*image.Gray)}
	bounds := crop.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return grid
	}

	binary := imaging.BinarizeOtsu(crop, true)
	horizontal := imaging.Open(binary, lineKernel, 1)
	vertical := imaging.Open(binary, 1, lineKernel)
	lines := imaging.Union(horizontal, vertical)
	lines = imaging.DilateN(lines, 3, 3, 1)

	enclosed := imaging.Invert(lines)

	var boxes []image.Rectangle
	for _, comp := range imaging.Components(enclosed) {
		if comp.Area < minCellArea {
			continue
		}
		// The page background outside the grid is one giant region;
		// skip anything spanning nearly the whole crop.
		if comp.Rect.Dx() >= bounds.Dx()*9/10 && comp.Rect.Dy() >= bounds.Dy()*9/10 {
			continue
		}
		boxes = append(boxes, comp.Rect)
	}
	if len(boxes) < minGridCells {
		return grid
	}

	// Cluster into rows: sort by Y, then group boxes whose top edge stays
	// within the row band of the current row's reference Y.
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].Min.Y < boxes[j].Min.Y })

	var rows [][]image.Rectangle
	current := []image.Rectangle{boxes[0]}
	refY := boxes[0].Min.Y
	for _, box := range boxes[1:] {
		if abs(box.Min.Y-refY) > rowBand {
			rows = append(rows, current)
			current = []image.Rectangle{box}
			refY = box.Min.Y
			continue
		}
		current = append(current, box)
	}
	rows = append(rows, current)

	for rowIdx, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].Min.X < row[j].Min.X })
		for colIdx, rect := range row {
			grid.cells[CellIndex{Row: rowIdx, Col: colIdx}] = imaging.Crop(crop, rect)
		}
	}
	grid.rows = len(rows)
	return grid
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
