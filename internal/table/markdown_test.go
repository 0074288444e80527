package table

import (
	"context"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/ocr"
)

// scriptedEngine returns canned responses in call order.
type scriptedEngine struct {
	responses []string
	errs      []error
	calls     int
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Recognize(_ context.Context, _ image.Image, _ ocr.Request) (string, error) {
	i := e.calls
	e.calls++
	var err error
	if i < len(e.errs) {
		err = e.errs[i]
	}
	if i < len(e.responses) {
		return e.responses[i], err
	}
	return "", err
}

func (e *scriptedEngine) DetectOrientation(image.Image) (int, error) { return 0, nil }

func testLogger() *logging.Logger { return logging.NewLogger("test") }

func TestToMarkdownRendersGrid(t *testing.T) {
	crop := paper(300, 200)
	drawGrid(crop, []int{10, 100, 190}, []int{10, 150, 290})

	engine := &scriptedEngine{responses: []string{"Nombre", "Valor", "IVA", "19%"}}
	r := NewReconstructor(engine, "spa", 300, testLogger())

	got, err := r.ToMarkdown(context.Background(), crop)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}

	want := strings.Join([]string{
		"| Columna 1 | Columna 2 |",
		"| --- | --- |",
		"| Nombre | Valor |",
		"| IVA | 19% |",
	}, "\n")
	if got != want {
		t.Errorf("ToMarkdown =\n%s\nwant\n%s", got, want)
	}
	if engine.calls != 4 {
		t.Errorf("engine called %d times, want 4", engine.calls)
	}
}

func TestToMarkdownEveryRowHasSameWidth(t *testing.T) {
	crop := paper(300, 200)
	drawGrid(crop, []int{10, 100, 190}, []int{10, 150, 290})

	engine := &scriptedEngine{responses: []string{"a", "b", "c", "d"}}
	r := NewReconstructor(engine, "spa", 300, testLogger())

	got, err := r.ToMarkdown(context.Background(), crop)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}

	lines := strings.Split(got, "\n")
	width := strings.Count(lines[0], "|")
	for i, line := range lines {
		if strings.Count(line, "|") != width {
			t.Errorf("row %d has a different column count: %q", i, line)
		}
	}
}

func TestToMarkdownEscapesCellPipes(t *testing.T) {
	crop := paper(300, 200)
	drawGrid(crop, []int{10, 100, 190}, []int{10, 150, 290})

	engine := &scriptedEngine{responses: []string{"a|b", "x\ny", "c", "d"}}
	r := NewReconstructor(engine, "spa", 300, testLogger())

	got, err := r.ToMarkdown(context.Background(), crop)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if strings.Contains(got, "a|b") {
		t.Errorf("cell text pipe not escaped:\n%s", got)
	}
	if !strings.Contains(got, "| a/b |") {
		t.Errorf("pipe not replaced with slash:\n%s", got)
	}
	if !strings.Contains(got, "| x y |") {
		t.Errorf("cell line break not flattened:\n%s", got)
	}
}

func TestToMarkdownFailedCellBecomesEmpty(t *testing.T) {
	crop := paper(300, 200)
	drawGrid(crop, []int{10, 100, 190}, []int{10, 150, 290})

	engine := &scriptedEngine{
		responses: []string{"a", "", "c", "d"},
		errs:      []error{nil, fmt.Errorf("glyph soup"), nil, nil},
	}
	r := NewReconstructor(engine, "spa", 300, testLogger())

	got, err := r.ToMarkdown(context.Background(), crop)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if !strings.Contains(got, "| a |  |") {
		t.Errorf("failed cell not rendered empty:\n%s", got)
	}
}

func TestToMarkdownDegenerateFallsBackToLiteralBlock(t *testing.T) {
	crop := paper(200, 100)
	engine := &scriptedEngine{responses: []string{"  Texto suelto sin tabla  "}}
	r := NewReconstructor(engine, "spa", 300, testLogger())

	got, err := r.ToMarkdown(context.Background(), crop)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	want := "```\nTexto suelto sin tabla\n```"
	if got != want {
		t.Errorf("degenerate crop = %q, want fenced literal block", got)
	}
	if strings.Contains(got, "|") {
		t.Errorf("degenerate crop produced table syntax")
	}
}

func TestToMarkdownDegenerateEmptyCrop(t *testing.T) {
	crop := paper(200, 100)
	engine := &scriptedEngine{responses: []string{"   "}}
	r := NewReconstructor(engine, "spa", 300, testLogger())

	got, err := r.ToMarkdown(context.Background(), crop)
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if got != "" {
		t.Errorf("empty degenerate crop = %q, want empty string", got)
	}
}
