package pipeline

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/cache"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/config"
	apperrors "github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/errors"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/layout"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/ocr"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/refine"
	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/textproc"
)

func testConfig() *config.Config {
	return &config.Config{
		RenderDPI:       300,
		OCRLanguage:     "spa",
		OCRMinTextChars: 10,
		OCRTimeoutSecs:  5,
		PageWorkers:     4,
	}
}

func testLogger() *logging.Logger { return logging.NewLogger("test") }

// fakeSource serves synthetic pages. Pages listed in failRender return a
// render error; pages with embedded text take the direct path.
type fakeSource struct {
	pages      int
	embedded   map[int]string
	failRender map[int]bool
	delay      bool
}

func (s *fakeSource) PageCount() int { return s.pages }
func (s *fakeSource) Close() error   { return nil }

func (s *fakeSource) PageText(page int) (string, error) {
	return s.embedded[page], nil
}

func (s *fakeSource) PageMarkdown(page int) (string, error) {
	if s.delay {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}
	return fmt.Sprintf("Contenido de la página %d.", page+1), nil
}

func (s *fakeSource) RenderPage(page, dpi int) (image.Image, error) {
	if s.failRender[page] {
		return nil, fmt.Errorf("corrupt page stream")
	}
	g := image.NewGray(image.Rect(0, 0, 200, 280))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g, nil
}

func (s *fakeSource) PageBlocks(page int) ([]layout.Block, error) { return nil, nil }

// fakeEngine returns a fixed text, or an error for pages it is told to
// fail, and counts calls.
type fakeEngine struct {
	mu    sync.Mutex
	text  string
	fail  bool
	calls int
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(_ context.Context, _ image.Image, _ ocr.Request) (string, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail {
		return "", fmt.Errorf("engine exploded")
	}
	return e.text, nil
}

func (e *fakeEngine) DetectOrientation(image.Image) (int, error) { return 0, nil }

func newTestProcessor(engine ocr.Engine, store cache.Store) *PageProcessor {
	post := textproc.NewPostprocessor(textproc.LoadCorrections("", testLogger()))
	return NewPageProcessor(testConfig(), engine, store, post, testLogger())
}

func newTestAssembler(pages *PageProcessor, src DocumentSource) *Assembler {
	refiner, _ := refine.New(testConfig())
	a := NewAssembler(testConfig(), pages, refiner, testLogger())
	a.open = func(string) (DocumentSource, error) { return src, nil }
	return a
}

func TestConvertPreservesPageOrder(t *testing.T) {
	const pages = 24
	embedded := map[int]string{}
	for i := 0; i < pages; i++ {
		embedded[i] = fmt.Sprintf("Texto embebido suficiente de la página %d.", i+1)
	}
	src := &fakeSource{pages: pages, embedded: embedded, delay: true}

	engine := &fakeEngine{text: "no debería usarse"}
	assembler := newTestAssembler(newTestProcessor(engine, cache.NewNoopStore()), src)

	result, err := assembler.Convert(context.Background(), "/tmp/doc.pdf")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.PageCount != pages {
		t.Fatalf("PageCount = %d, want %d", result.PageCount, pages)
	}

	for i, page := range result.Pages {
		if page.Page != i+1 {
			t.Fatalf("result slot %d holds page %d", i, page.Page)
		}
		want := fmt.Sprintf("Contenido de la página %d.", i+1)
		if page.Text != want {
			t.Errorf("page %d text = %q, want %q", i+1, page.Text, want)
		}
	}

	// The assembled Markdown lists the sections in ascending order.
	last := -1
	for i := 1; i <= pages; i++ {
		idx := strings.Index(result.Markdown, fmt.Sprintf("## Página %d\n", i))
		if idx < 0 {
			t.Fatalf("missing section for page %d", i)
		}
		if idx < last {
			t.Fatalf("page %d section out of order", i)
		}
		last = idx
	}
	if engine.calls != 0 {
		t.Errorf("OCR engine called %d times on a born-digital document", engine.calls)
	}
}

func TestConvertDegradesFailedPages(t *testing.T) {
	src := &fakeSource{
		pages:      3,
		embedded:   map[int]string{},
		failRender: map[int]bool{1: true},
	}
	engine := &fakeEngine{text: "Texto reconocido en la página."}
	assembler := newTestAssembler(newTestProcessor(engine, cache.NewNoopStore()), src)

	result, err := assembler.Convert(context.Background(), "/tmp/doc.pdf")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if result.DegradedPages != 1 {
		t.Errorf("DegradedPages = %d, want 1", result.DegradedPages)
	}
	if !result.Pages[1].Degraded {
		t.Errorf("page 2 not marked degraded")
	}
	if result.Pages[1].Text != "" {
		t.Errorf("unrenderable page carries text: %q", result.Pages[1].Text)
	}
	for _, i := range []int{0, 2} {
		if result.Pages[i].Degraded {
			t.Errorf("page %d wrongly degraded", i+1)
		}
		if !strings.Contains(result.Pages[i].Text, "Texto reconocido") {
			t.Errorf("page %d lost its text: %q", i+1, result.Pages[i].Text)
		}
		if !result.Pages[i].UsedOCR {
			t.Errorf("page %d should have used OCR", i+1)
		}
	}
	// The failed page still has its section header in the output.
	if !strings.Contains(result.Markdown, "## Página 2") {
		t.Errorf("degraded page section missing from the document")
	}
}

func TestConvertEngineFailureDegradesNotAborts(t *testing.T) {
	src := &fakeSource{pages: 2, embedded: map[int]string{}}
	engine := &fakeEngine{fail: true}
	assembler := newTestAssembler(newTestProcessor(engine, cache.NewNoopStore()), src)

	result, err := assembler.Convert(context.Background(), "/tmp/doc.pdf")
	if err != nil {
		t.Fatalf("Convert must not fail on engine errors, got %v", err)
	}
	if result.DegradedPages != 2 {
		t.Errorf("DegradedPages = %d, want 2", result.DegradedPages)
	}
}

func TestConvertSourceUnavailableIsFatal(t *testing.T) {
	pages := newTestProcessor(&fakeEngine{}, cache.NewNoopStore())
	refiner, _ := refine.New(testConfig())
	assembler := NewAssembler(testConfig(), pages, refiner, testLogger())
	assembler.open = func(path string) (DocumentSource, error) {
		return nil, apperrors.NewSourceUnavailable(path, fmt.Errorf("no such file"))
	}

	_, err := assembler.Convert(context.Background(), "/tmp/missing.pdf")
	if err == nil {
		t.Fatal("Convert succeeded on an unopenable document")
	}
	if kind := apperrors.KindOf(err); kind != apperrors.SourceUnavailable {
		t.Errorf("error kind = %q, want %q", kind, apperrors.SourceUnavailable)
	}
}

// fixedStore always hits with the same entry.
type fixedStore struct {
	cache.NoopStore
	entry cache.Entry
}

func (s *fixedStore) Get(context.Context, string) (cache.Entry, bool, error) {
	return s.entry, true, nil
}

func TestProcessPageCacheHitSkipsRecognition(t *testing.T) {
	store := &fixedStore{entry: cache.Entry{
		Text:           "Texto cacheado.",
		TablesDetected: 1,
		UsedOCR:        true,
	}}
	engine := &fakeEngine{text: "no debería usarse"}
	processor := newTestProcessor(engine, store)

	src := &fakeSource{pages: 1, embedded: map[int]string{}}
	result := processor.ProcessPage(context.Background(), src, 0)

	if !result.FromCache {
		t.Fatalf("cache hit not reported")
	}
	if result.Text != "Texto cacheado." || result.TablesDetected != 1 {
		t.Errorf("cached result not honored: %+v", result)
	}
	if engine.calls != 0 {
		t.Errorf("engine called %d times despite a cache hit", engine.calls)
	}
}

func TestComposePage(t *testing.T) {
	if got := composePage("texto", nil); got != "texto" {
		t.Errorf("composePage without tables = %q", got)
	}

	got := composePage("texto", []string{"| a |", "| b |"})
	if !strings.Contains(got, "## Tablas detectadas") {
		t.Errorf("tables section header missing:\n%s", got)
	}
	if strings.Index(got, "texto") > strings.Index(got, "## Tablas detectadas") {
		t.Errorf("tables must follow the prose:\n%s", got)
	}

	got = composePage("", []string{"| a |"})
	if !strings.HasPrefix(got, "## Tablas detectadas") {
		t.Errorf("prose-less page must still list tables:\n%s", got)
	}
}
