package textproc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
)

func testLogger() *logging.Logger { return logging.NewLogger("test") }

func emptyCorrections() *Corrections {
	return LoadCorrections("", testLogger())
}

func writeCorrections(t *testing.T, rows string) *Corrections {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corrections.csv")
	if err := os.WriteFile(path, []byte(rows), 0o644); err != nil {
		t.Fatal(err)
	}
	return LoadCorrections(path, testLogger())
}

func TestCorrectionsWholeWordOnly(t *testing.T) {
	c := writeCorrections(t, "ocr,correct\ntuvo,tuve\nrnedio,medio\n")
	if c.Len() != 2 {
		t.Fatalf("loaded %d corrections, want 2", c.Len())
	}

	tests := []struct {
		in, want string
	}{
		{"tuvo", "tuve"},
		{"Tuvo", "tuve"},
		{"TUVO que ir", "tuve que ir"},
		{"tuvoque", "tuvoque"},
		{"el tuvo, y se fue", "el tuve, y se fue"},
		{"por rnedio de", "por medio de"},
	}
	for _, tt := range tests {
		if got := c.Apply(tt.in); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCorrectionsMissingFileIsEmpty(t *testing.T) {
	c := LoadCorrections("/no/such/file.csv", testLogger())
	if c.Len() != 0 {
		t.Fatalf("missing file produced %d corrections", c.Len())
	}
	if got := c.Apply("tuvo"); got != "tuvo" {
		t.Errorf("empty table changed text: %q", got)
	}
}

func TestProcessPromotesLegalHeadings(t *testing.T) {
	p := NewPostprocessor(emptyCorrections())

	in := strings.Join([]string{
		"VISTOS:",
		"",
		"Los antecedentes de la causa.",
		"",
		"RESUELVO",
		"",
		"Que se apruebe la solicitud.",
	}, "\n")

	got := p.Process(in)
	if !strings.Contains(got, "### VISTOS") {
		t.Errorf("VISTOS not promoted:\n%s", got)
	}
	if !strings.Contains(got, "### RESUELVO") {
		t.Errorf("RESUELVO not promoted:\n%s", got)
	}
	if strings.Contains(got, "### Que") {
		t.Errorf("body text wrongly promoted:\n%s", got)
	}
}

func TestProcessPromotesShortUppercaseLines(t *testing.T) {
	p := NewPostprocessor(emptyCorrections())

	got := p.Process("MINISTERIO DE HACIENDA\n\nTexto normal del documento aquí presente.")
	if !strings.Contains(got, "### MINISTERIO DE HACIENDA") {
		t.Errorf("uppercase line not promoted:\n%s", got)
	}

	long := strings.Repeat("PALABRA ", 12) // over the 80-rune limit
	got = p.Process(long + "\n\nTexto normal del documento aquí presente.")
	if strings.Contains(got, "###") {
		t.Errorf("overlong uppercase line promoted:\n%s", got)
	}
}

func TestProcessNormalizesLists(t *testing.T) {
	p := NewPostprocessor(emptyCorrections())

	tests := []struct {
		in, want string
	}{
		{"(1) primer punto del acuerdo", "1. primer punto del acuerdo"},
		{"2) segundo punto del acuerdo", "2. segundo punto del acuerdo"},
		{"3- tercer punto del acuerdo", "3. tercer punto del acuerdo"},
		{"4. cuarto punto del acuerdo", "4. cuarto punto del acuerdo"},
		{"• punto con viñeta inicial", "- punto con viñeta inicial"},
		{"– punto con guion largo", "- punto con guion largo"},
	}
	for _, tt := range tests {
		if got := p.Process(tt.in); got != tt.want {
			t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcessDropsNoiseLines(t *testing.T) {
	p := NewPostprocessor(emptyCorrections())

	in := strings.Join([]string{
		"Este es un párrafo legible del documento.",
		"",
		";;; ,,, /// 000 111 ...",
		"",
		"Y este otro párrafo también es legible.",
	}, "\n")

	got := p.Process(in)
	if strings.Contains(got, ";;;") {
		t.Errorf("noise line survived:\n%s", got)
	}
	if !strings.Contains(got, "párrafo legible") || !strings.Contains(got, "también es legible") {
		t.Errorf("real text lost:\n%s", got)
	}
}

func TestProcessReflowsHardWrappedParagraphs(t *testing.T) {
	p := NewPostprocessor(emptyCorrections())

	in := "El tribunal examinó los antecedentes presentados.\n" +
		"La resolución fue notificada a las partes."
	got := p.Process(in)
	if strings.Contains(got, "presentados.\nLa") {
		t.Errorf("hard wrap between sentences not merged:\n%s", got)
	}

	// Paragraph boundaries survive.
	in = "Primer párrafo del texto.\n\nSegundo párrafo del texto."
	got = p.Process(in)
	if !strings.Contains(got, "texto.\n\nSegundo") {
		t.Errorf("paragraph boundary lost:\n%s", got)
	}
}

func TestProcessIsTotal(t *testing.T) {
	p := NewPostprocessor(emptyCorrections())

	inputs := []string{
		"",
		"   \n\n\t  ",
		"\xff\xfe invalid utf8 \x80 bytes",
		strings.Repeat("A", 10000),
		"solo\x00nulo",
	}
	for _, in := range inputs {
		got := p.Process(in) // must not panic
		if strings.ContainsRune(got, '\x00') {
			t.Errorf("Process(%q) kept a NUL byte", in)
		}
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	c := writeCorrections(t, "tuvo,tuve\n")
	p := NewPostprocessor(c)

	inputs := []string{
		"VISTOS:\n\nEl señor tuvo a bien presentar\nla solicitud correspondiente.",
		"(1) primer punto\n(2) segundo punto",
		"RESUELVO\n\nQue se archive la causa.",
		"| Columna 1 | Columna 2 |\n| --- | --- |\n| a | b |",
		"```\nbloque literal\n```",
		"Texto con acentos: resolución, artículo, señaló.",
	}
	for _, in := range inputs {
		once := p.Process(in)
		twice := p.Process(once)
		if once != twice {
			t.Errorf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}
