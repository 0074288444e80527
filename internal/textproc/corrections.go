package textproc

import (
	"encoding/csv"
	"os"
	"strings"
	"unicode"

	"github.com/ROD-LAR-GILLES/OCR-FRONTEND/internal/logging"
)

// Corrections is the load-once table of known OCR mistakes
// (erroneous token -> corrected token). Immutable after load and safe to
// share across page workers without locking.
type Corrections struct {
	byToken map[string]string
}

// LoadCorrections reads the corrections CSV (columns: ocr, correct).
// A missing file is non-fatal and yields an empty table; malformed rows
// are skipped.
func LoadCorrections(path string, log *logging.Logger) *Corrections {
	table := &Corrections{byToken: make(map[string]string)}
	if path == "" {
		return table
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn("corrections table not found, continuing without it", "path", path)
		return table
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		log.Warn("corrections table unreadable, continuing without it", "path", path, "error", err)
		return table
	}

	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		bad, good := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		// Skip a header row.
		if i == 0 && strings.EqualFold(bad, "ocr") && strings.EqualFold(good, "correct") {
			continue
		}
		if bad == "" {
			continue
		}
		table.byToken[strings.ToLower(bad)] = good
	}

	log.Info("corrections table loaded", "path", path, "entries", len(table.byToken))
	return table
}

// Len returns the number of loaded corrections.
func (c *Corrections) Len() int { return len(c.byToken) }

// Apply substitutes known-bad tokens with their corrections. Matching is
// case-insensitive and whole-word only: "tuvo" is replaced, "tuvoque" is
// left alone.
func (c *Corrections) Apply(text string) string {
	if len(c.byToken) == 0 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))

	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			sb.WriteRune(runes[i])
			i++
			continue
		}
		start := i
		for i < len(runes) && isWordRune(runes[i]) {
			i++
		}
		word := string(runes[start:i])
		if good, ok := c.byToken[strings.ToLower(word)]; ok {
			sb.WriteString(good)
		} else {
			sb.WriteString(word)
		}
	}
	return sb.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
