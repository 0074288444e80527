/**
 * OCR text postprocessing for Spanish legal documents.
 *
 * The pipeline is total (any input string yields an output string, no
 * errors) and idempotent: running it on its own output changes nothing.
 * Structural lines (Markdown headings, tables, lists, fenced blocks) are
 * never reflowed or filtered, which is what keeps reprocessing stable.
 */

package textproc

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// legalHeadings are section openers of Spanish administrative and judicial
// resolutions that are promoted to Markdown headings when standing alone.
var legalHeadings = map[string]bool{
	"VISTOS":            true,
	"VISTO":             true,
	"CONSIDERANDO":      true,
	"RESUELVO":          true,
	"DECRETO":           true,
	"DECRETA":           true,
	"FUNDAMENTO":        true,
	"TENIENDO PRESENTE": true,
	"POR TANTO":         true,
}

// Postprocessor cleans raw OCR prose into readable Markdown-ready text.
type Postprocessor struct {
	corrections *Corrections
}

// NewPostprocessor creates a postprocessor. corrections may be empty but
// not nil.
func NewPostprocessor(corrections *Corrections) *Postprocessor {
	return &Postprocessor{corrections: corrections}
}

// Process runs the full pipeline: character cleanup, noise-line removal,
// paragraph reflow, known-error correction, list normalization and legal
// heading promotion.
func (p *Postprocessor) Process(text string) string {
	text = cleanup(text)
	text = reflow(text)
	text = p.corrections.Apply(text)
	text = normalizeLists(text)
	text = promoteHeadings(text)
	return strings.TrimSpace(text)
}

// allowedPunct is the punctuation kept by cleanup. It includes the
// Markdown characters emitted by later stages and by table rendering, so
// reprocessed output is not mutilated.
const allowedPunct = ".,;:%()-/¿?¡!#|`'\"•–—*"

// cleanup coerces the input to valid UTF-8, applies Unicode NFKC
// normalization, strips characters outside the allow list, collapses
// horizontal whitespace and drops noise lines with too few letters.
func cleanup(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var filtered strings.Builder
	filtered.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			filtered.WriteRune(r)
		case unicode.IsSpace(r):
			filtered.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			filtered.WriteRune(r)
		case strings.ContainsRune(allowedPunct, r):
			filtered.WriteRune(r)
		default:
			filtered.WriteRune(' ')
		}
	}

	var out []string
	blank := false
	for _, line := range strings.Split(filtered.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			// Collapse blank runs to a single paragraph separator.
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		if !isStructural(line) && letterRatio(line) < 0.3 {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// letterRatio is the share of letters among the non-space runes of line.
func letterRatio(line string) float64 {
	letters, total := 0, 0
	for _, r := range line {
		if r == ' ' {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// isStructural reports whether line is Markdown structure that must pass
// through reflow and filtering untouched. Short all-uppercase lines count
// too: they are heading candidates and must keep their own line.
func isStructural(line string) bool {
	switch {
	case line == "":
		return true
	case strings.HasPrefix(line, "#"),
		strings.HasPrefix(line, "|"),
		strings.HasPrefix(line, "```"),
		strings.HasPrefix(line, "- "):
		return true
	}
	if _, _, ok := splitListMarker(line); ok {
		return true
	}
	return isHeadingCandidate(line)
}

// reflow merges hard-wrapped lines back into paragraphs. A single line
// break survives only when the upper line ends with continuation
// punctuation, or when the lower line starts lowercase and the upper one
// carries no sentence-ending punctuation. Blank lines keep paragraphs
// apart and structural lines are never merged.
func reflow(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		if len(out) == 0 {
			out = append(out, line)
			continue
		}
		prev := out[len(out)-1]
		if prev == "" || line == "" || isStructural(prev) || isStructural(line) {
			out = append(out, line)
			continue
		}
		if keepBreak(prev, line) {
			out = append(out, line)
			continue
		}
		out[len(out)-1] = prev + " " + line
	}
	return strings.Join(out, "\n")
}

func keepBreak(upper, lower string) bool {
	if strings.ContainsRune(",:;-", rune(upper[len(upper)-1])) {
		return true
	}
	lowerRunes := []rune(lower)
	startsLower := unicode.IsLower(lowerRunes[0])
	upperRunes := []rune(upper)
	endsSentence := strings.ContainsRune(".!?", upperRunes[len(upperRunes)-1])
	return startsLower && !endsSentence
}

// splitListMarker matches a leading enumeration marker: "(n)", "n.", "n)"
// or "n-" followed by whitespace. Returns the number, the remainder and
// whether it matched.
func splitListMarker(line string) (num string, rest string, ok bool) {
	s := line
	paren := strings.HasPrefix(s, "(")
	if paren {
		s = s[1:]
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i > 4 {
		return "", "", false
	}
	num, s = s[:i], s[i:]
	if paren {
		if !strings.HasPrefix(s, ")") {
			return "", "", false
		}
		s = s[1:]
	} else {
		if len(s) == 0 || !strings.ContainsRune(".)-", rune(s[0])) {
			return "", "", false
		}
		s = s[1:]
	}
	if s != "" && s[0] != ' ' {
		return "", "", false
	}
	return num, strings.TrimLeft(s, " "), true
}

// normalizeLists rewrites enumeration markers to canonical Markdown:
// "(3)", "3)" and "3-" become "3. ", and bullet glyphs become "- ".
func normalizeLists(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if num, rest, ok := splitListMarker(line); ok && rest != "" {
			lines[i] = fmt.Sprintf("%s. %s", num, rest)
			continue
		}
		for _, bullet := range []string{"• ", "– ", "— ", "* "} {
			if strings.HasPrefix(line, bullet) {
				lines[i] = "- " + strings.TrimLeft(strings.TrimPrefix(line, bullet), " ")
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// isHeadingCandidate reports whether a standalone line should become a
// heading: either a known legal section opener, or a short line written
// entirely in uppercase.
func isHeadingCandidate(line string) bool {
	candidate := strings.TrimSpace(strings.TrimSuffix(line, ":"))
	if candidate == "" {
		return false
	}
	if legalHeadings[candidate] {
		return true
	}
	runes := []rune(candidate)
	if len(runes) >= 80 {
		return false
	}
	hasLetter := false
	for _, r := range runes {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsDigit(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// promoteHeadings turns standalone section openers into level-3 Markdown
// headings. Lines already carrying Markdown structure are left alone.
func promoteHeadings(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "|") || strings.HasPrefix(line, "```") ||
			strings.HasPrefix(line, "- ") {
			continue
		}
		if _, _, ok := splitListMarker(line); ok {
			continue
		}
		if isHeadingCandidate(line) {
			lines[i] = "### " + strings.TrimSpace(strings.TrimSuffix(line, ":"))
		}
	}
	return strings.Join(lines, "\n")
}
