// Package textnorm canonicalizes raw OCR output into a stable ASCII form
// suitable for pattern matching and prompting.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reNewline    = regexp.MustCompile(`\r\n?`)
	reNonASCII   = regexp.MustCompile(`[^\x20-\x7E\n\t]+`)
	reHyphenWrap = regexp.MustCompile(`-[ \t]*\n\s*`)
	reHorizSpace = regexp.MustCompile(`[ \t]{2,}`)
	reLineEdges  = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	reBlankLines = regexp.MustCompile(`\n{2,}`)
)

// softHyphen is removed, not replaced with a space.
const softHyphen = "\u00ad"

// Canonicalize cleans OCR text. The result contains only printable ASCII,
// newlines and single tabs, and Canonicalize(Canonicalize(s)) == Canonicalize(s).
func Canonicalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, softHyphen, "")
	s = reNewline.ReplaceAllString(s, "\n")
	s = reNonASCII.ReplaceAllString(s, " ")
	s = reHyphenWrap.ReplaceAllString(s, "")
	s = reHorizSpace.ReplaceAllString(s, " ")
	s = reLineEdges.ReplaceAllString(s, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Lines splits canonical text into trimmed, non-empty lines.
func Lines(s string) []string {
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
