package heuristic

import (
	"strings"

	"github.com/sells-group/docverify/internal/textnorm"
)

// idFields are the labeled identifiers that suppress the last-resort
// document number scan.
var idFields = []string{FieldIDNumber, FieldDriversLicense, FieldPassportNumber}

// Extract runs the default rules over text. The result is empty, never nil,
// when nothing matches.
func Extract(text string) map[string]string {
	return ExtractWith(defaultRules, text)
}

// ExtractWith evaluates rules line by line in order. A field keeps the
// value from its first match anywhere in the document.
func ExtractWith(rules []Rule, text string) map[string]string {
	out := make(map[string]string)
	lines := textnorm.Lines(text)

	for i, line := range lines {
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		for _, r := range rules {
			if _, ok := out[r.Field]; ok {
				continue
			}
			m := r.Pattern.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			v := strings.TrimSpace(m[1])
			if r.Post != nil {
				v = strings.TrimSpace(r.Post(v, next))
			}
			if v != "" {
				out[r.Field] = v
			}
		}
	}

	if !hasAny(out, idFields) {
		if tok := bareToken(text); tok != "" {
			out[FieldPossibleDocumentNumber] = tok
		}
	}
	return out
}

func hasAny(m map[string]string, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// bareToken returns the first alphanumeric token containing a digit that is
// long enough to be a document number.
func bareToken(text string) string {
	for _, tok := range reBareToken.FindAllString(text, -1) {
		if len(tok) >= minBareToken {
			return tok
		}
	}
	return ""
}
