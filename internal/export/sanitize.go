package export

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// sanitizeCaseRef reduces a case reference to a filesystem-safe token:
// accents stripped, anything outside [A-Za-z0-9-] collapsed to underscores.
func sanitizeCaseRef(caseRef string) string {
	flattened, _, err := transform.String(deaccent, caseRef)
	if err != nil {
		flattened = caseRef
	}

	var sb strings.Builder
	prevUnderscore := false
	for _, r := range flattened {
		switch {
		case unicode.IsLetter(r) && r < 0x80, unicode.IsDigit(r), r == '-':
			sb.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				sb.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	cleaned := strings.Trim(sb.String(), "_")
	if cleaned == "" {
		cleaned = "UNSPECIFIED"
	}
	return cleaned
}
