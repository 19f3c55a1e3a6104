package verify

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText strips combining diacritics from OCR output so that labels
// and names read from Romanian documents (ă, â, î, ș, ț) match their ASCII
// forms. The input is returned unchanged if the transform fails.
func NormalizeText(text string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, text)
	if err != nil {
		return text
	}
	return folded
}
