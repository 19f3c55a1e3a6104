package verify

import "regexp"

// CandidateStrategy produces identifier candidates from OCR text, in the
// order they should be tried. Strategies are pure and may return candidates
// that fail validation; filtering is the combinator's job.
type CandidateStrategy func(text string) []string

const identifierLength = 13

var (
	exactPattern = regexp.MustCompile(`\b\d{13}\b`)

	// OCR frequently misreads the "CNP" label; the alternation covers the
	// misreadings seen in practice.
	labelPattern = regexp.MustCompile(`(?i)(?:CNP|CRP|CNF|CUP|CNR)[:\s.\-]*([0-9\s.\-]+)`)

	digitRunPattern = regexp.MustCompile(`\d+`)
	nonDigitPattern = regexp.MustCompile(`[^\d]`)
)

// ExactMatches returns every standalone 13-digit run in the text.
func ExactMatches(text string) []string {
	return exactPattern.FindAllString(text, -1)
}

// LabelledMatches looks for an identifier label and takes the first 13
// digits of whatever digit soup follows it, tolerating spaces, dots and
// dashes the OCR may have inserted.
func LabelledMatches(text string) []string {
	var candidates []string
	for _, match := range labelPattern.FindAllStringSubmatch(text, -1) {
		digits := nonDigitPattern.ReplaceAllString(match[1], "")
		if len(digits) >= identifierLength {
			candidates = append(candidates, digits[:identifierLength])
		}
	}
	return candidates
}

// WindowMatches concatenates every digit run in the text and slides a
// 13-wide window over the result. The widest net: it recovers identifiers
// the OCR split across line breaks or merged with other numbers.
func WindowMatches(text string) []string {
	var joined []byte
	for _, run := range digitRunPattern.FindAllString(text, -1) {
		joined = append(joined, run...)
	}

	var candidates []string
	for i := 0; i+identifierLength <= len(joined); i++ {
		candidates = append(candidates, string(joined[i:i+identifierLength]))
	}
	return candidates
}

// FirstValid runs the strategies in order and returns the first candidate
// that passes validation. Later strategies are not consulted once an earlier
// one produced a valid candidate.
func FirstValid(text string, validate func(string) bool, strategies ...CandidateStrategy) (string, bool) {
	for _, strategy := range strategies {
		for _, candidate := range strategy(text) {
			if validate(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}
