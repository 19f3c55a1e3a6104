// Package mrz parses the two-line machine readable zone printed on Romanian
// identity cards (36 characters per line, ICAO 9303 style).
package mrz

import (
	"strings"
)

const (
	lineLength = 36
	filler     = '<'

	// Minimum share of a line that must be MRZ characters before the line
	// is treated as an MRZ candidate. OCR output mixes MRZ lines with
	// regular document text, so the ratio filters the noise out.
	candidateRatio = 0.8
)

// Record holds the fields decoded from the two MRZ lines.
//
// Verified is a structural-format flag only: it reports that the lines look
// like a Romanian ID MRZ, not that any check digit was verified.
type Record struct {
	DocumentType   string
	CountryCode    string
	DocumentNumber string
	Surname        string
	GivenNames     string
	Nationality    string
	DateOfBirth    string
	Sex            string
	ExpiryDate     string
	PersonalNumber string
	Verified       bool

	// RawLines keeps the two source lines for diagnostics.
	RawLines string
}

// Parse extracts a Record from raw OCR text. It returns nil when fewer than
// two plausible MRZ lines are present or the lines are too short to slice.
// It never panics on malformed input.
func Parse(rawText string) *Record {
	lines := candidateLines(rawText)
	if len(lines) < 2 {
		return nil
	}

	// Order in the source text is trusted; no reordering logic.
	line1, line2 := lines[0], lines[1]

	record := &Record{
		DocumentType: line1[0:2],
		CountryCode:  line1[2:5],
		RawLines:     line1 + "\n" + line2,
	}

	// The name block is surname and given names separated by the first
	// double filler; single fillers inside a segment stand for spaces.
	nameParts := strings.SplitN(line1[5:], "<<", 2)
	record.Surname = cleanName(nameParts[0])
	if len(nameParts) > 1 {
		record.GivenNames = cleanName(nameParts[1])
	}

	record.DocumentNumber = strings.TrimRight(line2[0:9], string(filler))
	record.Nationality = line2[10:13]
	record.DateOfBirth = formatDate(line2[13:19])
	record.Sex = string(line2[20])
	record.ExpiryDate = formatDate(line2[21:27])
	record.PersonalNumber = line2[28:35]

	record.Verified = record.DocumentType == "ID" &&
		record.CountryCode == "ROU" &&
		len(line1) == lineLength &&
		len(line2) == lineLength

	return record
}

// candidateLines returns the normalized lines that plausibly belong to the
// machine readable zone, in source order.
func candidateLines(rawText string) []string {
	var candidates []string
	for _, line := range strings.FieldsFunc(strings.ToUpper(rawText), isLineBreak) {
		line = strings.TrimSpace(line)
		if len(line) < lineLength {
			continue
		}
		mrzChars := 0
		for i := 0; i < len(line); i++ {
			c := line[i]
			if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == filler {
				mrzChars++
			}
		}
		if float64(mrzChars)/float64(len(line)) > candidateRatio {
			candidates = append(candidates, line)
		}
	}
	return candidates
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

func cleanName(segment string) string {
	return strings.TrimSpace(strings.ReplaceAll(segment, string(filler), " "))
}

// formatDate converts a YYMMDD zone date to dd.mm.yyyy. Two-digit years
// above 50 are read as 1900s. This heuristic is deliberately independent
// from the CNP century rule: zone dates carry no gender-coded century
// signal, so the two derivations can disagree for the same person.
func formatDate(date string) string {
	if len(date) != 6 {
		return ""
	}
	year, month, day := date[0:2], date[2:4], date[4:6]

	century := "20"
	if year[0] > '5' || (year[0] == '5' && year[1] > '0') {
		century = "19"
	}
	return day + "." + month + "." + century + year
}
