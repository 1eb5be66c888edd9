package speech

import (
	"strings"
	"unicode"
)

// Unit is a single speakable word with its location in the source
// text. Offsets are byte positions so the UI can restyle the word in
// place.
type Unit struct {
	Text  string
	Start int // offset of the first byte
	End   int // offset one past the last byte
}

// Tokenize splits text into speakable units on runs of whitespace.
// Empty results are discarded, so whitespace-only input yields an
// empty sequence. Splitting is deterministic and order preserving:
// tokenizing the same text always yields the same units.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Split is Tokenize with byte offsets into the source text. The unit
// texts always agree with Tokenize(text).
func Split(text string) []Unit {
	units := make([]Unit, 0, len(text)/6)
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				units = append(units, Unit{Text: text[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		units = append(units, Unit{Text: text[start:], Start: start, End: len(text)})
	}
	return units
}
