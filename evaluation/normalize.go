package evaluation

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer canonicalizes transcripts before scoring.
//
// The pipeline is fixed: lower-case, drop punctuation, collapse whitespace,
// trim. ComposeUnicode adds an NFC pass in front of it.
type Normalizer struct {
	ComposeUnicode bool
}

// Normalize applies the default pipeline.
func Normalize(text string) string {
	return Normalizer{}.Normalize(text)
}

func (n Normalizer) Normalize(text string) string {
	if n.ComposeUnicode {
		text = norm.NFC.String(text)
	}
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, text)
	// Fields splits on any whitespace run and drops the ends, which covers
	// both the collapse and the trim step.
	return strings.Join(strings.Fields(text), " ")
}
