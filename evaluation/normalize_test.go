package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Merhaba Dünya", "merhaba dünya"},
		{"turkish upper", "merhaba DÜNYA!", "merhaba dünya"},
		{"apostrophe removed without space", "don't", "dont"},
		{"punctuation between words", "a - b", "a b"},
		{"whitespace runs", "  hello,\t  world \n", "hello world"},
		{"unicode punctuation", "«evet» — hayır…", "evet hayır"},
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"punctuation only", "?!.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Merhaba dünya",
		"  Bir,  iki;\tüç!  ",
		"don't STOP",
		"İstanbul'a gidiyorum.",
		"",
		"   ",
		"a b",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizerComposeUnicode(t *testing.T) {
	decomposed := "du\u0308nya"
	composed := "d\u00fcnya"

	assert.NotEqual(t, Normalize(composed), Normalize(decomposed))

	n := Normalizer{ComposeUnicode: true}
	assert.Equal(t, n.Normalize(composed), n.Normalize(decomposed))
	assert.Equal(t, composed, n.Normalize("DU\u0308NYA"))
}
