package evaluation

import "strings"

// Score holds the error rates of one reference/hypothesis pair.
type Score struct {
	WER float64 `json:"wer" yaml:"wer"`
	CER float64 `json:"cer" yaml:"cer"`
}

// Alignment is the raw result of aligning two token sequences.
type Alignment struct {
	Distance int `json:"distance" yaml:"distance"`
	RefLen   int `json:"ref_len" yaml:"ref_len"`
	HypLen   int `json:"hyp_len" yaml:"hyp_len"`
}

// Rate is the error rate per reference token. An empty reference yields
// the hypothesis length, so "" against "" is 0 and "" against "a b" is 2.
func (a Alignment) Rate() float64 {
	if a.RefLen == 0 {
		return float64(a.HypLen)
	}
	return float64(a.Distance) / float64(a.RefLen)
}

// Measurement carries word and character alignments for one pair.
type Measurement struct {
	Words Alignment `json:"words" yaml:"words"`
	Chars Alignment `json:"chars" yaml:"chars"`
}

// Score converts the alignments into error rates.
func (m Measurement) Score() Score {
	return Score{WER: m.Words.Rate(), CER: m.Chars.Rate()}
}

// Measure aligns already normalized texts at word and character level.
func Measure(reference, hypothesis string) Measurement {
	return Measurement{
		Words: align(words(reference), words(hypothesis)),
		Chars: align([]rune(reference), []rune(hypothesis)),
	}
}

// ScoreTexts computes WER and CER of normalized reference and hypothesis.
func ScoreTexts(reference, hypothesis string) Score {
	return Measure(reference, hypothesis).Score()
}

// WordErrorRate is the word-level edit distance over reference word count.
func WordErrorRate(reference, hypothesis string) float64 {
	return align(words(reference), words(hypothesis)).Rate()
}

// CharErrorRate is the character-level edit distance over reference length.
// Spaces count as characters.
func CharErrorRate(reference, hypothesis string) float64 {
	return align([]rune(reference), []rune(hypothesis)).Rate()
}

func words(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, " ")
}

func align[T comparable](ref, hyp []T) Alignment {
	return Alignment{
		Distance: editDistance(ref, hyp),
		RefLen:   len(ref),
		HypLen:   len(hyp),
	}
}

// editDistance is the Levenshtein distance with unit costs for
// substitution, insertion and deletion. Only two DP rows are kept.
func editDistance[T comparable](ref, hyp []T) int {
	if len(ref) == 0 {
		return len(hyp)
	}
	if len(hyp) == 0 {
		return len(ref)
	}

	prev := make([]int, len(hyp)+1)
	curr := make([]int, len(hyp)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ref); i++ {
		curr[0] = i
		for j := 1; j <= len(hyp); j++ {
			cost := 1
			if ref[i-1] == hyp[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution or match
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(hyp)]
}
