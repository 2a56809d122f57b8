package evaluation

import (
	"errors"
	"fmt"
)

// AggregateOptions controls which dimensions are computed.
type AggregateOptions struct {
	// Dimensions to compute. Empty means AllDimensions.
	Dimensions []Dimension
	// ExpectedSpeakers must each own at least one utterance; a listed
	// speaker without utterances fails the speaker dimension.
	ExpectedSpeakers []string
}

// Aggregation holds per-dimension statistics in report order.
type Aggregation struct {
	dims  []Dimension
	stats map[Dimension][]AggregateStat
	errs  map[Dimension]error
	index map[GroupKey]int
}

// Dimensions returns the requested dimensions in report order.
func (a *Aggregation) Dimensions() []Dimension { return a.dims }

// Stats returns the groups of dim in report order: speakers by first
// appearance, categories as common then personal.
func (a *Aggregation) Stats(dim Dimension) []AggregateStat { return a.stats[dim] }

// Err returns the failure recorded for dim, if any.
func (a *Aggregation) Err(dim Dimension) error { return a.errs[dim] }

// Get looks up one group.
func (a *Aggregation) Get(key GroupKey) (AggregateStat, bool) {
	i, ok := a.index[key]
	if !ok {
		return AggregateStat{}, false
	}
	return a.stats[key.Dimension][i], true
}

// Overall is a shortcut for the overall group.
func (a *Aggregation) Overall() (AggregateStat, bool) {
	return a.Get(GroupKey{Dimension: DimensionOverall, Value: GroupOverall})
}

// Aggregate folds scores into macro-averaged group statistics. Each group
// mean is the plain mean of its per-utterance rates, so every utterance
// weighs the same regardless of its length.
//
// A dimension with an empty group records an *EmptyGroupError and is left
// out of the result; the other dimensions are still computed. The returned
// error joins every dimension failure.
func Aggregate(scores []UtteranceScore, opts AggregateOptions) (*Aggregation, error) {
	dims := opts.Dimensions
	if len(dims) == 0 {
		dims = AllDimensions
	}

	agg := &Aggregation{
		stats: make(map[Dimension][]AggregateStat),
		errs:  make(map[Dimension]error),
		index: make(map[GroupKey]int),
	}

	var errs []error
	seen := make(map[Dimension]bool, len(dims))
	for _, dim := range orderDimensions(dims) {
		if seen[dim] {
			continue
		}
		seen[dim] = true
		agg.dims = append(agg.dims, dim)

		var (
			stats []AggregateStat
			err   error
		)
		switch dim {
		case DimensionOverall:
			stats, err = groupBy(scores, dim, []string{GroupOverall}, func(UtteranceScore) string { return GroupOverall })
		case DimensionSpeaker:
			stats, err = groupBy(scores, dim, speakerOrder(scores, opts.ExpectedSpeakers), func(s UtteranceScore) string { return s.SpeakerID })
		case DimensionCategory:
			stats, err = groupBy(scores, dim, []string{GroupCommon, GroupPersonal}, func(s UtteranceScore) string { return categoryOf(s.IsCommon) })
		default:
			err = fmt.Errorf("aggregate: unknown dimension %q", dim)
		}
		if err != nil {
			agg.errs[dim] = err
			errs = append(errs, err)
			continue
		}

		agg.stats[dim] = stats
		for i, s := range stats {
			agg.index[s.Group] = i
		}
	}

	return agg, errors.Join(errs...)
}

// orderDimensions puts known dimensions in report order, keeping unknown
// ones at the end so they surface as errors.
func orderDimensions(dims []Dimension) []Dimension {
	want := make(map[Dimension]bool, len(dims))
	for _, d := range dims {
		want[d] = true
	}
	out := make([]Dimension, 0, len(dims))
	for _, d := range AllDimensions {
		if want[d] {
			out = append(out, d)
			delete(want, d)
		}
	}
	for _, d := range dims {
		if want[d] {
			out = append(out, d)
		}
	}
	return out
}

// speakerOrder lists speakers by first appearance, followed by expected
// speakers that never appear.
func speakerOrder(scores []UtteranceScore, expected []string) []string {
	seen := make(map[string]bool)
	var order []string
	for _, s := range scores {
		if !seen[s.SpeakerID] {
			seen[s.SpeakerID] = true
			order = append(order, s.SpeakerID)
		}
	}
	for _, id := range expected {
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	return order
}

func groupBy(scores []UtteranceScore, dim Dimension, keys []string, keyOf func(UtteranceScore) string) ([]AggregateStat, error) {
	if len(scores) == 0 {
		return nil, &EmptyGroupError{Dimension: dim}
	}

	type acc struct {
		n        int
		wer, cer float64
	}
	sums := make(map[string]*acc, len(keys))
	for _, k := range keys {
		sums[k] = &acc{}
	}
	for _, s := range scores {
		a := sums[keyOf(s)]
		a.n++
		a.wer += s.WER
		a.cer += s.CER
	}

	stats := make([]AggregateStat, 0, len(keys))
	for _, k := range keys {
		a := sums[k]
		if a.n == 0 {
			return nil, &EmptyGroupError{Dimension: dim, Group: k}
		}
		stats = append(stats, AggregateStat{
			Group:   GroupKey{Dimension: dim, Value: k},
			Count:   a.n,
			MeanWER: a.wer / float64(a.n),
			MeanCER: a.cer / float64(a.n),
		})
	}
	return stats, nil
}
