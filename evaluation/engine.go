package evaluation

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Engine scores utterance records and aggregates the results.
type Engine struct {
	Normalizer Normalizer
	// Workers bounds parallel scoring. Zero means GOMAXPROCS.
	Workers int
}

// Result is the outcome of one evaluation.
type Result struct {
	Scores      []UtteranceScore
	Aggregation *Aggregation
}

// ScoreRecord normalizes both texts of r and scores them.
func (e *Engine) ScoreRecord(r UtteranceRecord) UtteranceScore {
	s := ScoreTexts(e.Normalizer.Normalize(r.ReferenceText), e.Normalizer.Normalize(r.PredictedText))
	return UtteranceScore{
		SpeakerID: r.SpeakerID,
		IsCommon:  r.IsCommon,
		WER:       s.WER,
		CER:       s.CER,
	}
}

// ScoreRecords scores records in parallel. The result keeps input order.
func (e *Engine) ScoreRecords(records []UtteranceRecord) []UtteranceScore {
	scores := make([]UtteranceScore, len(records))

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range records {
		i := i
		g.Go(func() error {
			scores[i] = e.ScoreRecord(records[i])
			return nil
		})
	}
	_ = g.Wait()
	return scores
}

// Evaluate scores records and aggregates them. On aggregation failure the
// partial Result is returned along with the error.
func (e *Engine) Evaluate(records []UtteranceRecord, opts AggregateOptions) (*Result, error) {
	scores := e.ScoreRecords(records)
	agg, err := Aggregate(scores, opts)
	return &Result{Scores: scores, Aggregation: agg}, err
}
