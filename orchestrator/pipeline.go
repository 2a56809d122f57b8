package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/maastricht-university/asr-eval/clients"
	cfg "github.com/maastricht-university/asr-eval/config"
	"github.com/maastricht-university/asr-eval/dataset"
	"github.com/maastricht-university/asr-eval/evaluation"
	"github.com/maastricht-university/asr-eval/store"
	"github.com/sirupsen/logrus"
)

type Pipeline struct {
	cfg  *cfg.Root
	http *clients.HTTP
	log  logrus.FieldLogger
	out  io.Writer

	// NewTranscriber builds the backend used by Transcribe.
	NewTranscriber func(name string, c cfg.Backend) Transcriber
}

// NewPipeline wires the HTTP collaborators. Reports are written to out.
func NewPipeline(c *cfg.Root, log logrus.FieldLogger, out io.Writer) *Pipeline {
	h := clients.NewHTTP(cfg.DurSeconds(c.Services.TimeoutSeconds))
	return &Pipeline{
		cfg:  c,
		http: h,
		log:  log,
		out:  out,
		NewTranscriber: func(name string, b cfg.Backend) Transcriber {
			return clients.NewBackend(name, b, h)
		},
	}
}

// Run executes preprocess, transcribe and evaluate for one backend.
func (p *Pipeline) Run(ctx context.Context, backend string, opts EvaluateOptions) (*Outcome, error) {
	if _, err := p.Preprocess(ctx); err != nil {
		return nil, err
	}
	if _, err := p.Transcribe(ctx, backend); err != nil {
		return nil, err
	}
	return p.Evaluate(ctx, backend, opts)
}

// Preprocess sends every raw recording listed in metadata.csv to the
// preprocessing service and writes metadata_processed.csv with the
// processed file name and sample rate added. Recordings that are missing
// or come back unavailable are dropped with a warning.
func (p *Pipeline) Preprocess(ctx context.Context) (StageStats, error) {
	stats := StageStats{Stage: "preprocess", Output: p.processedMetadataPath()}

	in, err := dataset.LoadCSV(p.metadataPath())
	if err != nil {
		return stats, err
	}
	if err := dataset.Require(in, "metadata", dataset.ColumnFileName); err != nil {
		return stats, err
	}

	out := extend(in, dataset.ColumnProcessedFileName, dataset.ColumnSampleRate)
	for i, row := range in.Rows {
		stats.Total++
		name := row[dataset.ColumnFileName]

		if err := checkAudio(p.rawAudioPath(name)); err != nil {
			if p.skip(stats.Stage, i+1, err) {
				stats.Skipped++
				continue
			}
			return stats, err
		}

		resp, err := p.http.Preprocess(ctx, p.cfg.Services.Preprocess.URL, clients.PreprocessReq{
			FileName:   name,
			SampleRate: p.cfg.Audio.SampleRate,
			TopDB:      p.cfg.Audio.TopDB,
			Peak:       p.cfg.Audio.Peak,
		})
		if errors.Is(err, clients.ErrUnavailable) {
			err = &evaluation.UnavailableInputError{Path: p.rawAudioPath(name), Reason: err.Error()}
		}
		if err != nil {
			if p.skip(stats.Stage, i+1, err) {
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("preprocess row %d: %w", i+1, err)
		}

		r := copyRow(row)
		r[dataset.ColumnProcessedFileName] = resp.ProcessedFileName
		r[dataset.ColumnSampleRate] = strconv.Itoa(resp.SampleRate)
		out.Rows = append(out.Rows, r)
		stats.Written++
		p.log.WithFields(logrus.Fields{"row": i + 1, "file": resp.ProcessedFileName}).Debug("preprocessed")
	}

	if err := dataset.WriteCSV(stats.Output, out); err != nil {
		return stats, err
	}
	p.log.WithFields(logrus.Fields{
		"written": stats.Written,
		"skipped": stats.Skipped,
		"output":  stats.Output,
	}).Info("processed metadata written")
	return stats, nil
}

// Transcribe runs backend over every processed recording and writes
// <backend>_predictions.csv with a <backend>_pred column.
func (p *Pipeline) Transcribe(ctx context.Context, backend string) (StageStats, error) {
	stats := StageStats{Stage: "transcribe", Output: p.PredictionsPath(backend)}

	bcfg, err := p.cfg.Backend(backend)
	if err != nil {
		return stats, err
	}
	in, err := dataset.LoadCSV(p.processedMetadataPath())
	if err != nil {
		return stats, err
	}
	if err := dataset.Require(in, "preprocess", dataset.ColumnProcessedFileName); err != nil {
		return stats, err
	}

	log := p.log.WithField("backend", backend)
	t := p.NewTranscriber(backend, bcfg)
	if err := t.Init(ctx); err != nil {
		return stats, fmt.Errorf("init backend %s: %w", backend, err)
	}
	defer func() {
		if cerr := t.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.WithError(cerr).Warn("backend close failed")
		}
	}()

	col := dataset.PredictionColumn(backend)
	out := extend(in, col)
	for i, row := range in.Rows {
		stats.Total++
		path := p.processedAudioPath(row[dataset.ColumnProcessedFileName])

		if err := checkAudio(path); err != nil {
			if p.skip(stats.Stage, i+1, err) {
				stats.Skipped++
				continue
			}
			return stats, err
		}

		text, err := t.Transcribe(ctx, path)
		if errors.Is(err, clients.ErrUnavailable) {
			err = &evaluation.UnavailableInputError{Path: path, Reason: err.Error()}
		}
		if err != nil {
			if p.skip(stats.Stage, i+1, err) {
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("transcribe row %d: %w", i+1, err)
		}

		r := copyRow(row)
		r[col] = text
		out.Rows = append(out.Rows, r)
		stats.Written++
		log.WithFields(logrus.Fields{"row": i + 1, "file": row[dataset.ColumnProcessedFileName]}).Info(text)
	}

	if err := dataset.WriteCSV(stats.Output, out); err != nil {
		return stats, err
	}
	log.WithFields(logrus.Fields{
		"written": stats.Written,
		"skipped": stats.Skipped,
		"output":  stats.Output,
	}).Info("predictions written")
	return stats, nil
}

// Evaluate scores the predictions of backend, renders the report and
// persists the run. A missing column aborts before scoring. When a
// dimension has an empty group the report is still rendered and
// persisted, and the aggregation error is returned.
func (p *Pipeline) Evaluate(ctx context.Context, backend string, opts EvaluateOptions) (*Outcome, error) {
	switch opts.Format {
	case "", FormatText, FormatYAML, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported format %q: must be text, yaml or json", opts.Format)
	}

	source := opts.Input
	if source == "" {
		source = p.PredictionsPath(backend)
	}
	table, err := dataset.LoadCSV(source)
	if err != nil {
		return nil, err
	}
	records, err := dataset.Records(table, dataset.PredictionColumn(backend), "transcribe --backend "+backend)
	if err != nil {
		return nil, err
	}

	dims := opts.Dimensions
	if len(dims) == 0 {
		if dims, err = p.cfg.Evaluation.ParseDimensions(); err != nil {
			return nil, err
		}
	}
	expected := opts.ExpectedSpeakers
	if len(expected) == 0 {
		expected = p.cfg.Evaluation.ExpectedSpeakers
	}

	engine := &evaluation.Engine{
		Normalizer: evaluation.Normalizer{ComposeUnicode: p.cfg.Evaluation.ComposeUnicode},
		Workers:    p.cfg.Evaluation.Workers,
	}
	res, aggErr := engine.Evaluate(records, evaluation.AggregateOptions{
		Dimensions:       dims,
		ExpectedSpeakers: expected,
	})

	now := time.Now()
	outcome := &Outcome{
		RunID:  newRunID(now),
		Source: source,
		Report: evaluation.NewReport(backend, res.Aggregation),
		Result: res,
	}
	if err := p.render(opts.Format, outcome.Report); err != nil {
		return outcome, err
	}

	outcome.BundlePath, err = persist(p.cfg.Paths.Outputs, PersistBundle{
		RunID:       outcome.RunID,
		Backend:     backend,
		Source:      source,
		GeneratedAt: now,
		Report:      outcome.Report,
		Scores:      res.Scores,
	})
	if err != nil {
		return outcome, fmt.Errorf("persist run: %w", err)
	}

	if p.cfg.Store.Enabled {
		if err := p.save(ctx, store.Run{
			ID:        outcome.RunID,
			Backend:   backend,
			Source:    source,
			CreatedAt: now,
			Scores:    res.Scores,
			Stats:     store.Flatten(res.Aggregation),
		}); err != nil {
			return outcome, err
		}
	}

	p.log.WithFields(logrus.Fields{
		"backend":    backend,
		"run_id":     outcome.RunID,
		"utterances": len(records),
		"bundle":     outcome.BundlePath,
	}).Info("evaluation finished")
	return outcome, aggErr
}

func (p *Pipeline) render(format string, r evaluation.Report) error {
	switch format {
	case "", FormatText:
		return evaluation.RenderText(p.out, r)
	case FormatYAML:
		return evaluation.RenderYAML(p.out, r)
	case FormatJSON:
		return evaluation.RenderJSON(p.out, r)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func (p *Pipeline) save(ctx context.Context, run store.Run) error {
	s, err := store.Open(ctx, p.cfg.Store.Path, p.log)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	defer s.Close()
	if err := s.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}
