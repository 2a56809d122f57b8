// Package store keeps a SQLite history of evaluation runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/maastricht-university/asr-eval/evaluation"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Run is one persisted evaluation.
type Run struct {
	ID        string
	Backend   string
	Source    string // predictions file the run was computed from
	CreatedAt time.Time
	Scores    []evaluation.UtteranceScore
	Stats     []evaluation.AggregateStat
}

// RunSummary is a listing entry. Overall rates are invalid when the
// overall dimension was not computed for the run.
type RunSummary struct {
	ID         string
	Backend    string
	Source     string
	CreatedAt  time.Time
	Utterances int
	MeanWER    sql.NullFloat64
	MeanCER    sql.NullFloat64
}

type Store struct {
	db    *sql.DB
	log   logrus.FieldLogger
	clock func() time.Time
}

// fileURI builds the SQLite URI for path with '?' and '#' escaped.
func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
	}
	return u.String(), nil
}

// Open creates or opens the database at path.
func Open(ctx context.Context, path string, log logrus.FieldLogger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn, err := fileURI(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	log.WithField("path", path).Debug("results store opened")
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    backend TEXT NOT NULL,
    source TEXT,
    utterances INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS utterance_scores (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    speaker_id TEXT NOT NULL,
    is_common INTEGER NOT NULL,
    wer REAL NOT NULL,
    cer REAL NOT NULL,
    PRIMARY KEY(run_id, position),
    FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS aggregates (
    run_id TEXT NOT NULL,
    dimension TEXT NOT NULL,
    group_value TEXT NOT NULL,
    position INTEGER NOT NULL,
    count INTEGER NOT NULL,
    mean_wer REAL NOT NULL,
    mean_cer REAL NOT NULL,
    PRIMARY KEY(run_id, dimension, group_value),
    FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_runs_backend_created ON runs(backend, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes a run with its scores and aggregates in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) (err error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs(run_id, backend, source, utterances, created_at) VALUES(?, ?, ?, ?, ?)`,
		run.ID, run.Backend, run.Source, len(run.Scores), run.CreatedAt.UTC().UnixMilli()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, sc := range run.Scores {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO utterance_scores(run_id, position, speaker_id, is_common, wer, cer) VALUES(?, ?, ?, ?, ?, ?)`,
			run.ID, i, sc.SpeakerID, sc.IsCommon, sc.WER, sc.CER); err != nil {
			return fmt.Errorf("insert score %d: %w", i, err)
		}
	}

	for i, st := range run.Stats {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO aggregates(run_id, dimension, group_value, position, count, mean_wer, mean_cer) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			run.ID, string(st.Group.Dimension), st.Group.Value, i, st.Count, st.MeanWER, st.MeanCER); err != nil {
			return fmt.Errorf("insert aggregate %s/%s: %w", st.Group.Dimension, st.Group.Value, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"run_id": run.ID, "backend": run.Backend}).Debug("run saved")
	return nil
}

// ListRuns returns the most recent runs first. An empty backend lists all.
func (s *Store) ListRuns(ctx context.Context, backend string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT r.run_id, r.backend, r.source, r.utterances, r.created_at, a.mean_wer, a.mean_cer
FROM runs r
LEFT JOIN aggregates a ON a.run_id = r.run_id AND a.dimension = 'overall'
WHERE ? = '' OR r.backend = ?
ORDER BY r.created_at DESC, r.run_id
LIMIT ?`, backend, backend, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r       RunSummary
			source  sql.NullString
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Backend, &source, &r.Utterances, &created, &r.MeanWER, &r.MeanCER); err != nil {
			return nil, err
		}
		r.Source = source.String
		r.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunStats returns the aggregates of one run in report order.
func (s *Store) RunStats(ctx context.Context, runID string) ([]evaluation.AggregateStat, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT dimension, group_value, count, mean_wer, mean_cer
FROM aggregates WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []evaluation.AggregateStat
	for rows.Next() {
		var (
			st  evaluation.AggregateStat
			dim string
		)
		if err := rows.Scan(&dim, &st.Group.Value, &st.Count, &st.MeanWER, &st.MeanCER); err != nil {
			return nil, err
		}
		st.Group.Dimension = evaluation.Dimension(dim)
		out = append(out, st)
	}
	return out, rows.Err()
}

// Flatten lists the stats of every computed dimension in report order.
func Flatten(agg *evaluation.Aggregation) []evaluation.AggregateStat {
	var out []evaluation.AggregateStat
	for _, dim := range agg.Dimensions() {
		out = append(out, agg.Stats(dim)...)
	}
	return out
}
