// Package modelcache keeps a local history of training runs in a SQLite
// database, so `bpegpu cache list`/`bpegpu cache show` can answer "what did
// I train last week" without re-reading every model file on disk. This is a
// supplemental feature (SPEC_FULL.md §5) with no teacher equivalent; its
// shape — open-or-create, a single runs table, prepared statements per
// query — follows how the pack's other CLI examples wrap modernc.org/sqlite
// for small local caches.
package modelcache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one recorded training run.
type Run struct {
	ID              string
	CorpusPath      string
	CorpusHash      string
	TargetVocabSize int
	FinalVocabSize  int
	MergeCount      int
	TrainedAt       time.Time
	ModelPath       string
}

// Cache wraps a SQLite-backed run history database.
type Cache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                text PRIMARY KEY,
	corpus_path       text NOT NULL,
	corpus_hash       text NOT NULL,
	target_vocab_size integer NOT NULL,
	final_vocab_size  integer NOT NULL,
	merge_count       integer NOT NULL,
	trained_at        text NOT NULL,
	model_path        text NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_corpus_hash_idx ON runs(corpus_hash);
`

// Open opens (creating if necessary) the SQLite cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("modelcache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("modelcache: create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }

// Record inserts a new run, assigning it a fresh run id.
func (c *Cache) Record(corpusPath, corpusHash string, targetVocabSize, finalVocabSize, mergeCount int, modelPath string) (Run, error) {
	run := Run{
		ID:              uuid.NewString(),
		CorpusPath:      corpusPath,
		CorpusHash:      corpusHash,
		TargetVocabSize: targetVocabSize,
		FinalVocabSize:  finalVocabSize,
		MergeCount:      mergeCount,
		TrainedAt:       time.Now().UTC(),
		ModelPath:       modelPath,
	}
	_, err := c.db.Exec(
		`INSERT INTO runs (id, corpus_path, corpus_hash, target_vocab_size, final_vocab_size, merge_count, trained_at, model_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CorpusPath, run.CorpusHash, run.TargetVocabSize, run.FinalVocabSize, run.MergeCount,
		run.TrainedAt.Format(time.RFC3339), run.ModelPath,
	)
	if err != nil {
		return Run{}, fmt.Errorf("modelcache: record run: %w", err)
	}
	return run, nil
}

// List returns every recorded run, most recent first.
func (c *Cache) List() ([]Run, error) {
	rows, err := c.db.Query(`SELECT id, corpus_path, corpus_hash, target_vocab_size, final_vocab_size, merge_count, trained_at, model_path FROM runs ORDER BY trained_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("modelcache: list: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// FindByCorpusHash returns every run trained from a corpus with the given
// hash, most recent first — used to answer "have I already trained this
// corpus at this target size".
func (c *Cache) FindByCorpusHash(hash string) ([]Run, error) {
	rows, err := c.db.Query(
		`SELECT id, corpus_path, corpus_hash, target_vocab_size, final_vocab_size, merge_count, trained_at, model_path
		 FROM runs WHERE corpus_hash = ? ORDER BY trained_at DESC, rowid DESC`, hash)
	if err != nil {
		return nil, fmt.Errorf("modelcache: find by corpus hash: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Get returns a single run by id.
func (c *Cache) Get(id string) (Run, error) {
	row := c.db.QueryRow(
		`SELECT id, corpus_path, corpus_hash, target_vocab_size, final_vocab_size, merge_count, trained_at, model_path
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var trainedAt string
	if err := s.Scan(&run.ID, &run.CorpusPath, &run.CorpusHash, &run.TargetVocabSize, &run.FinalVocabSize, &run.MergeCount, &trainedAt, &run.ModelPath); err != nil {
		return Run{}, fmt.Errorf("modelcache: scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339, trainedAt)
	if err != nil {
		return Run{}, fmt.Errorf("modelcache: parse trained_at %q: %w", trainedAt, err)
	}
	run.TrainedAt = t
	return run, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
