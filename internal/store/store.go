package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/valpere/slovnyk/internal"
	"github.com/valpere/slovnyk/internal/finalize"
	"github.com/valpere/slovnyk/internal/textsim"
)

// Store is the lexicon database: every accepted entry of every imported
// dictionary, one row per word and target language.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		word TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		prefix TEXT NOT NULL DEFAULT '',
		pos TEXT NOT NULL DEFAULT '',
		definition_en TEXT NOT NULL DEFAULT '',
		example_en TEXT NOT NULL DEFAULT '',
		word_target TEXT NOT NULL DEFAULT '',
		definition_target TEXT NOT NULL DEFAULT '',
		example_target TEXT NOT NULL DEFAULT '',
		rarity INTEGER NOT NULL DEFAULT 0,
		confidence REAL NOT NULL DEFAULT 0,
		score REAL NOT NULL DEFAULT 0,
		collected_at TEXT NOT NULL,
		embedding_definition TEXT,
		embedding_example TEXT,
		run_id TEXT,
		updated_at TEXT NOT NULL,
		UNIQUE(word, target_lang)
	);

	-- runs records every imported dictionary artifact
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		target_lang TEXT NOT NULL,
		mode TEXT NOT NULL,
		model TEXT NOT NULL,
		artifact TEXT NOT NULL,
		total_entries INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_lang ON entries(target_lang, word);
	CREATE INDEX IF NOT EXISTS idx_entries_prefix ON entries(target_lang, prefix);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Entry is a stored dictionary entry.
type Entry struct {
	ID    string
	RunID string
	internal.DictionaryEntry
	UpdatedAt time.Time
}

// Upsert stores e unless a row for the same word and language already has
// an equal or higher score. It reports whether the row was written.
func (s *Store) Upsert(ctx context.Context, e internal.DictionaryEntry, runID string) (bool, error) {
	return upsert(ctx, s.db, s.newID(), e, runID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, id string, e internal.DictionaryEntry, runID string) (bool, error) {
	embDef, err := encodeVector(e.EmbeddingDefinition)
	if err != nil {
		return false, err
	}
	embEx, err := encodeVector(e.EmbeddingExample)
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO entries (id, word, target_lang, prefix, pos, definition_en, example_en,
			word_target, definition_target, example_target, rarity, confidence, score,
			collected_at, embedding_definition, embedding_example, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(word, target_lang) DO UPDATE SET
			prefix = excluded.prefix,
			pos = excluded.pos,
			definition_en = excluded.definition_en,
			example_en = excluded.example_en,
			word_target = excluded.word_target,
			definition_target = excluded.definition_target,
			example_target = excluded.example_target,
			rarity = excluded.rarity,
			confidence = excluded.confidence,
			score = excluded.score,
			collected_at = excluded.collected_at,
			embedding_definition = excluded.embedding_definition,
			embedding_example = excluded.embedding_example,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at
		WHERE excluded.score > entries.score`,
		id, wordKey(e.Word), e.TargetLang, e.Prefix, e.POS, e.DefinitionEn, e.ExampleEn,
		e.WordTarget, e.DefinitionTarget, e.ExampleTarget, e.Rarity, e.Confidence, e.Score,
		formatTime(e.CollectedAt), embDef, embEx, runID, formatTime(time.Now()))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Written int
	Skipped int
}

// ImportArtifact stores every entry of a finalized dictionary and records
// the run in a single transaction.
func (s *Store) ImportArtifact(ctx context.Context, a *finalize.Artifact, path string) (*ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	runID := a.Metadata.RunID
	if runID == "" {
		runID = s.newID()
	}

	res := &ImportResult{}
	for _, e := range a.Entries {
		written, err := upsert(ctx, tx, s.newID(), e, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to import %q: %w", e.Word, err)
		}
		if written {
			res.Written++
		} else {
			res.Skipped++
		}
	}

	if err := recordRun(ctx, tx, runID, a.Metadata, path); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// RecordRun stores the metadata of a finalized run.
func (s *Store) RecordRun(ctx context.Context, m finalize.Metadata, path string) error {
	id := m.RunID
	if id == "" {
		id = s.newID()
	}
	return recordRun(ctx, s.db, id, m, path)
}

func recordRun(ctx context.Context, db execer, id string, m finalize.Metadata, path string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, target_lang, mode, model, artifact, total_entries, created_at, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.TargetLanguage, m.Mode, m.ModelUsed, path, m.TotalEntries, formatTime(m.CreatedAt), formatTime(time.Now()))
	return err
}

const entryColumns = `id, word, target_lang, prefix, pos, definition_en, example_en,
	word_target, definition_target, example_target, rarity, confidence, score,
	collected_at, embedding_definition, embedding_example, run_id, updated_at`

// Lookup returns the entry for word in lang.
func (s *Store) Lookup(ctx context.Context, word, lang string) (*Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE word = ? AND target_lang = ?`,
		wordKey(word), lang)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// Match is a fuzzy lookup hit.
type Match struct {
	Entry      *Entry
	Similarity float64
}

// FuzzyLookup returns entries in lang whose word has at least threshold
// similarity (0–1) to word, best first, at most limit of them.
func (s *Store) FuzzyLookup(ctx context.Context, word, lang string, threshold float64, limit int) ([]Match, error) {
	if threshold <= 0 {
		return nil, nil
	}
	normalized := wordKey(word)
	n := len([]rune(normalized))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE target_lang = ? ORDER BY word`, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if textsim.LengthBound(n, len([]rune(e.Word))) < threshold {
			continue
		}
		if score := textsim.Similarity(normalized, e.Word); score >= threshold {
			matches = append(matches, Match{Entry: e, Similarity: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// List returns entries ordered by word, optionally filtered by language
// (pass "" for every language) and capped at limit (0 for no cap).
func (s *Store) List(ctx context.Context, lang string, limit int) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	var args []any
	if lang != "" {
		query += ` WHERE target_lang = ?`
		args = append(args, lang)
	}
	query += ` ORDER BY target_lang, word`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LangStats summarises the entries of one language.
type LangStats struct {
	Lang     string
	Entries  int
	AvgScore float64
}

// Stats summarises the lexicon.
type Stats struct {
	TotalEntries int
	Runs         int
	Languages    []LangStats
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&stats.TotalEntries); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT target_lang, COUNT(*), COALESCE(AVG(score), 0) FROM entries GROUP BY target_lang ORDER BY target_lang`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ls LangStats
		if err := rows.Scan(&ls.Lang, &ls.Entries, &ls.AvgScore); err != nil {
			return nil, err
		}
		stats.Languages = append(stats.Languages, ls)
	}
	return stats, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var collectedAt, updatedAt string
	var embDef, embEx, runID sql.NullString
	err := row.Scan(&e.ID, &e.Word, &e.TargetLang, &e.Prefix, &e.POS, &e.DefinitionEn, &e.ExampleEn,
		&e.WordTarget, &e.DefinitionTarget, &e.ExampleTarget, &e.Rarity, &e.Confidence, &e.Score,
		&collectedAt, &embDef, &embEx, &runID, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.Length = len([]rune(e.Word))
	e.CollectedAt, _ = time.Parse(time.RFC3339Nano, collectedAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	e.RunID = runID.String
	if e.EmbeddingDefinition, err = decodeVector(embDef); err != nil {
		return nil, err
	}
	if e.EmbeddingExample, err = decodeVector(embEx); err != nil {
		return nil, err
	}
	return &e, nil
}

func wordKey(word string) string {
	return strings.ToLower(textsim.Normalize(word))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeVector(v []float32) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeVector(s sql.NullString) ([]float32, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, fmt.Errorf("corrupt embedding: %w", err)
	}
	return v, nil
}
