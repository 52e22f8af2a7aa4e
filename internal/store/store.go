package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/quest"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no batch exists for a date.
var ErrNotFound = errors.New("no quests stored for date")

// Store persists quest batches. The daily table holds recent batches, the archive
// table holds rotated ones; together they are the title history.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

const questColumns = `
	date        TEXT NOT NULL,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	title_key   TEXT NOT NULL,
	murmur      TEXT NOT NULL,
	quest       TEXT NOT NULL,
	worth       TEXT NOT NULL DEFAULT '[]',
	difficulty  TEXT NOT NULL,
	sources     TEXT NOT NULL DEFAULT '[]',
	run_id      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL`

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS daily_quests (` + questColumns + `,
			PRIMARY KEY (date, position)
		);
		CREATE INDEX IF NOT EXISTS idx_daily_title_key ON daily_quests(title_key);

		CREATE TABLE IF NOT EXISTS archive_quests (` + questColumns + `,
			archived_at DATETIME NOT NULL,
			PRIMARY KEY (date, position)
		);
		CREATE INDEX IF NOT EXISTS idx_archive_title_key ON archive_quests(title_key);

		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			date        TEXT NOT NULL,
			started_at  DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			status      TEXT NOT NULL,
			rounds      INTEGER NOT NULL DEFAULT 0,
			attempts    INTEGER NOT NULL DEFAULT 0,
			error       TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(date);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

// SaveBatch replaces everything stored for date with ideas, in order.
func (s *Store) SaveBatch(ctx context.Context, date, runID string, ideas []quest.Idea) error {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{TableDaily, TableArchive} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE date = ?", date); err != nil { //nolint:gosec
			return fmt.Errorf("clearing %s for %s: %w", table, date, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_quests (date, position, title, title_key, murmur, quest, worth, difficulty, sources, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, idea := range ideas {
		worth, err := json.Marshal(idea.Worth)
		if err != nil {
			return fmt.Errorf("encoding worth for %q: %w", idea.Title, err)
		}
		sources, err := json.Marshal(nonNilSources(idea.Sources))
		if err != nil {
			return fmt.Errorf("encoding sources for %q: %w", idea.Title, err)
		}
		_, err = stmt.ExecContext(ctx, date, i, idea.Title, idea.Key(), idea.Murmur, idea.Quest,
			string(worth), string(idea.Difficulty), string(sources), runID, now)
		if err != nil {
			return fmt.Errorf("inserting quest %d for %s: %w", i, date, err)
		}
	}

	return tx.Commit()
}

// GetBatch returns the ideas stored for date, from either table.
func (s *Store) GetBatch(ctx context.Context, date string) ([]quest.Idea, error) {
	for _, table := range []string{TableDaily, TableArchive} {
		ideas, err := s.queryBatch(ctx, table, date)
		if err != nil {
			return nil, err
		}
		if len(ideas) > 0 {
			return ideas, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
}

func (s *Store) queryBatch(ctx context.Context, table, date string) ([]quest.Idea, error) {
	rows, err := s.readDB.QueryContext(ctx,
		"SELECT title, murmur, quest, worth, difficulty, sources FROM "+table+" WHERE date = ? ORDER BY position", //nolint:gosec
		date)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var ideas []quest.Idea
	for rows.Next() {
		var (
			idea            quest.Idea
			difficulty      string
			worth, srcsJSON string
		)
		if err := rows.Scan(&idea.Title, &idea.Murmur, &idea.Quest, &worth, &difficulty, &srcsJSON); err != nil {
			return nil, fmt.Errorf("scanning quest: %w", err)
		}
		if err := json.Unmarshal([]byte(worth), &idea.Worth); err != nil {
			return nil, fmt.Errorf("decoding worth for %q: %w", idea.Title, err)
		}
		if err := json.Unmarshal([]byte(srcsJSON), &idea.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources for %q: %w", idea.Title, err)
		}
		if len(idea.Sources) == 0 {
			idea.Sources = nil
		}
		idea.Difficulty = quest.Difficulty(difficulty)
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// HasBatch reports whether anything is stored for date.
func (s *Store) HasBatch(ctx context.Context, date string) (bool, error) {
	var n int
	err := s.readDB.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM daily_quests WHERE date = ?) +
		       (SELECT COUNT(*) FROM archive_quests WHERE date = ?)
	`, date, date).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking batch for %s: %w", date, err)
	}
	return n > 0, nil
}

// HistoryTitles returns every stored title from both tables, skipping excludeDate
// so that regenerating a date does not collide with its own previous batch.
func (s *Store) HistoryTitles(ctx context.Context, excludeDate string) ([]string, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT title FROM daily_quests WHERE date <> ?
		UNION ALL
		SELECT title FROM archive_quests WHERE date <> ?
	`, excludeDate, excludeDate)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning history title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// ArchiveBefore moves daily rows dated before cutoff (YYYY-MM-DD) into the archive.
func (s *Store) ArchiveBefore(ctx context.Context, cutoff string) (int64, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO archive_quests
			(date, position, title, title_key, murmur, quest, worth, difficulty, sources, run_id, created_at, archived_at)
		SELECT date, position, title, title_key, murmur, quest, worth, difficulty, sources, run_id, created_at, ?
		FROM daily_quests WHERE date < ?
	`, time.Now().UTC(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("copying to archive: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM daily_quests WHERE date < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("clearing archived rows: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaLastArchive, cutoff)
	if err != nil {
		return 0, fmt.Errorf("recording archive cutoff: %w", err)
	}
	return moved, tx.Commit()
}

func (s *Store) meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.readDB.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading meta %s: %w", key, err)
	}
	return v, nil
}

// LatestDate returns the most recent date with a stored batch.
func (s *Store) LatestDate(ctx context.Context) (string, error) {
	var date sql.NullString
	err := s.readDB.QueryRowContext(ctx, `
		SELECT MAX(date) FROM (
			SELECT date FROM daily_quests
			UNION ALL
			SELECT date FROM archive_quests
		)
	`).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("querying latest date: %w", err)
	}
	if !date.Valid {
		return "", ErrNotFound
	}
	return date.String, nil
}

// RecordRun stores the outcome of a pipeline run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO runs (id, date, started_at, finished_at, status, rounds, attempts, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			status = excluded.status,
			rounds = excluded.rounds,
			attempts = excluded.attempts,
			error = excluded.error
	`, r.ID, r.Date, r.StartedAt, r.FinishedAt, r.Status, r.Rounds, r.Attempts, r.Error)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// LastRun returns the most recently started run for date.
func (s *Store) LastRun(ctx context.Context, date string) (Run, error) {
	var r Run
	err := s.readDB.QueryRowContext(ctx, `
		SELECT id, date, started_at, finished_at, status, rounds, attempts, error
		FROM runs WHERE date = ? ORDER BY started_at DESC LIMIT 1
	`, date).Scan(&r.ID, &r.Date, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Rounds, &r.Attempts, &r.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying last run: %w", err)
	}
	return r, nil
}

// Stats summarizes the store. dbPath is used for the on-disk size.
func (s *Store) Stats(ctx context.Context, dbPath string) (Stats, error) {
	var st Stats
	err := s.readDB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM daily_quests),
			(SELECT COUNT(*) FROM archive_quests),
			(SELECT COUNT(DISTINCT date) FROM (
				SELECT date FROM daily_quests UNION SELECT date FROM archive_quests
			))
	`).Scan(&st.DailyCount, &st.ArchiveCount, &st.Dates)
	if err != nil {
		return st, fmt.Errorf("counting quests: %w", err)
	}

	latest, err := s.LatestDate(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return st, err
	}
	st.LatestDate = latest

	if st.LastArchiveCutoff, err = s.meta(ctx, metaLastArchive); err != nil {
		return st, err
	}

	if fi, err := os.Stat(dbPath); err == nil {
		st.SizeBytes = fi.Size()
	}
	return st, nil
}

func nonNilSources(s []quest.Source) []quest.Source {
	if s == nil {
		return []quest.Source{}
	}
	return s
}
