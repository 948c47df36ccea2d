// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists runs, their records, and their screening
// decisions to SQLite so successive searches can be compared.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ahzs645/saturationsearch/pkg/types"
)

const defaultDBPath = "results/saturation.db"

// Store manages the run database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the run database, creating the schema if it
// does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			strategy TEXT NOT NULL,
			segments INTEGER NOT NULL,
			records_fetched INTEGER,
			unique_records INTEGER,
			included INTEGER,
			excluded INTEGER,
			manual_review INTEGER,
			baseline_matched INTEGER,
			recall REAL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			source_id TEXT NOT NULL,
			doi TEXT,
			pmid TEXT,
			title TEXT,
			authors TEXT,
			year INTEGER,
			journal TEXT,
			abstract TEXT,
			language TEXT,
			provenance TEXT,
			previously_known INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, source_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_doi ON records(doi)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			source_id TEXT NOT NULL,
			included INTEGER NOT NULL,
			confidence REAL NOT NULL,
			theme TEXT,
			reasons TEXT,
			manual_review INTEGER NOT NULL,
			geographic_score REAL,
			location_matches INTEGER,
			quality_score REAL,
			PRIMARY KEY (run_id, source_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunSummary holds the final counts written when a run completes.
type RunSummary struct {
	RecordsFetched  int
	UniqueRecords   int
	Included        int
	Excluded        int
	ManualReview    int
	BaselineMatched int
	Recall          float64
}

// BeginRun registers a new run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, strategy string, segments int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, strategy, segments) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), strategy, segments)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run ID: %w", err)
	}
	return id, nil
}

// FinishRun records the run's final counts and completion time.
func (s *Store) FinishRun(ctx context.Context, runID int64, sum RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, records_fetched = ?, unique_records = ?,
			included = ?, excluded = ?, manual_review = ?, baseline_matched = ?, recall = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		sum.RecordsFetched, sum.UniqueRecords, sum.Included, sum.Excluded,
		sum.ManualReview, sum.BaselineMatched, sum.Recall, runID)
	if err != nil {
		return fmt.Errorf("updating run %d: %w", runID, err)
	}
	return nil
}

// SaveRecords persists the run's unique records in one transaction.
func (s *Store) SaveRecords(ctx context.Context, runID int64, records []types.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records
			(run_id, source_id, doi, pmid, title, authors, year, journal, abstract, language, provenance, previously_known)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		authorsJSON, _ := json.Marshal(r.Authors)
		_, err := stmt.ExecContext(ctx,
			runID, r.SourceID, r.DOI, r.PMID, r.Title, string(authorsJSON),
			r.Year, r.Journal, r.Abstract, r.Language, r.Provenance, r.PreviouslyKnown)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", r.SourceID, err)
		}
	}
	return tx.Commit()
}

// SaveDecisions persists the run's screening decisions in one transaction.
func (s *Store) SaveDecisions(ctx context.Context, runID int64, decisions []types.ScreeningDecision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO decisions
			(run_id, source_id, included, confidence, theme, reasons, manual_review, geographic_score, location_matches, quality_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range decisions {
		reasonsJSON, _ := json.Marshal(d.Reasons)
		_, err := stmt.ExecContext(ctx,
			runID, d.Record.SourceID, d.Included, d.Confidence, string(d.Theme),
			string(reasonsJSON), d.ManualReviewRequired,
			d.GeographicScore, d.LocationMatches, d.QualityScore)
		if err != nil {
			return fmt.Errorf("inserting decision for %s: %w", d.Record.SourceID, err)
		}
	}
	return tx.Commit()
}

// RunInfo is one row of run history.
type RunInfo struct {
	ID            int64
	StartedAt     string
	FinishedAt    string
	Strategy      string
	Segments      int
	UniqueRecords int
	Included      int
	ManualReview  int
	Recall        float64
}

// History returns the most recent runs, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), strategy, segments,
			COALESCE(unique_records, 0), COALESCE(included, 0),
			COALESCE(manual_review, 0), COALESCE(recall, 0)
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.StartedAt, &info.FinishedAt,
			&info.Strategy, &info.Segments, &info.UniqueRecords,
			&info.Included, &info.ManualReview, &info.Recall); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Records returns the stored records for one run.
func (s *Store) Records(ctx context.Context, runID int64) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, COALESCE(doi, ''), COALESCE(pmid, ''), COALESCE(title, ''),
			COALESCE(authors, '[]'), COALESCE(year, 0), COALESCE(journal, ''),
			COALESCE(abstract, ''), COALESCE(language, ''), COALESCE(provenance, ''),
			previously_known
		 FROM records WHERE run_id = ? ORDER BY source_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var r types.Record
		var authorsJSON string
		if err := rows.Scan(&r.SourceID, &r.DOI, &r.PMID, &r.Title, &authorsJSON,
			&r.Year, &r.Journal, &r.Abstract, &r.Language, &r.Provenance,
			&r.PreviouslyKnown); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &r.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors for record %s: %w", r.SourceID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
