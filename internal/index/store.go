// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists refine-log records in a searchable SQLite store so
// a run's concepts can be queried across transcripts.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

const dbFile = "concepts.db"

// Store manages the concept index SQLite database.
type Store struct {
	db         *sql.DB
	indexDir   string
	maxResults int
}

// NewStore opens or creates the concept database at cfg.IndexDir/concepts.db,
// creating the schema if needed.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		indexDir:   cfg.IndexDir,
		maxResults: maxResults,
	}

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
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			subject TEXT,
			run_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS concepts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			term TEXT NOT NULL,
			transcript_id TEXT NOT NULL REFERENCES transcripts(id),
			timespan TEXT,
			support INTEGER,
			capacity INTEGER,
			retained INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_concepts_transcript ON concepts(transcript_id)`,
		`CREATE INDEX IF NOT EXISTS idx_concepts_retained ON concepts(retained)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			transcript_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='concepts_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE concepts_fts USING fts5(term, content=concepts, content_rowid=rowid)`,
			`CREATE TRIGGER concepts_ai AFTER INSERT ON concepts BEGIN
				INSERT INTO concepts_fts(rowid, term) VALUES (new.rowid, new.term);
			END`,
			`CREATE TRIGGER concepts_ad AFTER DELETE ON concepts BEGIN
				INSERT INTO concepts_fts(concepts_fts, rowid, term) VALUES('delete', old.rowid, old.term);
			END`,
			`CREATE TRIGGER concepts_au AFTER UPDATE ON concepts BEGIN
				INSERT INTO concepts_fts(concepts_fts, rowid, term) VALUES('delete', old.rowid, old.term);
				INSERT INTO concepts_fts(rowid, term) VALUES (new.rowid, new.term);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run over refine logs.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of refine logs processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads refine log YAML files from outDir and populates the
// database. Unchanged files are detected by modification time and skipped
// so repeated ingests stay incremental.
func (s *Store) Ingest(ctx context.Context, outDir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading output directory %s: %w", outDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_refine.yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		transcriptID := strings.TrimSuffix(entry.Name(), "_refine.yaml")
		filePath := filepath.Join(outDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", transcriptID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE transcript_id = ?`, transcriptID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", transcriptID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", transcriptID, err)
			summary.Failed++
			continue
		}

		var runLog types.RefineLog
		if err := yaml.Unmarshal(data, &runLog); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", transcriptID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestLog(ctx, transcriptID, &runLog, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", transcriptID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d segments)\n", transcriptID, len(runLog.Records))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d segments)\n", transcriptID, len(runLog.Records))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestLog(ctx context.Context, transcriptID string, runLog *types.RefineLog, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove old rows if updating.
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM concepts WHERE transcript_id = ?`, transcriptID); err != nil {
			return fmt.Errorf("deleting old concepts: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transcripts (id, subject, run_id) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET subject=excluded.subject, run_id=excluded.run_id`,
		transcriptID, runLog.Subject, runLog.RunID,
	)
	if err != nil {
		return fmt.Errorf("upserting transcript: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO concepts (term, transcript_id, timespan, support, capacity, retained)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range runLog.Records {
		retained := make(map[string]bool, len(rec.Retained))
		for _, c := range rec.Retained {
			retained[c] = true
		}
		for _, concept := range rec.Initial {
			kept := 0
			if retained[concept] {
				kept = 1
			}
			_, err := stmt.ExecContext(ctx,
				concept, transcriptID, rec.Timespan,
				rec.Support[concept], rec.Capacity[concept], kept,
			)
			if err != nil {
				return fmt.Errorf("inserting concept %s: %w", concept, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (transcript_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(transcript_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		transcriptID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
