// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists a record of every acquired PDF in SQLite, so
// repeated runs can be audited without re-walking the output directory.
package catalog

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

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// Store manages the acquisition catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path, creating the schema
// when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			pmid TEXT,
			title TEXT,
			doi TEXT,
			source TEXT NOT NULL,
			pdf_path TEXT NOT NULL,
			size_bytes INTEGER,
			downloaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record upserts one acquisition. Re-downloading the same paper (or skipping
// an existing file) refreshes the row rather than duplicating it.
func (s *Store) Record(ctx context.Context, rec types.PaperRecord) error {
	if rec.DownloadedAt.IsZero() {
		rec.DownloadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (id, pmid, title, doi, source, pdf_path, size_bytes, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			pmid=excluded.pmid, title=excluded.title, doi=excluded.doi,
			source=excluded.source, pdf_path=excluded.pdf_path,
			size_bytes=excluded.size_bytes, downloaded_at=excluded.downloaded_at`,
		rec.ID, rec.PMID, rec.Title, rec.DOI, rec.Source, rec.PDFPath,
		rec.SizeBytes, rec.DownloadedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording paper %s: %w", rec.ID, err)
	}
	return nil
}

// List returns catalog rows newest-first, optionally filtered by source.
// A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, source string, limit int) ([]types.PaperRecord, error) {
	query := `SELECT id, pmid, title, doi, source, pdf_path, size_bytes, downloaded_at
		FROM papers`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY downloaded_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var records []types.PaperRecord
	for rows.Next() {
		var rec types.PaperRecord
		var downloadedAt string
		if err := rows.Scan(&rec.ID, &rec.PMID, &rec.Title, &rec.DOI,
			&rec.Source, &rec.PDFPath, &rec.SizeBytes, &downloadedAt); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, downloadedAt); parseErr == nil {
			rec.DownloadedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FormatTable writes catalog rows as a human-readable table to w.
func FormatTable(records []types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "Catalog is empty.")
		return
	}

	fmt.Fprintf(w, "%-24s  %-50s  %-9s  %-8s  %s\n", "ID", "Title", "Source", "Size", "Downloaded")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, rec := range records {
		title := rec.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(w, "%-24s  %-50s  %-9s  %-8d  %s\n",
			rec.ID, title, rec.Source, rec.SizeBytes,
			rec.DownloadedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%d paper(s)\n", len(records))
}
