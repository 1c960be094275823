package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/askbook/internal/db"
)

// SQLiteStore serves page text from the cache written at index time.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore wraps an open database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Page(ctx context.Context, subject string, position int) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT text FROM pages WHERE subject = ? AND position = ?`, subject, position,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &PageNotFoundError{Subject: subject, Position: position}
	}
	if err != nil {
		return "", fmt.Errorf("querying page: %w", err)
	}
	return text, nil
}

func (s *SQLiteStore) PageCount(ctx context.Context, subject string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE subject = ?`, subject).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

// Build describes the PDF a subject's pages were last cached from.
type Build struct {
	Subject    string
	SourcePath string
	SourceHash string
	PageCount  int
	BuiltAt    time.Time
}

// ReplacePages stores texts as the subject's pages, replacing any
// previous cache, and records the build.
func (s *SQLiteStore) ReplacePages(ctx context.Context, b Build, texts []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE subject = ?`, b.Subject); err != nil {
		return fmt.Errorf("clearing pages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO pages (subject, position, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for pos, text := range texts {
		if _, err := stmt.ExecContext(ctx, b.Subject, pos, text); err != nil {
			return fmt.Errorf("inserting page %d: %w", pos, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subject_builds (subject, source_path, source_hash, page_count, built_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(subject) DO UPDATE SET
		   source_path = excluded.source_path,
		   source_hash = excluded.source_hash,
		   page_count = excluded.page_count,
		   built_at = excluded.built_at`,
		b.Subject, b.SourcePath, b.SourceHash, len(texts), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording build: %w", err)
	}

	return tx.Commit()
}

// LastBuild returns the recorded build for subject, or nil if the subject
// was never cached.
func (s *SQLiteStore) LastBuild(ctx context.Context, subject string) (*Build, error) {
	var b Build
	err := s.db.QueryRowContext(ctx,
		`SELECT subject, source_path, source_hash, page_count, built_at FROM subject_builds WHERE subject = ?`,
		subject,
	).Scan(&b.Subject, &b.SourcePath, &b.SourceHash, &b.PageCount, &b.BuiltAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying build: %w", err)
	}
	return &b, nil
}
