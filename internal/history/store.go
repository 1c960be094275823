// Package history records every question asked and its outcome.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/askbook/internal/db"
	"github.com/ziadkadry99/askbook/internal/rag"
)

// StatusFailed marks a question the pipeline could not answer at all.
const StatusFailed rag.Status = "failed"

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded question.
type Entry struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Status    rag.Status    `json:"status"`
	Subjects  []string      `json:"subjects"`
	Answer    *rag.Answer   `json:"answer,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// result is the JSON stored in the result column.
type result struct {
	Answer *rag.Answer `json:"answer,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Store persists entries in the questions table.
type Store struct {
	db  *db.DB
	now func() time.Time
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Record saves the outcome of one Ask call. Exactly one of ans and askErr
// is normally set.
func (s *Store) Record(ctx context.Context, query string, ans *rag.Answer, askErr error, took time.Duration) (*Entry, error) {
	e := &Entry{
		ID:        uuid.New().String(),
		Query:     query,
		Status:    StatusFailed,
		Duration:  took,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}
	if ans != nil {
		e.Status = ans.Status
		e.Subjects = ans.Subjects
		e.Answer = ans
	}
	if askErr != nil {
		e.Status = StatusFailed
		e.Error = askErr.Error()
	}

	subjects, err := json.Marshal(nonNil(e.Subjects))
	if err != nil {
		return nil, fmt.Errorf("marshalling subjects: %w", err)
	}
	res, err := json.Marshal(result{Answer: e.Answer, Error: e.Error})
	if err != nil {
		return nil, fmt.Errorf("marshalling result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (id, query, status, subjects, result, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Query, string(e.Status), string(subjects), string(res),
		took.Milliseconds(), e.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting question: %w", err)
	}
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Subject string
	Status  rag.Status
	Search  string
	Limit   int
	Offset  int
}

// List returns entries newest first. Answers are omitted; use Get for the
// full record.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Subject != "" {
		// subjects is a JSON array of strings.
		clauses = append(clauses, "subjects LIKE ?")
		args = append(args, `%"`+f.Subject+`"%`)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Search != "" {
		clauses = append(clauses, "query LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	query := "SELECT id, query, status, subjects, '{}', duration_ms, created_at FROM questions"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
		if f.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Get returns one entry with its full answer.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, query, status, subjects, result, duration_ms, created_at
		FROM questions WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e                 Entry
		status            string
		subjects, resJSON string
		durationMS        int64
		created           string
	)
	if err := sc.Scan(&e.ID, &e.Query, &status, &subjects, &resJSON, &durationMS, &created); err != nil {
		return nil, err
	}
	e.Status = rag.Status(status)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	e.CreatedAt = parseTime(created)

	if err := json.Unmarshal([]byte(subjects), &e.Subjects); err != nil {
		return nil, fmt.Errorf("decoding subjects of %s: %w", e.ID, err)
	}
	var res result
	if err := json.Unmarshal([]byte(resJSON), &res); err != nil {
		return nil, fmt.Errorf("decoding result of %s: %w", e.ID, err)
	}
	e.Answer = res.Answer
	e.Error = res.Error
	return &e, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
