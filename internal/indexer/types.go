package indexer

import "time"

// Source is one subject PDF found under the PDF directory.
type Source struct {
	Subject     string // Configured subject identifier.
	Path        string // Path on disk.
	RelPath     string // Path relative to the PDF directory.
	Size        int64  // File size in bytes.
	ContentHash string // SHA-256 hex digest of the file content.
}

// SubjectResult is the outcome of indexing one subject.
type SubjectResult struct {
	Subject  string
	Pages    int
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Result summarizes a full indexing run.
type Result struct {
	Built    int
	Skipped  int
	Failed   int
	Missing  []string // Configured subjects with no PDF.
	Subjects []SubjectResult
	Duration time.Duration
	Errors   []error
}

// ProgressFunc is called during batch processing to report progress.
type ProgressFunc func(processed int, total int, current string)
