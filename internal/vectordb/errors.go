package vectordb

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotFound matches every *IndexNotFoundError.
	ErrIndexNotFound = errors.New("index not found")
	// ErrDimensionMismatch matches every *DimensionError.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// IndexNotFoundError reports a subject with no persisted index.
type IndexNotFoundError struct {
	Subject string
	Dir     string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("no index for subject %q in %s (run `askbook index`)", e.Subject, e.Dir)
}

func (e *IndexNotFoundError) Is(target error) bool { return target == ErrIndexNotFound }

// DimensionError reports an embedding whose length differs from the
// length the index was built with. It is a configuration error: the
// embedder changed since the index was built.
type DimensionError struct {
	Subject string
	Want    int
	Got     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("subject %q: index holds %d-dimensional vectors, got %d (rebuild with `askbook index --force`)", e.Subject, e.Want, e.Got)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }
