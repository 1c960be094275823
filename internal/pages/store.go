// Package pages gives read-only access to the text of indexed textbook
// pages and to the figures extracted from them.
package pages

import (
	"context"
	"errors"
	"fmt"
)

// ErrPageNotFound matches every *PageNotFoundError.
var ErrPageNotFound = errors.New("page not found")

// PageNotFoundError reports a position outside a subject's page range, or
// a subject with no pages at all.
type PageNotFoundError struct {
	Subject  string
	Position int
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("subject %q has no page at position %d", e.Subject, e.Position)
}

func (e *PageNotFoundError) Is(target error) bool { return target == ErrPageNotFound }

// Store returns the text of a page. Positions are zero-based.
type Store interface {
	Page(ctx context.Context, subject string, position int) (string, error)
	PageCount(ctx context.Context, subject string) (int, error)
}

// DisplayNumber converts a zero-based position into the page number shown
// to users and used in extracted figure file names.
func DisplayNumber(position int) int {
	return position + 1
}
