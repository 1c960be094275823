package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/askbook/internal/embeddings"
	"github.com/ziadkadry99/askbook/internal/llm"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// Searcher is the read side of a subject index.
type Searcher interface {
	Search(ctx context.Context, subject string, embedding []float32, k int) ([]vectordb.SearchResult, error)
}

// Retriever finds the pages of each subject nearest to a set of queries.
type Retriever struct {
	embedder embeddings.Embedder
	index    Searcher
	k        int
	timeout  time.Duration
}

// NewRetriever creates a Retriever returning k pages per (subject, query)
// pair. Each embedding and search call is bounded by timeout; zero means
// no bound.
func NewRetriever(embedder embeddings.Embedder, index Searcher, k int, timeout time.Duration) *Retriever {
	return &Retriever{embedder: embedder, index: index, k: k, timeout: timeout}
}

// Retrieve searches every subject with every query and unions the hits per
// subject. Subjects whose search fails are left out of the result and
// reported as joined *SubjectError values. A dimension mismatch aborts the
// whole retrieval since it affects every subject alike.
func (r *Retriever) Retrieve(ctx context.Context, subjects, queries []string) (RetrievalResult, error) {
	result := make(RetrievalResult)
	if len(subjects) == 0 || len(queries) == 0 {
		return result, nil
	}

	var vectors [][]float32
	err := llm.RunWithTimeout(ctx, r.timeout, "query embedding", func(ctx context.Context) error {
		var err error
		vectors, err = r.embedder.Embed(ctx, queries)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embedding queries: %w", err)
	}
	if len(vectors) != len(queries) {
		return nil, fmt.Errorf("embedding queries: got %d vectors for %d queries", len(vectors), len(queries))
	}

	var errs []error
	for _, subject := range subjects {
		if _, done := result[subject]; done {
			continue
		}
		set, err := r.searchSubject(ctx, subject, vectors)
		if err != nil {
			if errors.Is(err, vectordb.ErrDimensionMismatch) || ctx.Err() != nil {
				return nil, err
			}
			errs = append(errs, &SubjectError{Subject: subject, Err: err})
			continue
		}
		result[subject] = set
	}
	return result, errors.Join(errs...)
}

func (r *Retriever) searchSubject(ctx context.Context, subject string, vectors [][]float32) (PageSet, error) {
	set := make(PageSet)
	for _, vec := range vectors {
		var hits []vectordb.SearchResult
		err := llm.RunWithTimeout(ctx, r.timeout, "searching "+subject, func(ctx context.Context) error {
			var err error
			hits, err = r.index.Search(ctx, subject, vec, r.k)
			return err
		})
		if err != nil {
			return nil, err
		}
		set.Add(vectordb.Positions(hits)...)
	}
	return set, nil
}
