package vectordb

import "context"

// SubjectIndex stores one nearest-neighbour index of page embeddings per
// subject. Pages are addressed by their zero-based position in the
// subject's PDF.
type SubjectIndex interface {
	// Build embeds docs in order and replaces the subject's persisted index.
	Build(ctx context.Context, subject string, docs []Document) (*Manifest, error)

	// Search returns up to k pages nearest to embedding, closest first.
	// It fails with *IndexNotFoundError when the subject has no index and
	// with *DimensionError when embedding has the wrong length.
	Search(ctx context.Context, subject string, embedding []float32, k int) ([]SearchResult, error)

	// Manifest describes the subject's persisted index.
	Manifest(subject string) (*Manifest, error)
}

// Document is one page handed to Build.
type Document struct {
	Position int
	Content  string
}

// SearchResult is one neighbour returned by Search. Distance is the
// Euclidean distance between the unit-length query and page vectors.
type SearchResult struct {
	Position   int
	Content    string
	Similarity float32
	Distance   float32
}

// Positions returns the page positions of results in rank order.
func Positions(results []SearchResult) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.Position
	}
	return out
}
