// Package embeddings turns page and query text into vectors. Pages and
// queries of one library must go through the same Embedder.
package embeddings

import "context"

// Embedder encodes texts into fixed-length vectors.
type Embedder interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every vector Embed returns.
	Dimensions() int

	// Name identifies the provider and model, e.g. "ollama/all-minilm".
	// It is recorded in each index manifest.
	Name() string
}
