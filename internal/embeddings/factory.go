package embeddings

import (
	"context"
	"fmt"
	"math"
	"os"
)

// New builds the embedder for provider ("openai", "google" or "ollama").
// Hosted providers read their API key from the environment. The returned
// embedder normalizes vectors to unit length and rejects vectors whose
// length differs from dimensions.
func New(provider, model string, dimensions int, baseURL string) (Embedder, error) {
	var e Embedder
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		e = NewOpenAIEmbedder(apiKey, OpenAIModel(model), dimensions, baseURL)
	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		e = NewGoogleEmbedder(apiKey, GoogleModel(model), dimensions)
	case "ollama":
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_HOST")
		}
		e = NewOllamaEmbedder(model, dimensions, baseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
	return Normalized(e, dimensions), nil
}

// NormalizedEmbedder wraps an Embedder, scaling every vector to unit L2
// norm and checking its length.
type NormalizedEmbedder struct {
	inner      Embedder
	dimensions int
}

// Normalized wraps e. A non-positive dimensions uses e.Dimensions().
func Normalized(e Embedder, dimensions int) *NormalizedEmbedder {
	if dimensions <= 0 {
		dimensions = e.Dimensions()
	}
	return &NormalizedEmbedder{inner: e, dimensions: dimensions}
}

func (n *NormalizedEmbedder) Name() string    { return n.inner.Name() }
func (n *NormalizedEmbedder) Dimensions() int { return n.dimensions }

func (n *NormalizedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := n.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d texts", n.inner.Name(), len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) != n.dimensions {
			return nil, fmt.Errorf("%s returned a %d-dimensional vector, configured for %d", n.inner.Name(), len(v), n.dimensions)
		}
		vecs[i] = Normalize(v)
	}
	return vecs, nil
}

// Normalize returns v scaled to unit length. A zero vector is returned as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
