package rag

import (
	"context"
	"strings"

	"github.com/ziadkadry99/askbook/internal/llm"
)

// Expander generates paraphrases of a question to widen retrieval.
type Expander struct {
	provider llm.Provider
	model    string
}

// NewExpander creates an Expander using model on provider.
func NewExpander(provider llm.Provider, model string) *Expander {
	return &Expander{provider: provider, model: model}
}

// Expand returns the original query followed by up to count paraphrases,
// exact duplicates removed. On a failed model call it returns the query
// alone together with an *ExpansionError.
func (e *Expander) Expand(ctx context.Context, query string, count int) ([]string, error) {
	if count <= 0 {
		return []string{query}, nil
	}

	req := llm.UserPrompt(e.model, buildExpandPrompt(query, count))
	req.JSONMode = true
	req.Temperature = 0.7

	resp, err := e.provider.Complete(ctx, req)
	if err != nil {
		return []string{query}, &ExpansionError{Err: err}
	}
	return dedupQueries(query, parseQueries(resp.Content), count), nil
}

func parseQueries(raw string) []string {
	if items, ok := parseStringList(raw, "queries"); ok {
		return items
	}
	_, text := SplitReasoning(raw)
	var out []string
	for _, line := range strings.Split(stripFences(text), "\n") {
		if line = cleanItem(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// dedupQueries puts query first, appends paraphrases in order while
// skipping blanks and exact repeats, and caps the list at count+1.
func dedupQueries(query string, paraphrases []string, count int) []string {
	out := []string{query}
	seen := map[string]bool{query: true}
	for _, p := range paraphrases {
		if len(out) == count+1 {
			break
		}
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
