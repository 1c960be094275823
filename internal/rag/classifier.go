package rag

import (
	"context"
	"strings"

	"github.com/ziadkadry99/askbook/internal/config"
	"github.com/ziadkadry99/askbook/internal/llm"
)

// Classifier maps a question to the subjects whose textbooks can answer it.
type Classifier struct {
	provider llm.Provider
	model    string
	subjects []config.Subject
}

// NewClassifier creates a Classifier over the configured subjects.
func NewClassifier(provider llm.Provider, model string, subjects []config.Subject) *Classifier {
	return &Classifier{provider: provider, model: model, subjects: subjects}
}

// Classify returns the relevant subject IDs in configured order. A failed
// model call yields no subjects and a *ClassificationError.
func (c *Classifier) Classify(ctx context.Context, query string) ([]string, error) {
	req := llm.UserPrompt(c.model, buildClassifyPrompt(query, c.subjects))
	req.JSONMode = true
	req.MaxTokens = 256

	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		return nil, &ClassificationError{Err: err}
	}
	return c.filter(parseSubjects(resp.Content)), nil
}

// parseSubjects reads the model's reply as JSON, falling back to a comma,
// newline or bullet separated list.
func parseSubjects(raw string) []string {
	if items, ok := parseStringList(raw, "subjects"); ok {
		return items
	}
	_, text := SplitReasoning(raw)
	text = stripFences(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = cleanItem(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// filter keeps known subject IDs, matched case-insensitively, deduplicated
// and returned in canonical spelling and configured order.
func (c *Classifier) filter(candidates []string) []string {
	wanted := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		wanted[strings.ToLower(strings.TrimSpace(cand))] = true
	}
	var out []string
	for _, s := range c.subjects {
		if wanted[strings.ToLower(s.ID)] {
			out = append(out, s.ID)
		}
	}
	return out
}
