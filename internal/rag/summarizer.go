package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/askbook/internal/llm"
	"github.com/ziadkadry99/askbook/internal/pages"
)

// summaryGroup is how many pages go into one summary call.
const summaryGroup = 3

// Summarizer condenses textbook pages into revision notes.
type Summarizer struct {
	provider llm.Provider
	model    string
	pages    pages.Store
}

func NewSummarizer(provider llm.Provider, model string, store pages.Store) *Summarizer {
	return &Summarizer{provider: provider, model: model, pages: store}
}

// Summarize reads the pages of subject in ascending order and summarizes
// them a few at a time, returning one markdown section per group.
func (s *Summarizer) Summarize(ctx context.Context, subject string, set PageSet) (string, error) {
	positions := set.Sorted()
	if len(positions) == 0 {
		return "", fmt.Errorf("no pages to summarize")
	}

	var b strings.Builder
	for i := 0; i < len(positions); i += summaryGroup {
		group := positions[i:min(i+summaryGroup, len(positions))]
		texts := make([]pageText, 0, len(group))
		for _, pos := range group {
			text, err := s.pages.Page(ctx, subject, pos)
			if err != nil {
				return "", fmt.Errorf("reading page %d of %s: %w", pages.DisplayNumber(pos), subject, err)
			}
			texts = append(texts, pageText{Position: pos, Text: text})
		}

		resp, err := s.provider.Complete(ctx, llm.UserPrompt(s.model, buildSummaryPrompt(subject, texts)))
		if err != nil {
			return "", fmt.Errorf("summarizing %s: %w", subject, err)
		}
		_, summary := SplitReasoning(resp.Content)

		display := make([]string, len(group))
		for j, pos := range group {
			display[j] = fmt.Sprint(pages.DisplayNumber(pos))
		}
		fmt.Fprintf(&b, "## %s pages %s\n\n%s\n\n", subject, strings.Join(display, ", "), strings.TrimSpace(summary))
	}
	return strings.TrimSpace(b.String()), nil
}
