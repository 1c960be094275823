package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ziadkadry99/askbook/internal/llm"
	"github.com/ziadkadry99/askbook/internal/pages"
)

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// Synthesizer writes one answer per subject from its retrieved pages.
type Synthesizer struct {
	provider    llm.Provider
	model       string
	pages       pages.Store
	concurrency int
}

// NewSynthesizer creates a Synthesizer. concurrency bounds how many
// subjects are answered at once; values below 1 mean one at a time.
func NewSynthesizer(provider llm.Provider, model string, store pages.Store, concurrency int) *Synthesizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Synthesizer{provider: provider, model: model, pages: store, concurrency: concurrency}
}

// Synthesize answers query from the given pages of subject. Pages are
// presented in ascending order. On failure the returned answer is marked
// Failed and the error is a *SynthesisError.
func (s *Synthesizer) Synthesize(ctx context.Context, subject string, set PageSet, query string) (SubjectAnswer, error) {
	positions := set.Sorted()
	ans := SubjectAnswer{Subject: subject, Pages: positions}

	texts, err := s.readPages(ctx, subject, positions)
	if err != nil {
		return failed(ans, err)
	}

	req := llm.UserPrompt(s.model, buildSynthesisPrompt(query, subject, texts))
	req.Temperature = 0.3
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return failed(ans, err)
	}

	ans.Reasoning, ans.Answer = SplitReasoning(resp.Content)
	return ans, nil
}

func failed(ans SubjectAnswer, err error) (SubjectAnswer, error) {
	serr := &SynthesisError{Subject: ans.Subject, Err: err}
	ans.Failed = true
	ans.Error = serr.Error()
	return ans, serr
}

func (s *Synthesizer) readPages(ctx context.Context, subject string, positions []int) ([]pageText, error) {
	texts := make([]pageText, 0, len(positions))
	for _, pos := range positions {
		text, err := s.pages.Page(ctx, subject, pos)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", pages.DisplayNumber(pos), err)
		}
		texts = append(texts, pageText{Position: pos, Text: text})
	}
	return texts, nil
}

// SynthesizeAll answers every subject of retrieval in the order given by
// subjects, skipping subjects without retrieved pages. Failures are
// recorded on the corresponding answer instead of aborting the rest.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, retrieval RetrievalResult, subjects []string, query string) []SubjectAnswer {
	var todo []string
	for _, subject := range subjects {
		if _, ok := retrieval[subject]; ok {
			todo = append(todo, subject)
		}
	}

	answers := make([]SubjectAnswer, len(todo))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, subject := range todo {
		wg.Add(1)
		go func(i int, subject string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				answers[i], _ = failed(SubjectAnswer{Subject: subject, Pages: retrieval[subject].Sorted()}, ctx.Err())
				return
			}
			answers[i], _ = s.Synthesize(ctx, subject, retrieval[subject], query)
		}(i, subject)
	}
	wg.Wait()
	return answers
}

// SplitReasoning separates the first <think>...</think> block of a model
// response from the answer. Both parts are trimmed. Without a complete
// block, reasoning is empty and answer is the response unchanged.
func SplitReasoning(response string) (reasoning, answer string) {
	open := strings.Index(response, thinkOpen)
	if open < 0 {
		return "", response
	}
	bodyStart := open + len(thinkOpen)
	closeRel := strings.Index(response[bodyStart:], thinkClose)
	if closeRel < 0 {
		return "", response
	}
	bodyEnd := bodyStart + closeRel
	reasoning = strings.TrimSpace(response[bodyStart:bodyEnd])
	answer = strings.TrimSpace(response[:open] + response[bodyEnd+len(thinkClose):])
	return reasoning, answer
}
