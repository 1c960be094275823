package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ziadkadry99/askbook/internal/llm"
	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// scriptedProvider answers each request with the reply of the first rule
// whose marker appears in the prompt.
type scriptedProvider struct {
	mu    sync.Mutex
	rules []rule
	calls []llm.CompletionRequest
}

type rule struct {
	marker string
	reply  string
	err    error
}

func (p *scriptedProvider) on(marker, reply string) *scriptedProvider {
	p.rules = append(p.rules, rule{marker: marker, reply: reply})
	return p
}

func (p *scriptedProvider) fail(marker string, err error) *scriptedProvider {
	p.rules = append(p.rules, rule{marker: marker, err: err})
	return p
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)
	prompt := req.Messages[len(req.Messages)-1].Content
	for _, r := range p.rules {
		if strings.Contains(prompt, r.marker) {
			if r.err != nil {
				return nil, r.err
			}
			return &llm.CompletionResponse{Content: r.reply}, nil
		}
	}
	return nil, fmt.Errorf("no scripted reply for prompt %q", prompt)
}

func (p *scriptedProvider) promptsContaining(marker string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if prompt := c.Messages[len(c.Messages)-1].Content; strings.Contains(prompt, marker) {
			out = append(out, prompt)
		}
	}
	return out
}

// tableEmbedder gives each known query a one-hot vector so tableSearcher
// can map it back to canned hits.
type tableEmbedder struct {
	ids   map[string]int
	calls int
}

func newTableEmbedder(queries ...string) *tableEmbedder {
	e := &tableEmbedder{ids: make(map[string]int)}
	for i, q := range queries {
		e.ids[q] = i
	}
	return e
}

func (e *tableEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		id, ok := e.ids[t]
		if !ok {
			return nil, fmt.Errorf("unknown query %q", t)
		}
		vec := make([]float32, e.Dimensions())
		vec[id] = 1
		out[i] = vec
	}
	return out, nil
}

func (e *tableEmbedder) Dimensions() int { return 16 }
func (e *tableEmbedder) Name() string    { return "table" }

// tableSearcher returns hits[subject][queryID]. Subjects absent from hits
// have no index.
type tableSearcher struct {
	mu       sync.Mutex
	hits     map[string]map[int][]int
	wantDims int
	searches int
}

func (s *tableSearcher) Search(_ context.Context, subject string, embedding []float32, _ int) ([]vectordb.SearchResult, error) {
	s.mu.Lock()
	s.searches++
	s.mu.Unlock()
	if s.wantDims > 0 && len(embedding) != s.wantDims {
		return nil, &vectordb.DimensionError{Subject: subject, Want: s.wantDims, Got: len(embedding)}
	}
	bySubject, ok := s.hits[subject]
	if !ok {
		return nil, &vectordb.IndexNotFoundError{Subject: subject, Dir: "index/" + subject}
	}
	id := -1
	for i, v := range embedding {
		if v == 1 {
			id = i
		}
	}
	var out []vectordb.SearchResult
	for _, pos := range bySubject[id] {
		out = append(out, vectordb.SearchResult{Position: pos})
	}
	return out, nil
}

// memoryPages is a pages.Store over in-memory text.
type memoryPages map[string][]string

func (m memoryPages) Page(_ context.Context, subject string, position int) (string, error) {
	texts := m[subject]
	if position < 0 || position >= len(texts) {
		return "", &pages.PageNotFoundError{Subject: subject, Position: position}
	}
	return texts[position], nil
}

func (m memoryPages) PageCount(_ context.Context, subject string) (int, error) {
	return len(m[subject]), nil
}

func bookPages(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s page %d", prefix, i+1)
	}
	return out
}
