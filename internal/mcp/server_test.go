package mcp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/askbook/internal/config"
	"github.com/ziadkadry99/askbook/internal/history"
	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/rag"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// mockEmbedder implements embeddings.Embedder for testing.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1, 0, 0}
	}
	return result, nil
}
func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Name() string    { return "mock" }

// mockIndex implements vectordb.SubjectIndex for testing.
type mockIndex struct {
	pages map[string][]string
}

func (m *mockIndex) Build(_ context.Context, subject string, docs []vectordb.Document) (*vectordb.Manifest, error) {
	return nil, errors.New("not supported")
}

func (m *mockIndex) Search(_ context.Context, subject string, _ []float32, k int) ([]vectordb.SearchResult, error) {
	texts, ok := m.pages[subject]
	if !ok {
		return nil, &vectordb.IndexNotFoundError{Subject: subject, Dir: "index/" + subject}
	}
	var out []vectordb.SearchResult
	for i, t := range texts {
		if len(out) == k {
			break
		}
		out = append(out, vectordb.SearchResult{Position: i, Content: t, Similarity: 0.9})
	}
	return out, nil
}

func (m *mockIndex) Manifest(subject string) (*vectordb.Manifest, error) {
	texts, ok := m.pages[subject]
	if !ok {
		return nil, &vectordb.IndexNotFoundError{Subject: subject}
	}
	return &vectordb.Manifest{Subject: subject, Pages: len(texts)}, nil
}

// memoryPages implements pages.Store for testing.
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

type mockAsker struct {
	ans *rag.Answer
	err error
}

func (m *mockAsker) Ask(_ context.Context, query string, _ rag.Observer) (*rag.Answer, error) {
	return m.ans, m.err
}

type mockSummarizer struct {
	got rag.PageSet
}

func (m *mockSummarizer) Summarize(_ context.Context, subject string, set rag.PageSet) (string, error) {
	m.got = set
	return "summary of " + subject, nil
}

type mockRecorder struct {
	queries []string
}

func (m *mockRecorder) Record(_ context.Context, query string, _ *rag.Answer, _ error, _ time.Duration) (*history.Entry, error) {
	m.queries = append(m.queries, query)
	return &history.Entry{Query: query}, nil
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, string, *rag.Answer, error, time.Duration) (*history.Entry, error) {
	return nil, errors.New("disk full")
}

// blockingEmbedder waits for the context to end.
type blockingEmbedder struct{}

func (blockingEmbedder) Embed(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingEmbedder) Dimensions() int { return 3 }
func (blockingEmbedder) Name() string    { return "blocking" }

var osText = []string{"A process is a program in execution", "Threads share memory", "Page tables"}

func newTestServer(asker *mockAsker) (*Server, *mockSummarizer, *mockRecorder) {
	sum := &mockSummarizer{}
	rec := &mockRecorder{}
	srv := NewServer(Deps{
		Pipeline:   asker,
		Index:      &mockIndex{pages: map[string][]string{"OS": osText}},
		Embedder:   &mockEmbedder{},
		Pages:      memoryPages{"OS": osText},
		Summarizer: sum,
		History:    rec,
		Subjects:   []config.Subject{{ID: "OS", Description: "Operating Systems"}, {ID: "AI", Description: "Artificial Intelligence"}},
		TopK:       2,
	})
	return srv, sum, rec
}

func callTool(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"ask", askTool, "ask"},
		{"search_pages", searchPagesTool, "search_pages"},
		{"get_page", getPageTool, "get_page"},
		{"list_subjects", listSubjectsTool, "list_subjects"},
		{"summarize_pages", summarizePagesTool, "summarize_pages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServerDefaultsTopK(t *testing.T) {
	srv := NewServer(Deps{})
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.deps.TopK != vectordb.DefaultK {
		t.Errorf("TopK = %d, want %d", srv.deps.TopK, vectordb.DefaultK)
	}
}

func TestHandleAsk(t *testing.T) {
	ctx := context.Background()
	ans := &rag.Answer{
		Status:   rag.StatusAnswered,
		Subjects: []string{"OS"},
		Answers:  []rag.SubjectAnswer{{Subject: "OS", Reasoning: "thinking", Answer: "A process is a program in execution.", Pages: []int{0}}},
	}

	t.Run("answer", func(t *testing.T) {
		srv, _, rec := newTestServer(&mockAsker{ans: ans})
		result, err := srv.handleAsk(ctx, callTool(map[string]any{"question": "What is a process?"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := resultText(t, result)
		if result.IsError || !strings.Contains(text, "A process is") || !strings.Contains(text, "Pages: 1") {
			t.Errorf("unexpected result: %s", text)
		}
		if strings.Contains(text, "thinking") {
			t.Error("reasoning included without include_reasoning")
		}
		if len(rec.queries) != 1 {
			t.Errorf("expected the question recorded, got %v", rec.queries)
		}
	})

	t.Run("missing index", func(t *testing.T) {
		srv, _, _ := newTestServer(&mockAsker{err: &vectordb.IndexNotFoundError{Subject: "OS", Dir: "index/OS"}})
		result, _ := srv.handleAsk(ctx, callTool(map[string]any{"question": "q"}))
		if !result.IsError || !strings.Contains(resultText(t, result), "askbook index") {
			t.Errorf("expected an index hint, got %+v", result)
		}
	})

	t.Run("history failure is logged", func(t *testing.T) {
		var logs bytes.Buffer
		srv := NewServer(Deps{
			Pipeline: &mockAsker{ans: ans},
			History:  failingRecorder{},
			Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
		})
		result, err := srv.handleAsk(ctx, callTool(map[string]any{"question": "What is a process?"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError || !strings.Contains(resultText(t, result), "A process is") {
			t.Errorf("answer lost after history failure: %+v", result)
		}
		if !strings.Contains(logs.String(), "recording question failed") || !strings.Contains(logs.String(), "disk full") {
			t.Errorf("history failure not logged: %q", logs.String())
		}
	})

	t.Run("missing question", func(t *testing.T) {
		srv, _, _ := newTestServer(&mockAsker{ans: ans})
		result, _ := srv.handleAsk(ctx, callTool(map[string]any{}))
		if !result.IsError {
			t.Error("expected error for missing question")
		}
	})
}

func TestHandleSearchPages(t *testing.T) {
	srv, _, _ := newTestServer(&mockAsker{})
	ctx := context.Background()

	result, err := srv.handleSearchPages(ctx, callTool(map[string]any{"subject": "OS", "query": "process"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError || !strings.Contains(text, "page 1") || strings.Contains(text, "Page tables") {
		t.Errorf("expected the top 2 pages, got:\n%s", text)
	}

	result, _ = srv.handleSearchPages(ctx, callTool(map[string]any{"subject": "AI", "query": "search"}))
	if !result.IsError {
		t.Error("expected an error for an unindexed subject")
	}

	result, _ = srv.handleSearchPages(ctx, callTool(map[string]any{"subject": "BIO", "query": "cells"}))
	if !result.IsError {
		t.Error("expected an error for an unknown subject")
	}
}

func TestHandleSearchPagesTimeout(t *testing.T) {
	srv := NewServer(Deps{
		Index:    &mockIndex{pages: map[string][]string{"OS": osText}},
		Embedder: blockingEmbedder{},
		Subjects: []config.Subject{{ID: "OS"}},
		Timeout:  10 * time.Millisecond,
	})

	done := make(chan *mcp.CallToolResult, 1)
	go func() {
		result, _ := srv.handleSearchPages(context.Background(), callTool(map[string]any{"subject": "OS", "query": "process"}))
		done <- result
	}()

	select {
	case result := <-done:
		if !result.IsError || !strings.Contains(resultText(t, result), "timed out") {
			t.Errorf("expected a timeout error, got %+v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search_pages did not honour the timeout")
	}
}

func TestHandleGetPage(t *testing.T) {
	srv, _, _ := newTestServer(&mockAsker{})
	ctx := context.Background()

	result, _ := srv.handleGetPage(ctx, callTool(map[string]any{"subject": "OS", "page": float64(2)}))
	if result.IsError || !strings.Contains(resultText(t, result), "Threads share memory") {
		t.Errorf("unexpected result: %+v", result)
	}

	for _, page := range []float64{0, 99} {
		result, _ = srv.handleGetPage(ctx, callTool(map[string]any{"subject": "OS", "page": page}))
		if !result.IsError {
			t.Errorf("page %v: expected error", page)
		}
	}
}

func TestHandlersRejectUnknownSubjects(t *testing.T) {
	srv, sum, _ := newTestServer(&mockAsker{})
	ctx := context.Background()
	// Page store that would serve anything it is asked for.
	srv.deps.Pages = memoryPages{"../x": {"secret"}, "BIO": {"cells"}}

	for _, subject := range []string{"../x", "BIO", "os"} {
		result, _ := srv.handleGetPage(ctx, callTool(map[string]any{"subject": subject, "page": float64(1)}))
		if !result.IsError || !strings.Contains(resultText(t, result), "unknown subject") {
			t.Errorf("get_page %q: expected unknown subject, got %+v", subject, result)
		}

		result, _ = srv.handleSummarizePages(ctx, callTool(map[string]any{"subject": subject, "pages": "1"}))
		if !result.IsError || !strings.Contains(resultText(t, result), "unknown subject") {
			t.Errorf("summarize_pages %q: expected unknown subject, got %+v", subject, result)
		}
	}
	if sum.got.Len() != 0 {
		t.Errorf("summarizer called for an unknown subject: %v", sum.got.Sorted())
	}
}

func TestHandleListSubjects(t *testing.T) {
	srv, _, _ := newTestServer(&mockAsker{})
	result, err := srv.handleListSubjects(context.Background(), callTool(nil))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "OS (3 pages indexed)") || !strings.Contains(text, "AI (not indexed)") {
		t.Errorf("unexpected listing:\n%s", text)
	}
}

func TestHandleSummarizePages(t *testing.T) {
	srv, sum, _ := newTestServer(&mockAsker{})
	ctx := context.Background()

	result, _ := srv.handleSummarizePages(ctx, callTool(map[string]any{"subject": "OS", "pages": "1-2"}))
	if result.IsError || resultText(t, result) != "summary of OS" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !sum.got.Has(0) || !sum.got.Has(1) || sum.got.Len() != 2 {
		t.Errorf("positions: %v", sum.got.Sorted())
	}

	result, _ = srv.handleSummarizePages(ctx, callTool(map[string]any{"subject": "OS", "pages": "abc"}))
	if !result.IsError {
		t.Error("expected error for a bad page list")
	}
}
