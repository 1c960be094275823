package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/askbook/internal/llm"
	"github.com/ziadkadry99/askbook/internal/rag"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// handleAsk runs the full question pipeline.
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	start := time.Now()
	ans, err := s.deps.Pipeline.Ask(ctx, question, nil)
	if s.deps.History != nil {
		// A failed history write must not hide the answer.
		if _, recErr := s.deps.History.Record(ctx, question, ans, err, time.Since(start)); recErr != nil {
			s.deps.Logger.Warn("recording question failed", "error", recErr)
		}
	}
	if err != nil {
		if errors.Is(err, vectordb.ErrIndexNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("%v. Run `askbook index` to build the missing indexes.", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	return mcp.NewToolResultText(rag.FormatText(ans, request.GetBool("include_reasoning", false))), nil
}

// handleSearchPages searches one subject's index.
func (s *Server) handleSearchPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := request.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: subject"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if !s.knownSubject(subject) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown subject %q", subject)), nil
	}

	limit := request.GetInt("limit", s.deps.TopK)
	if limit <= 0 {
		limit = s.deps.TopK
	}

	var vectors [][]float32
	err = llm.RunWithTimeout(ctx, s.deps.Timeout, "embedding query", func(ctx context.Context) error {
		var err error
		vectors, err = s.deps.Embedder.Embed(ctx, []string{query})
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding query: %v", err)), nil
	}
	if len(vectors) == 0 {
		return mcp.NewToolResultError("embedding query: no vector returned"), nil
	}

	var results []vectordb.SearchResult
	err = llm.RunWithTimeout(ctx, s.deps.Timeout, "searching "+subject, func(ctx context.Context) error {
		var err error
		results, err = s.deps.Index.Search(ctx, subject, vectors[0], limit)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No pages found in %s.", subject)), nil
	}

	return mcp.NewToolResultText(vectordb.FormatResults(subject, results)), nil
}

// handleGetPage returns one page's text.
func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := request.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: subject"), nil
	}
	if !s.knownSubject(subject) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown subject %q", subject)), nil
	}
	page := request.GetInt("page", 0)
	if page < 1 {
		return mcp.NewToolResultError("page must be a number starting at 1"), nil
	}

	text, err := s.deps.Pages.Page(ctx, subject, page-1)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading page: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s, page %d:\n\n%s", subject, page, text)), nil
}

// handleListSubjects lists the configured subjects.
func (s *Server) handleListSubjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d subject(s):\n", len(s.deps.Subjects))
	for _, subj := range s.deps.Subjects {
		status := "not indexed"
		if m, err := s.deps.Index.Manifest(subj.ID); err == nil {
			status = fmt.Sprintf("%d pages indexed", m.Pages)
		}
		fmt.Fprintf(&sb, "- %s (%s): %s\n", subj.ID, status, subj.Description)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSummarizePages summarizes the requested pages.
func (s *Server) handleSummarizePages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject, err := request.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: subject"), nil
	}
	if !s.knownSubject(subject) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown subject %q", subject)), nil
	}
	spec, err := request.RequireString("pages")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: pages"), nil
	}
	set, err := rag.ParsePageList(spec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.deps.Summarizer.Summarize(ctx, subject, set)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summarize failed: %v", err)), nil
	}
	return mcp.NewToolResultText(summary), nil
}

func (s *Server) knownSubject(id string) bool {
	for _, subj := range s.deps.Subjects {
		if subj.ID == id {
			return true
		}
	}
	return false
}
