package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/askbook/internal/config"
	"github.com/ziadkadry99/askbook/internal/embeddings"
	"github.com/ziadkadry99/askbook/internal/history"
	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/rag"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Asker answers a question end to end.
type Asker interface {
	Ask(ctx context.Context, query string, observe rag.Observer) (*rag.Answer, error)
}

// PageSummarizer condenses a set of pages.
type PageSummarizer interface {
	Summarize(ctx context.Context, subject string, set rag.PageSet) (string, error)
}

// Recorder stores the outcome of asked questions.
type Recorder interface {
	Record(ctx context.Context, query string, ans *rag.Answer, askErr error, took time.Duration) (*history.Entry, error)
}

// Deps are the collaborators the tools call into. Summarizer, History and
// Logger may be nil. Timeout bounds each embed and search call of
// search_pages; zero means unbounded.
type Deps struct {
	Pipeline   Asker
	Index      vectordb.SubjectIndex
	Embedder   embeddings.Embedder
	Pages      pages.Store
	Summarizer PageSummarizer
	History    Recorder
	Subjects   []config.Subject
	TopK       int
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Server wraps an MCP server that exposes the textbook library as tools.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	if deps.TopK <= 0 {
		deps.TopK = vectordb.DefaultK
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"askbook",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askTool, s.handleAsk)
	s.mcp.AddTool(searchPagesTool, s.handleSearchPages)
	s.mcp.AddTool(getPageTool, s.handleGetPage)
	s.mcp.AddTool(listSubjectsTool, s.handleListSubjects)
	if s.deps.Summarizer != nil {
		s.mcp.AddTool(summarizePagesTool, s.handleSummarizePages)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
