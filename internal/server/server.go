// Package server exposes the question pipeline over HTTP: a JSON API, a
// websocket that streams pipeline stages and a small browser UI.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/askbook/internal/animation"
	"github.com/ziadkadry99/askbook/internal/config"
	"github.com/ziadkadry99/askbook/internal/history"
	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/rag"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool          // allow all CORS origins (dev mode)
	RequestTimeout time.Duration // bound on one API request; zero means 5m
}

// Asker answers a question end to end.
type Asker interface {
	Ask(ctx context.Context, query string, observe rag.Observer) (*rag.Answer, error)
}

// Animator renders an explanatory animation.
type Animator interface {
	Generate(ctx context.Context, query string, imagePaths []string) (*animation.Result, error)
}

// Manifester reports what has been indexed for a subject.
type Manifester interface {
	Manifest(subject string) (*vectordb.Manifest, error)
}

// Deps are the collaborators behind the routes. History and Animator may
// be nil, which disables history recording and animation.
type Deps struct {
	Pipeline Asker
	History  *history.Store
	Figures  *pages.Figures
	Index    Manifester
	Animator Animator
	Subjects []config.Subject
	Logger   *slog.Logger
}

// Server is the askbook web server.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server

	// animating serialises renders, which share one working directory.
	animating sync.Mutex
	videoMu   sync.RWMutex
	lastVideo string
}

// New creates a server with all dependencies wired into its router.
func New(cfg Config, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", s.serveIndex)
	r.Get("/figures/{subject}/{file}", s.handleFigure)
	// Websocket connections outlive the request timeout.
	r.Get("/ws/ask", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Post("/api/ask", s.handleAsk)
		r.Get("/api/subjects", s.handleSubjects)
		r.Post("/api/animate", s.handleAnimate)
		r.Get("/api/animate/video", s.handleVideo)
		if s.deps.History != nil {
			history.RegisterRoutes(r, s.deps.History)
		}
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("askbook server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
