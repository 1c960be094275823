package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ziadkadry99/askbook/internal/config"
	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/rag"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

func TestFigurePathsFollowSubjectOrder(t *testing.T) {
	ans := &rag.Answer{
		Subjects: []string{"OS", "DBMS"},
		Figures: map[string][]rag.CitedFigure{
			"DBMS": {{Position: 3, Figure: pages.Figure{Path: "images/DBMS/page_4_img1.png"}}},
			"OS": {
				{Position: 11, Figure: pages.Figure{Path: "images/OS/page_12_img1.png"}},
				{Position: 11, Figure: pages.Figure{Path: "images/OS/page_12_img2.png"}},
			},
		},
	}
	got := figurePaths(ans)
	want := []string{"images/OS/page_12_img1.png", "images/OS/page_12_img2.png", "images/DBMS/page_4_img1.png"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("figurePaths = %v, want %v", got, want)
	}
}

func TestIndexHint(t *testing.T) {
	err := indexHint(&vectordb.IndexNotFoundError{Subject: "OS", Dir: "index"})
	if !strings.Contains(err.Error(), "askbook index") {
		t.Errorf("expected a hint, got %q", err)
	}
	if !errors.Is(err, vectordb.ErrIndexNotFound) {
		t.Error("hint should keep the original error")
	}

	other := errors.New("boom")
	if indexHint(other) != other {
		t.Error("unrelated errors should pass through")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	if newLogger(false).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be off without verbose")
	}
	if !newLogger(true).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be on with verbose")
	}
}

// testConfig returns the default config with every directory under a
// temporary root.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(root, "data")
	cfg.TempDir = filepath.Join(root, "temp")
	cfg.IndexDir = filepath.Join(root, "index")
	return cfg
}

func TestAnimatorPlansWithFastModel(t *testing.T) {
	models := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		models <- req.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"` + req.Model + `","message":{"role":"assistant","content":"a circle grows"},"done":true}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.BaseURL = srv.URL
	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	gen, err := a.animator()
	if err != nil {
		t.Fatalf("animator: %v", err)
	}
	plan, err := gen.Plan(context.Background(), "What is a process?", nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan != "a circle grows" {
		t.Errorf("plan = %q", plan)
	}
	if got := <-models; got != cfg.FastModel {
		t.Errorf("plan requested with model %q, want %q", got, cfg.FastModel)
	}
}

// embedServer answers Ollama /api/embed calls with 3-dimensional vectors
// and counts every request it sees.
func embedServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[[1,0,0]]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildEmbedderEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		provider  config.ProviderType
		useOwnURL bool
		wantEmbed bool
		wantChat  bool
	}{
		{name: "other chat provider keeps the embedder default", provider: config.ProviderOpenAI, wantEmbed: true},
		{name: "same provider reuses base_url", provider: config.ProviderOllama, wantChat: true},
		{name: "embedding_base_url wins", provider: config.ProviderOllama, useOwnURL: true, wantEmbed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var chatHits, embedHits, hostHits atomic.Int32
			chatSrv := embedServer(t, &chatHits)
			embedSrv := embedServer(t, &embedHits)
			hostSrv := embedServer(t, &hostHits)

			t.Setenv("OPENAI_API_KEY", "sk-test")
			cfg := testConfig(t)
			cfg.Provider = tt.provider
			cfg.BaseURL = chatSrv.URL
			cfg.EmbeddingProvider = config.ProviderOllama
			cfg.EmbeddingDimensions = 3
			if tt.useOwnURL {
				cfg.EmbeddingBaseURL = embedSrv.URL
				t.Setenv("OLLAMA_HOST", hostSrv.URL)
			} else {
				// Without an explicit endpoint the Ollama embedder falls
				// back to OLLAMA_HOST.
				t.Setenv("OLLAMA_HOST", embedSrv.URL)
			}

			e, err := buildEmbedder(cfg)
			if err != nil {
				t.Fatalf("buildEmbedder: %v", err)
			}
			vectors, err := e.Embed(context.Background(), []string{"process"})
			if err != nil {
				t.Fatalf("Embed: %v", err)
			}
			if len(vectors) != 1 || len(vectors[0]) != 3 {
				t.Fatalf("unexpected vectors %v", vectors)
			}

			if got := embedHits.Load() > 0; got != tt.wantEmbed {
				t.Errorf("embedding endpoint hit = %v, want %v", got, tt.wantEmbed)
			}
			if got := chatHits.Load() > 0; got != tt.wantChat {
				t.Errorf("chat endpoint hit = %v, want %v", got, tt.wantChat)
			}
			if hostHits.Load() > 0 {
				t.Error("OLLAMA_HOST used despite embedding_base_url")
			}
		})
	}
}
