package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/askbook/internal/animation"
	"github.com/ziadkadry99/askbook/internal/config"
	"github.com/ziadkadry99/askbook/internal/db"
	"github.com/ziadkadry99/askbook/internal/embeddings"
	"github.com/ziadkadry99/askbook/internal/history"
	"github.com/ziadkadry99/askbook/internal/llm"
	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/rag"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `askbook init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// buildEmbedder creates the page and query encoder. Both sides of the
// index must use the same one.
func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	return embeddings.New(string(provider), cfg.EmbeddingModel, cfg.EmbeddingDimensions, embeddingBaseURL(cfg, provider))
}

// embeddingBaseURL picks the embedder endpoint. base_url belongs to the
// chat provider, so it is only reused when both providers are the same.
func embeddingBaseURL(cfg *config.Config, provider config.ProviderType) string {
	if cfg.EmbeddingBaseURL != "" {
		return cfg.EmbeddingBaseURL
	}
	if provider == cfg.Provider {
		return cfg.BaseURL
	}
	return ""
}

// buildProvider creates the completion provider with rate limiting and the
// per-call timeout applied. model is the provider's default; components
// still name their model on each request.
func buildProvider(cfg *config.Config, model string) (llm.Provider, error) {
	p, err := llm.NewProvider(string(cfg.Provider), model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	p = llm.NewRateLimitedProvider(p, cfg.RequestsPerMinute)
	return llm.WithTimeout(p, cfg.LLMTimeout), nil
}

// openDatabase opens the askbook database under the data directory.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return db.Open(filepath.Join(cfg.DataDir, db.FileName))
}

// app holds everything a question-answering command needs.
type app struct {
	cfg      *config.Config
	db       *db.DB
	embedder embeddings.Embedder
	index    *vectordb.ChromemIndex
	pages    pages.Store
	figures  *pages.Figures
	meter    *llm.UsageMeter
	pipeline *rag.Pipeline
	history  *history.Store
}

// newApp wires the question pipeline from cfg.
func newApp(cfg *config.Config) (*app, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	provider, err := buildProvider(cfg, cfg.FastModel)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		db:       database,
		embedder: embedder,
		index:    vectordb.NewChromemIndex(cfg.IndexDir, embedder),
		figures:  pages.NewFigures(cfg.ImagesDir, cfg.CaptionsDir),
		meter:    llm.NewUsageMeter(provider),
		history:  history.NewStore(database),
	}
	if cfg.PageStore == config.PageStoreSQLite {
		a.pages = pages.NewSQLiteStore(database)
	} else {
		a.pages = pages.NewPDFStore(cfg.PDFDir)
	}

	a.pipeline = rag.NewPipeline(rag.Components{
		Classifier:     rag.NewClassifier(a.meter, cfg.FastModel, cfg.Subjects),
		Expander:       rag.NewExpander(a.meter, cfg.FastModel),
		Retriever:      rag.NewRetriever(embedder, a.index, cfg.TopK, cfg.IndexTimeout),
		Synthesizer:    rag.NewSynthesizer(a.meter, cfg.ReasoningModel, a.pages, cfg.MaxConcurrency),
		Figures:        a.figures,
		ExpansionCount: cfg.ExpansionCount,
		Logger:         logger,
	})
	return a, nil
}

func (a *app) summarizer() *rag.Summarizer {
	return rag.NewSummarizer(a.meter, a.cfg.FastModel, a.pages)
}

// animator builds the animation generator. Scenes are planned by the fast
// (vision) model and written by the animation model.
func (a *app) animator() (*animation.Generator, error) {
	dir, err := filepath.Abs(a.cfg.TempDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	coder, err := buildProvider(a.cfg, a.cfg.AnimationModel)
	if err != nil {
		return nil, fmt.Errorf("creating animation provider: %w", err)
	}
	renderer := animation.NewRenderer(dir, animation.ExecRunner{})
	return animation.NewGenerator(a.meter, a.cfg.FastModel, llm.NewUsageMeter(coder), a.cfg.AnimationModel, renderer, logger), nil
}

// figurePaths lists the image files cited by ans, in citation order.
func figurePaths(ans *rag.Answer) []string {
	var paths []string
	for _, subject := range ans.Subjects {
		for _, f := range ans.Figures[subject] {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// indexHint adds a pointer to `askbook index` when err means no index has
// been built yet.
func indexHint(err error) error {
	if errors.Is(err, vectordb.ErrIndexNotFound) {
		return fmt.Errorf("%w\nRun `askbook index` to build the subject indexes", err)
	}
	return err
}

func (a *app) Close() error {
	return a.db.Close()
}
