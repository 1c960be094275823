package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// Index is the subset of the subject index the builder needs.
type Index interface {
	Build(ctx context.Context, subject string, docs []vectordb.Document) (*vectordb.Manifest, error)
	Exists(subject string) bool
}

// Pipeline orchestrates the offline build: discover -> extract -> embed -> persist.
type Pipeline struct {
	index       Index
	cache       *pages.SQLiteStore
	indexDir    string
	concurrency int
	logger      *slog.Logger
	onProgress  ProgressFunc
}

// NewPipeline creates a new Pipeline writing indexes through index and
// state under indexDir. cache may be nil when the page cache is not used.
func NewPipeline(index Index, cache *pages.SQLiteStore, indexDir string, concurrency int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		index:       index,
		cache:       cache,
		indexDir:    indexDir,
		concurrency: concurrency,
		logger:      logger,
	}
}

// SetProgressFunc sets the progress callback.
func (p *Pipeline) SetProgressFunc(fn ProgressFunc) {
	p.onProgress = fn
}

// Run indexes sources. A subject whose index exists and whose PDF is
// unchanged since the last build is skipped unless force is set.
func (p *Pipeline) Run(ctx context.Context, sources []Source, force bool) (*Result, error) {
	start := time.Now()
	result := &Result{}

	state, err := LoadState(p.indexDir)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var pending []Source
	for _, src := range sources {
		if !force && p.index.Exists(src.Subject) && !state.IsChanged(src.Subject, src.ContentHash) {
			p.logger.Info("subject already indexed", "subject", src.Subject)
			result.Subjects = append(result.Subjects, SubjectResult{Subject: src.Subject, Skipped: true})
			result.Skipped++
			continue
		}
		pending = append(pending, src)
	}

	if len(pending) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	batcher := NewBatcher(p.concurrency, p.buildSubject, p.onProgress)
	for i, sr := range batcher.Process(ctx, pending) {
		result.Subjects = append(result.Subjects, sr)
		if sr.Err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("index %s: %w", sr.Subject, sr.Err))
			p.logger.Error("indexing failed", "subject", sr.Subject, "error", sr.Err)
			continue
		}
		result.Built++
		state.SourceHashes[sr.Subject] = pending[i].ContentHash
		p.logger.Info("subject indexed", "subject", sr.Subject, "pages", sr.Pages, "duration", sr.Duration.Round(time.Millisecond))
	}

	if err := state.SaveState(p.indexDir); err != nil {
		return result, fmt.Errorf("save state: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// buildSubject extracts every page of the subject's PDF, embeds the pages
// in order and persists the index and page cache.
func (p *Pipeline) buildSubject(ctx context.Context, src Source) (int, error) {
	p.logger.Debug("extracting pages", "subject", src.Subject, "file", src.RelPath)
	texts, err := pages.ExtractPages(ctx, src.Path)
	if err != nil {
		return 0, err
	}
	if len(texts) == 0 {
		return 0, fmt.Errorf("%s has no pages", src.RelPath)
	}

	docs := make([]vectordb.Document, len(texts))
	for pos, text := range texts {
		docs[pos] = vectordb.Document{Position: pos, Content: text}
	}

	manifest, err := p.index.Build(ctx, src.Subject, docs)
	if err != nil {
		return 0, err
	}

	if p.cache != nil {
		build := pages.Build{Subject: src.Subject, SourcePath: src.Path, SourceHash: src.ContentHash}
		if err := p.cache.ReplacePages(ctx, build, texts); err != nil {
			return 0, fmt.Errorf("caching pages: %w", err)
		}
	}

	return manifest.Pages, nil
}
