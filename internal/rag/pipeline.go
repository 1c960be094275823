package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

// SubjectClassifier picks the subjects relevant to a question.
type SubjectClassifier interface {
	Classify(ctx context.Context, query string) ([]string, error)
}

// QueryExpander paraphrases a question.
type QueryExpander interface {
	Expand(ctx context.Context, query string, count int) ([]string, error)
}

// PageRetriever finds relevant pages per subject.
type PageRetriever interface {
	Retrieve(ctx context.Context, subjects, queries []string) (RetrievalResult, error)
}

// AnswerSynthesizer writes the per-subject answers.
type AnswerSynthesizer interface {
	SynthesizeAll(ctx context.Context, retrieval RetrievalResult, subjects []string, query string) []SubjectAnswer
}

// FigureSource lists the figures extracted from a page.
type FigureSource interface {
	Figures(subject string, position int) ([]pages.Figure, error)
}

// Components are the collaborators of a Pipeline. Figures and Logger may
// be nil.
type Components struct {
	Classifier     SubjectClassifier
	Expander       QueryExpander
	Retriever      PageRetriever
	Synthesizer    AnswerSynthesizer
	Figures        FigureSource
	ExpansionCount int
	Logger         *slog.Logger
}

// Pipeline answers questions: classify, expand, retrieve, synthesize.
type Pipeline struct {
	c      Components
	logger *slog.Logger
}

func NewPipeline(c Components) *Pipeline {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{c: c, logger: logger}
}

// Ask runs the full pipeline for query. observe may be nil. Failures that
// only affect one stage or one subject are reported in Answer.Warnings or
// on the subject's answer; Ask returns an error only when no answer can be
// produced at all.
func (p *Pipeline) Ask(ctx context.Context, query string, observe Observer) (*Answer, error) {
	start := time.Now()
	emit := func(stage Stage, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		p.logger.Debug("pipeline stage", "stage", stage, "message", msg)
		if observe != nil {
			observe(Event{Stage: stage, Message: msg})
		}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ans := &Answer{
		Query:  query,
		Status: StatusAnswered,
		Pages:  make(RetrievalResult),
	}
	finish := func() *Answer {
		ans.Duration = time.Since(start)
		emit(StageDone, "finished in %s", ans.Duration.Round(time.Millisecond))
		p.logger.Info("question answered",
			"status", ans.Status,
			"subjects", ans.Subjects,
			"warnings", len(ans.Warnings),
			"duration", ans.Duration,
		)
		return ans
	}

	emit(StageClassify, "identifying relevant subjects")
	subjects, err := p.c.Classifier.Classify(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.warn(ans, err)
	}
	if len(subjects) == 0 {
		ans.Status = StatusNoSubject
		ans.Warnings = append(ans.Warnings, "no relevant subject found for the question")
		return finish(), nil
	}
	ans.Subjects = subjects

	emit(StageExpand, "generating similar queries")
	queries, err := p.c.Expander.Expand(ctx, query, p.c.ExpansionCount)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.warn(ans, err)
	}
	if len(queries) == 0 {
		queries = []string{query}
	}
	ans.Queries = queries

	emit(StageRetrieve, "searching %s", strings.Join(subjects, ", "))
	retrieval, err := p.c.Retriever.Retrieve(ctx, subjects, queries)
	if err != nil {
		if retrieval == nil || ctx.Err() != nil || errors.Is(err, vectordb.ErrDimensionMismatch) {
			return nil, fmt.Errorf("retrieving pages: %w", err)
		}
		if len(retrieval) == 0 {
			return nil, fmt.Errorf("no searchable subject among %s: %w", strings.Join(subjects, ", "), err)
		}
	}
	ans.Pages = retrieval
	failures := subjectErrors(err)

	emit(StageSynthesize, "answering from %d subject(s)", len(retrieval))
	synthesized := p.c.Synthesizer.SynthesizeAll(ctx, retrieval, subjects, query)
	bySubject := make(map[string]SubjectAnswer, len(synthesized))
	for _, a := range synthesized {
		bySubject[a.Subject] = a
	}
	for _, subject := range subjects {
		a, ok := bySubject[subject]
		if !ok {
			cause := failures[subject]
			if cause == nil {
				cause = errors.New("no pages retrieved")
			}
			a = SubjectAnswer{Subject: subject, Failed: true, Error: (&SubjectError{Subject: subject, Err: cause}).Error()}
		}
		if a.Failed {
			ans.Warnings = append(ans.Warnings, a.Error)
			p.logger.Warn("subject failed", "subject", subject, "error", a.Error)
		}
		ans.Answers = append(ans.Answers, a)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if p.c.Figures != nil {
		emit(StageFigures, "collecting figures")
		ans.Figures = p.collectFigures(retrieval)
	}
	return finish(), nil
}

func (p *Pipeline) warn(ans *Answer, err error) {
	ans.Warnings = append(ans.Warnings, err.Error())
	p.logger.Warn("pipeline degraded", "error", err)
}

func (p *Pipeline) collectFigures(retrieval RetrievalResult) map[string][]CitedFigure {
	out := make(map[string][]CitedFigure)
	for _, subject := range retrieval.Subjects() {
		for _, pos := range retrieval[subject].Sorted() {
			figs, err := p.c.Figures.Figures(subject, pos)
			if err != nil {
				p.logger.Warn("reading figures", "subject", subject, "page", pages.DisplayNumber(pos), "error", err)
				continue
			}
			for _, f := range figs {
				out[subject] = append(out[subject], CitedFigure{Position: pos, Figure: f})
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
