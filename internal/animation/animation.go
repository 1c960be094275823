// Package animation generates and renders short Manim animations that
// explain a question, using textbook figures as visual hints.
package animation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/ziadkadry99/askbook/internal/llm"
)

var fencedCode = regexp.MustCompile("(?s)```(?:python)?\\n(.*?)```")

// ExtractCode returns the body of the first fenced code block of a model
// reply, or the whole reply when it has none.
func ExtractCode(reply string) string {
	if m := fencedCode.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}

// Result is a rendered animation and the steps that produced it.
type Result struct {
	Plan      string `json:"plan"`
	Code      string `json:"code"`
	VideoPath string `json:"video_path"`
}

// Generator plans a scene with a vision-capable model, writes it with a
// code model and renders it.
type Generator struct {
	planner   llm.Provider
	planModel string
	coder     llm.Provider
	codeModel string
	renderer  *Renderer
	logger    *slog.Logger
}

func NewGenerator(planner llm.Provider, planModel string, coder llm.Provider, codeModel string, renderer *Renderer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		planner:   planner,
		planModel: planModel,
		coder:     coder,
		codeModel: codeModel,
		renderer:  renderer,
		logger:    logger,
	}
}

// Plan describes the scene for query. The images at imagePaths are sent
// along with the prompt.
func (g *Generator) Plan(ctx context.Context, query string, imagePaths []string) (string, error) {
	images := make([][]byte, 0, len(imagePaths))
	for _, p := range imagePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("reading figure %s: %w", p, err)
		}
		images = append(images, data)
	}

	resp, err := g.planner.Complete(ctx, llm.UserPrompt(g.planModel, buildPlanPrompt(query, len(images)), images...))
	if err != nil {
		return "", fmt.Errorf("planning animation: %w", err)
	}
	return resp.Content, nil
}

// Code turns a scene plan into Manim source.
func (g *Generator) Code(ctx context.Context, plan string) (string, error) {
	resp, err := g.coder.Complete(ctx, llm.UserPrompt(g.codeModel, buildCodePrompt(plan)))
	if err != nil {
		return "", fmt.Errorf("generating scene code: %w", err)
	}
	code := ExtractCode(resp.Content)
	if code == "" {
		return "", fmt.Errorf("generating scene code: empty reply")
	}
	return code, nil
}

// Generate runs plan, code and render for query.
func (g *Generator) Generate(ctx context.Context, query string, imagePaths []string) (*Result, error) {
	g.logger.Info("planning animation", "images", len(imagePaths))
	plan, err := g.Plan(ctx, query, imagePaths)
	if err != nil {
		return nil, err
	}

	g.logger.Info("writing scene code", "model", g.codeModel)
	code, err := g.Code(ctx, plan)
	if err != nil {
		return nil, err
	}

	g.logger.Info("rendering scene")
	video, err := g.renderer.Render(ctx, code)
	if err != nil {
		return &Result{Plan: plan, Code: code}, err
	}
	return &Result{Plan: plan, Code: code, VideoPath: video}, nil
}
