package animation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	sceneFile   = "generated_scene.py"
	outputName  = "output"
	qualityFlag = "-ql"
)

// ErrRender matches every *RenderError.
var ErrRender = errors.New("animation render failed")

// RenderError reports a failed manim run. Stderr holds the tool's output.
type RenderError struct {
	Stderr string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("rendering animation: %v", e.Err)
	}
	return fmt.Sprintf("rendering animation: %v: %s", e.Err, e.Stderr)
}

func (e *RenderError) Unwrap() error        { return e.Err }
func (e *RenderError) Is(target error) bool { return target == ErrRender }

// Runner executes a command in dir and returns its standard error.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stderr []byte, err error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Renderer turns scene code into a video with the manim CLI.
type Renderer struct {
	dir    string
	binary string
	runner Runner
}

// NewRenderer creates a Renderer working in dir. A nil runner uses
// ExecRunner.
func NewRenderer(dir string, runner Runner) *Renderer {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Renderer{dir: dir, binary: "manim", runner: runner}
}

// VideoPath is where manim writes the low quality render of the scene.
func (r *Renderer) VideoPath() string {
	return videoPath(r.dir)
}

func videoPath(dir string) string {
	return filepath.Join(dir, "media", "videos", "generated_scene", "480p15", outputName+".mp4")
}

// Render writes code to the scene file and renders it, returning the
// video path.
func (r *Renderer) Render(ctx context.Context, code string) (string, error) {
	dir, err := filepath.Abs(r.dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", r.dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, sceneFile), []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("writing scene: %w", err)
	}

	video := videoPath(dir)
	// Drop a stale render so a run that produces nothing is detected.
	if err := os.Remove(video); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("removing old render: %w", err)
	}

	stderr, err := r.runner.Run(ctx, dir, r.binary, sceneFile, qualityFlag, "-o", outputName)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &RenderError{Stderr: string(bytes.TrimSpace(stderr)), Err: err}
	}
	if _, err := os.Stat(video); err != nil {
		return "", &RenderError{Stderr: string(bytes.TrimSpace(stderr)), Err: fmt.Errorf("video not found at %s", video)}
	}
	return video, nil
}
