package animation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/askbook/internal/llm"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"python fence", "Here:\n```python\nfrom manim import *\n```\nDone", "from manim import *"},
		{"bare fence", "```\nprint(1)\n```", "print(1)"},
		{"first block wins", "```python\na = 1\n```\n```python\nb = 2\n```", "a = 1"},
		{"no fence", "  from manim import *  ", "from manim import *"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCode(tt.reply); got != tt.want {
				t.Errorf("ExtractCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

// fakeRunner records the command and optionally writes the video.
type fakeRunner struct {
	dir    string
	args   []string
	write  bool
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.dir = dir
	f.args = append([]string{name}, args...)
	if f.write {
		video := videoPath(dir)
		if err := os.MkdirAll(filepath.Dir(video), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(video, []byte("mp4"), 0o644); err != nil {
			return nil, err
		}
	}
	return []byte(f.stderr), f.err
}

func TestRenderSuccess(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{write: true}
	r := NewRenderer(dir, runner)

	video, err := r.Render(context.Background(), "from manim import *\n")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasSuffix(video, filepath.Join("media", "videos", "generated_scene", "480p15", "output.mp4")) {
		t.Errorf("video path: %s", video)
	}
	if got := strings.Join(runner.args, " "); got != "manim generated_scene.py -ql -o output" {
		t.Errorf("command: %s", got)
	}
	code, err := os.ReadFile(filepath.Join(dir, sceneFile))
	if err != nil || string(code) != "from manim import *\n" {
		t.Errorf("scene file: %q, %v", code, err)
	}
}

func TestRenderFailureCarriesStderr(t *testing.T) {
	r := NewRenderer(t.TempDir(), &fakeRunner{stderr: "NameError: Circl\n", err: errors.New("exit status 1")})

	_, err := r.Render(context.Background(), "bad")
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RenderError, got %v", err)
	}
	if re.Stderr != "NameError: Circl" || !errors.Is(err, ErrRender) {
		t.Errorf("unexpected error: %+v", re)
	}
}

func TestRenderMissingVideo(t *testing.T) {
	dir := t.TempDir()
	// A video left by an earlier run must not count as this run's output.
	stale := videoPath(dir)
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewRenderer(dir, &fakeRunner{}).Render(context.Background(), "code")
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
}

type recordingProvider struct {
	mu    sync.Mutex
	reply string
	reqs  []llm.CompletionRequest
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	return &llm.CompletionResponse{Content: p.reply}, nil
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "page_13_img_0_0.png")
	if err := os.WriteFile(img, []byte("\x89PNG"), 0o644); err != nil {
		t.Fatal(err)
	}

	planner := &recordingProvider{reply: "Scene: process lifecycle"}
	coder := &recordingProvider{reply: "```python\nclass AnimationScene(Scene): pass\n```"}
	g := NewGenerator(planner, "fast", coder, "manim-coder", NewRenderer(filepath.Join(dir, "temp"), &fakeRunner{write: true}), nil)

	res, err := g.Generate(context.Background(), "What is a process?", []string{img})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Plan != "Scene: process lifecycle" || res.Code != "class AnimationScene(Scene): pass" || res.VideoPath == "" {
		t.Errorf("unexpected result: %+v", res)
	}

	planReq := planner.reqs[0]
	if planReq.Model != "fast" || len(planReq.Messages[0].Images) != 1 {
		t.Errorf("plan request should carry the figure: %+v", planReq)
	}
	codeReq := coder.reqs[0]
	if codeReq.Model != "manim-coder" || !strings.Contains(codeReq.Messages[0].Content, "Scene: process lifecycle") {
		t.Errorf("code request should carry the plan: %+v", codeReq)
	}
}

func TestGenerateMissingImage(t *testing.T) {
	g := NewGenerator(&recordingProvider{}, "fast", &recordingProvider{}, "coder", NewRenderer(t.TempDir(), &fakeRunner{}), nil)
	if _, err := g.Generate(context.Background(), "q", []string{"/does/not/exist.png"}); err == nil {
		t.Error("expected an error for a missing figure")
	}
}
