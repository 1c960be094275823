package vectordb

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text.
// Similar texts will produce similar vectors because shared characters contribute
// to the same positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	// Normalize
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

var osPages = []string{
	"A process is a program in execution with its own address space",
	"Threads share the address space of their process",
	"Virtual memory maps pages to frames using a page table",
	"The scheduler picks the next process to run on the CPU",
	"Deadlock requires mutual exclusion, hold and wait, no preemption and circular wait",
	"File systems organise blocks into directories and inodes",
	"Semaphores and mutexes protect critical sections",
}

func buildDocs(texts []string) []Document {
	docs := make([]Document, len(texts))
	for i, t := range texts {
		docs[i] = Document{Position: i, Content: t}
	}
	return docs
}

func TestChromemIndex_BuildAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)
	idx := NewChromemIndex(t.TempDir(), embedder)

	manifest, err := idx.Build(ctx, "OS", buildDocs(osPages))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if manifest.Pages != len(osPages) || manifest.Dimensions != 64 || manifest.Subject != "OS" {
		t.Errorf("unexpected manifest: %+v", manifest)
	}

	// A page's own text is its nearest neighbour.
	query := embedder.deterministicVector(osPages[2])
	results, err := idx.Search(ctx, "OS", query, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Position != 2 {
		t.Errorf("expected page position 2 first, got %d", results[0].Position)
	}
	if results[0].Distance > 1e-3 {
		t.Errorf("expected ~0 distance for identical text, got %f", results[0].Distance)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("results not ordered by distance: %v", results)
		}
	}
}

func TestChromemIndex_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	embedder := newMockEmbedder(64)

	if _, err := NewChromemIndex(dir, embedder).Build(ctx, "OS", buildDocs(osPages)); err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, name := range []string{dbFileName, manifestName} {
		if _, err := os.Stat(filepath.Join(dir, "OS", name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}

	// A fresh index reads what the first one wrote.
	fresh := NewChromemIndex(dir, embedder)
	if !fresh.Exists("OS") {
		t.Fatal("expected OS index to exist")
	}
	results, err := fresh.Search(ctx, "OS", embedder.deterministicVector(osPages[4]), 1)
	if err != nil {
		t.Fatalf("Search after reload: %v", err)
	}
	if len(results) != 1 || results[0].Position != 4 {
		t.Errorf("expected position 4, got %+v", results)
	}
	if results[0].Content != osPages[4] {
		t.Errorf("unexpected content %q", results[0].Content)
	}
}

func TestChromemIndex_MissingIndex(t *testing.T) {
	idx := NewChromemIndex(t.TempDir(), newMockEmbedder(64))

	_, err := idx.Search(context.Background(), "DBMS", make([]float32, 64), 5)
	if err == nil {
		t.Fatal("expected error for missing index")
	}
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
	var nf *IndexNotFoundError
	if !errors.As(err, &nf) || nf.Subject != "DBMS" {
		t.Errorf("expected IndexNotFoundError naming DBMS, got %v", err)
	}
	if idx.Exists("DBMS") {
		t.Error("Exists should be false")
	}
}

func TestChromemIndex_ManifestWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	embedder := newMockEmbedder(64)
	if _, err := NewChromemIndex(dir, embedder).Build(ctx, "OS", buildDocs(osPages)); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "OS", dbFileName)); err != nil {
		t.Fatal(err)
	}

	_, err := NewChromemIndex(dir, embedder).Search(ctx, "OS", make([]float32, 64), 5)
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestChromemIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if _, err := NewChromemIndex(dir, newMockEmbedder(64)).Build(ctx, "OS", buildDocs(osPages)); err != nil {
		t.Fatal(err)
	}

	// Querying with a 384-dimensional vector against a 64-dimensional index.
	idx := NewChromemIndex(dir, newMockEmbedder(384))
	_, err := idx.Search(ctx, "OS", newMockEmbedder(384).deterministicVector("process"), 5)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	var de *DimensionError
	if !errors.As(err, &de) || de.Want != 64 || de.Got != 384 {
		t.Errorf("unexpected dimension error: %v", err)
	}
}

func TestChromemIndex_ClampsK(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(32)
	idx := NewChromemIndex(t.TempDir(), embedder)
	if _, err := idx.Build(ctx, "AI", buildDocs(osPages[:3])); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, "AI", embedder.deterministicVector("search"), 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected k clamped to 3, got %d", len(results))
	}
}

func TestChromemIndex_DefaultK(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(32)
	idx := NewChromemIndex(t.TempDir(), embedder)
	if _, err := idx.Build(ctx, "OS", buildDocs(osPages)); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, "OS", embedder.deterministicVector("memory"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != DefaultK {
		t.Errorf("expected %d results, got %d", DefaultK, len(results))
	}
}

func TestChromemIndex_RebuildReplaces(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(32)
	idx := NewChromemIndex(t.TempDir(), embedder)
	if _, err := idx.Build(ctx, "OS", buildDocs(osPages)); err != nil {
		t.Fatal(err)
	}
	// Load into the cache before rebuilding.
	if _, err := idx.Search(ctx, "OS", embedder.deterministicVector("x"), 1); err != nil {
		t.Fatal(err)
	}

	if _, err := idx.Build(ctx, "OS", buildDocs(osPages[:2])); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "OS", embedder.deterministicVector("x"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected rebuilt index with 2 pages, got %d", len(results))
	}

	entries, err := os.ReadDir(idx.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("temp dir %s left behind", e.Name())
		}
	}
}

func TestChromemIndex_BlankPagesKeepPositions(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(32)
	idx := NewChromemIndex(t.TempDir(), embedder)
	docs := buildDocs([]string{"cover", "", "chapter one"})
	manifest, err := idx.Build(ctx, "CAO", docs)
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", manifest.Pages)
	}
}

func TestChromemIndex_BuildEmpty(t *testing.T) {
	idx := NewChromemIndex(t.TempDir(), newMockEmbedder(32))
	if _, err := idx.Build(context.Background(), "OS", nil); err == nil {
		t.Error("expected error for empty build")
	}
}

func TestL2FromCosine(t *testing.T) {
	if d := l2FromCosine(1); d != 0 {
		t.Errorf("identical vectors: got %f", d)
	}
	if d := l2FromCosine(0); math.Abs(float64(d)-math.Sqrt2) > 1e-6 {
		t.Errorf("orthogonal vectors: got %f", d)
	}
	if d := l2FromCosine(-1); math.Abs(float64(d)-2) > 1e-6 {
		t.Errorf("opposite vectors: got %f", d)
	}
}

func TestFormatResults(t *testing.T) {
	if got := FormatResults("OS", nil); got != "No results found." {
		t.Errorf("unexpected empty output %q", got)
	}
	out := FormatResults("OS", []SearchResult{{Position: 11, Content: "A process is...", Distance: 0.5}})
	if !strings.Contains(out, "page 12") {
		t.Errorf("expected one-based page number in %q", out)
	}
	if !strings.Contains(out, "A process is...") {
		t.Errorf("expected content in %q", out)
	}
}

func TestPositions(t *testing.T) {
	got := Positions([]SearchResult{{Position: 3}, {Position: 1}})
	if len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Errorf("unexpected positions %v", got)
	}
}

func TestChromemEmbedFunc(t *testing.T) {
	fn := chromemEmbedFunc(newMockEmbedder(8))
	v, err := fn(context.Background(), "process")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 8 {
		t.Errorf("expected 8 dimensions, got %d", len(v))
	}

	if _, err := chromemEmbedFunc(nil)(context.Background(), "x"); err == nil {
		t.Error("expected an error without an embedder")
	}
}
