package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/askbook/internal/embeddings"
)

const (
	collectionName = "pages"
	dbFileName     = "chromem.gob.gz"
	manifestName   = "manifest.json"

	// DefaultK is the number of neighbours returned when k is not positive.
	DefaultK = 5

	// blankPage stands in for pages with no extractable text so every
	// position still gets a vector.
	blankPage = "[blank page]"
)

// Manifest is written next to each persisted subject index.
type Manifest struct {
	Subject    string    `json:"subject"`
	Embedder   string    `json:"embedder"`
	Dimensions int       `json:"dimensions"`
	Pages      int       `json:"pages"`
	BuiltAt    time.Time `json:"built_at"`
}

type loadedIndex struct {
	collection *chromem.Collection
	manifest   Manifest
}

// ChromemIndex implements SubjectIndex with one chromem-go database per
// subject under dir/<subject>/. Loaded indexes are cached and shared by
// concurrent readers.
type ChromemIndex struct {
	dir       string
	embedder  embeddings.Embedder
	embedFunc chromem.EmbeddingFunc

	mu     sync.RWMutex
	loaded map[string]*loadedIndex
}

// NewChromemIndex returns an index rooted at dir. The embedder is used
// by Build; Search takes precomputed embeddings.
func NewChromemIndex(dir string, embedder embeddings.Embedder) *ChromemIndex {
	return &ChromemIndex{
		dir:       dir,
		embedder:  embedder,
		embedFunc: chromemEmbedFunc(embedder),
		loaded:    make(map[string]*loadedIndex),
	}
}

// chromemEmbedFunc lets chromem-go embed a single text with e. Build
// and Search pass precomputed vectors, so chromem only calls it for
// documents added without one.
func chromemEmbedFunc(e embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if e == nil {
			return nil, errors.New("index has no embedder")
		}
		vecs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embedder returned %d vectors for one text", len(vecs))
		}
		return vecs[0], nil
	}
}

// Dir returns the root directory of the persisted indexes.
func (x *ChromemIndex) Dir() string { return x.dir }

func (x *ChromemIndex) subjectDir(subject string) string {
	return filepath.Join(x.dir, subject)
}

// Build embeds docs and atomically replaces dir/<subject>. Docs must be
// in page order; their positions become the document IDs.
func (x *ChromemIndex) Build(ctx context.Context, subject string, docs []Document) (*Manifest, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("subject %q: no pages to index", subject)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
		if texts[i] == "" {
			texts[i] = blankPage
		}
	}
	vecs, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %s pages: %w", subject, err)
	}
	if len(vecs) != len(docs) {
		return nil, fmt.Errorf("embedding %s pages: got %d vectors for %d pages", subject, len(vecs), len(docs))
	}

	dims := x.embedder.Dimensions()
	chromDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		if len(vecs[i]) != dims {
			return nil, &DimensionError{Subject: subject, Want: dims, Got: len(vecs[i])}
		}
		chromDocs[i] = chromem.Document{
			ID:        strconv.Itoa(d.Position),
			Content:   texts[i],
			Embedding: vecs[i],
			Metadata:  map[string]string{"subject": subject},
		}
	}

	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, map[string]string{"subject": subject}, x.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	if err := col.AddDocuments(ctx, chromDocs, 1); err != nil {
		return nil, fmt.Errorf("adding %s pages: %w", subject, err)
	}

	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}
	tmp, err := os.MkdirTemp(x.dir, "."+subject+"-")
	if err != nil {
		return nil, fmt.Errorf("creating temp index dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := db.ExportToFile(filepath.Join(tmp, dbFileName), true, ""); err != nil {
		return nil, fmt.Errorf("exporting %s index: %w", subject, err)
	}

	manifest := Manifest{
		Subject:    subject,
		Embedder:   x.embedder.Name(),
		Dimensions: dims,
		Pages:      len(docs),
		BuiltAt:    time.Now().UTC(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, manifestName), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	final := x.subjectDir(subject)
	if err := os.RemoveAll(final); err != nil {
		return nil, fmt.Errorf("removing old %s index: %w", subject, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return nil, fmt.Errorf("installing %s index: %w", subject, err)
	}

	x.mu.Lock()
	delete(x.loaded, subject)
	x.mu.Unlock()

	return &manifest, nil
}

// Manifest reads the subject's manifest from disk.
func (x *ChromemIndex) Manifest(subject string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(x.subjectDir(subject), manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &IndexNotFoundError{Subject: subject, Dir: x.dir}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s manifest: %w", subject, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s manifest: %w", subject, err)
	}
	return &m, nil
}

// Exists reports whether a complete index is persisted for subject.
func (x *ChromemIndex) Exists(subject string) bool {
	if _, err := x.Manifest(subject); err != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(x.subjectDir(subject), dbFileName))
	return err == nil
}

func (x *ChromemIndex) load(subject string) (*loadedIndex, error) {
	x.mu.RLock()
	idx, ok := x.loaded[subject]
	x.mu.RUnlock()
	if ok {
		return idx, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if idx, ok := x.loaded[subject]; ok {
		return idx, nil
	}

	manifest, err := x.Manifest(subject)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(x.subjectDir(subject), dbFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &IndexNotFoundError{Subject: subject, Dir: x.dir}
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("import %s index: %w", subject, err)
	}
	col := db.GetCollection(collectionName, x.embedFunc)
	if col == nil {
		return nil, fmt.Errorf("collection %q not found in %s index", collectionName, subject)
	}

	idx = &loadedIndex{collection: col, manifest: *manifest}
	x.loaded[subject] = idx
	return idx, nil
}

func (x *ChromemIndex) Search(ctx context.Context, subject string, embedding []float32, k int) ([]SearchResult, error) {
	idx, err := x.load(subject)
	if err != nil {
		return nil, err
	}
	if len(embedding) != idx.manifest.Dimensions {
		return nil, &DimensionError{Subject: subject, Want: idx.manifest.Dimensions, Got: len(embedding)}
	}

	if k <= 0 {
		k = DefaultK
	}
	// chromem-go requires nResults <= collection size.
	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := idx.collection.QueryEmbedding(ctx, embeddings.Normalize(embedding), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query %s: %w", subject, err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		pos, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("subject %q: bad document id %q", subject, r.ID)
		}
		out = append(out, SearchResult{
			Position:   pos,
			Content:    r.Content,
			Similarity: r.Similarity,
			Distance:   l2FromCosine(r.Similarity),
		})
	}
	return out, nil
}

// l2FromCosine converts cosine similarity between unit vectors into their
// Euclidean distance: |a-b|^2 = 2 - 2cos.
func l2FromCosine(sim float32) float32 {
	d := 2 - 2*float64(sim)
	if d < 0 {
		d = 0
	}
	return float32(math.Sqrt(d))
}
