package pages

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ledongthuc/pdf"
)

// PDFStore reads page text straight from <dir>/<subject>.pdf on every call.
type PDFStore struct {
	dir string
}

// NewPDFStore returns a store over the PDFs in dir.
func NewPDFStore(dir string) *PDFStore {
	return &PDFStore{dir: dir}
}

// Path returns the PDF file backing subject: <dir>/<subject>.pdf when it
// exists, else the first PDF anywhere under dir whose stem matches the
// subject ignoring case.
func (s *PDFStore) Path(subject string) string {
	direct := filepath.Join(s.dir, subject+".pdf")
	if _, err := os.Stat(direct); err == nil {
		return direct
	}
	matches, err := doublestar.Glob(os.DirFS(s.dir), "**/*.{pdf,PDF}")
	if err != nil {
		return direct
	}
	for _, m := range matches {
		stem := strings.TrimSuffix(path.Base(m), path.Ext(m))
		if strings.EqualFold(stem, subject) {
			return filepath.Join(s.dir, filepath.FromSlash(m))
		}
	}
	return direct
}

func (s *PDFStore) Page(ctx context.Context, subject string, position int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, r, err := openPDF(s.Path(subject))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if position < 0 || position >= r.NumPage() {
		return "", &PageNotFoundError{Subject: subject, Position: position}
	}
	return pageText(r, position)
}

func (s *PDFStore) PageCount(ctx context.Context, subject string) (int, error) {
	f, r, err := openPDF(s.Path(subject))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

// ExtractPages returns the plain text of every page of the PDF at path,
// indexed by zero-based position. Pages without a text layer yield "".
func ExtractPages(ctx context.Context, path string) ([]string, error) {
	f, r, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	texts := make([]string, r.NumPage())
	for pos := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(r, pos)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		texts[pos] = text
	}
	return texts, nil
}

func openPDF(path string) (*os.File, *pdf.Reader, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, r, nil
}

// pageText reads one page. The pdf reader numbers pages from 1.
func pageText(r *pdf.Reader, position int) (string, error) {
	page := r.Page(DisplayNumber(position))
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extracting text from page %d: %w", DisplayNumber(position), err)
	}
	return text, nil
}
