package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/askbook/internal/config"
)

// Discover finds the PDF of every configured subject under dir. A PDF
// belongs to a subject when its file stem equals the subject ID, ignoring
// case; PDFs matching no subject are logged and skipped. Subjects without
// a PDF are returned in missing.
func Discover(dir string, subjects []config.Subject, logger *slog.Logger) (sources []Source, missing []string, err error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve pdf dir: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, nil, fmt.Errorf("pdf dir: %w", err)
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**/*.{pdf,PDF}")
	if err != nil {
		return nil, nil, fmt.Errorf("listing pdfs: %w", err)
	}

	bySubject := make(map[string]string, len(subjects))
	for _, s := range subjects {
		bySubject[strings.ToLower(s.ID)] = s.ID
	}

	found := make(map[string]bool)
	for _, rel := range matches {
		stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		id, ok := bySubject[strings.ToLower(stem)]
		if !ok {
			logger.Debug("skipping pdf with no configured subject", "file", rel)
			continue
		}
		if found[id] {
			logger.Warn("duplicate pdf for subject, keeping the first", "subject", id, "file", rel)
			continue
		}

		path := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", rel, err)
		}
		hash, err := hashFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("hash %s: %w", rel, err)
		}

		found[id] = true
		sources = append(sources, Source{
			Subject:     id,
			Path:        path,
			RelPath:     rel,
			Size:        info.Size(),
			ContentHash: hash,
		})
	}

	for _, s := range subjects {
		if !found[s.ID] {
			missing = append(missing, s.ID)
		}
	}
	return sources, missing, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
