package pages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Figure is an extracted image of a page and its caption, if one was
// extracted alongside it.
type Figure struct {
	Path    string `json:"path"`
	File    string `json:"file"`
	Caption string `json:"caption,omitempty"`
}

// Figures locates pre-extracted figure images under
// <images_dir>/<subject>/page_<N>_img* and their captions under
// <captions_dir>/<subject>/<image stem>.txt, where N is the display
// number of the page.
type Figures struct {
	imagesDir   string
	captionsDir string
}

// NewFigures returns a figure lookup over the given directories.
func NewFigures(imagesDir, captionsDir string) *Figures {
	return &Figures{imagesDir: imagesDir, captionsDir: captionsDir}
}

// ImagesDir returns the root directory of extracted images.
func (f *Figures) ImagesDir() string { return f.imagesDir }

// ImagePaths returns the image files extracted from the page at position,
// in file name order. A subject without an image directory has no images.
func (f *Figures) ImagePaths(subject string, position int) ([]string, error) {
	dir := filepath.Join(f.imagesDir, subject)
	pattern := fmt.Sprintf("page_%d_img*", DisplayNumber(position))

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing figures for %s page %d: %w", subject, DisplayNumber(position), err)
	}
	sort.Slice(matches, func(i, j int) bool { return naturalLess(matches[i], matches[j]) })

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(dir, m)
	}
	return paths, nil
}

// Figures returns the figures of the page at position with their captions.
func (f *Figures) Figures(subject string, position int) ([]Figure, error) {
	paths, err := f.ImagePaths(subject, position)
	if err != nil {
		return nil, err
	}
	figs := make([]Figure, 0, len(paths))
	for _, p := range paths {
		file := filepath.Base(p)
		fig := Figure{Path: p, File: file}
		stem := strings.TrimSuffix(file, filepath.Ext(file))
		if data, err := os.ReadFile(filepath.Join(f.captionsDir, subject, stem+".txt")); err == nil {
			fig.Caption = strings.TrimSpace(string(data))
		}
		figs = append(figs, fig)
	}
	return figs, nil
}

// Resolve maps a figure file name to its path, refusing names that would
// escape the subject's image directory.
func (f *Figures) Resolve(subject, file string) (string, error) {
	if subject == "." || file == "." || !fs.ValidPath(subject) || !fs.ValidPath(file) || strings.ContainsAny(subject+file, `/\`) {
		return "", fmt.Errorf("invalid figure path %s/%s", subject, file)
	}
	return filepath.Join(f.imagesDir, subject, file), nil
}

// naturalLess orders names so that img_2 sorts before img_10.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, ra := leadingDigits(a)
		db, rb := leadingDigits(b)
		if da != "" && db != "" {
			na, _ := strconv.Atoi(da)
			nb, _ := strconv.Atoi(db)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}
