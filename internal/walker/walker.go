// Package walker discovers the HTML pages a batch run processes.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize is the largest page processed (32 MB). Pages carry
// embedded images, so the limit is generous.
const DefaultMaxFileSize int64 = 32 << 20

// Page is one page found under the site root.
type Page struct {
	Path        string // absolute
	RelPath     string // slash-separated, relative to the root
	Size        int64
	Kind        Kind
	ContentHash string // sha256, hex
}

// OutputPath is where the processed page lands when the site layout is
// mirrored under dir.
func (p Page) OutputPath(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(p.RelPath))
}

// WalkerConfig selects the pages Walk returns.
type WalkerConfig struct {
	RootDir     string
	Include     []string // DefaultIncludes when empty
	Exclude     []string
	Skip        []string // directories never entered, such as the output dir
	MaxFileSize int64    // 0 means DefaultMaxFileSize
}

type walk struct {
	root    string
	filter  *Filter
	skip    map[string]bool
	maxSize int64
	pages   []Page
}

// Walk returns every page under config.RootDir that passes the filter,
// sorted by RelPath. Rules in the root .gitignore apply on top of the
// include and exclude patterns. Unreadable entries are skipped.
func Walk(config WalkerConfig) ([]Page, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	filter, err := NewFilter(config.Include, config.Exclude)
	if err != nil {
		return nil, err
	}
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		filter.Ignore(strings.Split(string(data), "\n")...)
	}

	w := &walk{root: root, filter: filter, skip: map[string]bool{}, maxSize: config.MaxFileSize}
	if w.maxSize <= 0 {
		w.maxSize = DefaultMaxFileSize
	}
	for _, s := range config.Skip {
		if abs, err := filepath.Abs(s); err == nil && abs != root {
			w.skip[abs] = true
		}
	}

	if err := filepath.WalkDir(root, w.visit); err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	sort.Slice(w.pages, func(i, j int) bool { return w.pages[i].RelPath < w.pages[j].RelPath })
	return w.pages, nil
}

func (w *walk) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return nil
	}
	if d.IsDir() {
		if path != w.root && (excludedDir(d.Name()) || w.skip[path]) {
			return filepath.SkipDir
		}
		return nil
	}
	if !d.Type().IsRegular() {
		return nil
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || !w.filter.Match(rel) {
		return nil
	}
	page, ok := w.load(path, filepath.ToSlash(rel))
	if ok {
		w.pages = append(w.pages, page)
	}
	return nil
}

func (w *walk) load(path, rel string) (Page, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > w.maxSize {
		return Page{}, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Page{}, false
	}
	sum := sha256.Sum256(content)
	return Page{
		Path:        path,
		RelPath:     rel,
		Size:        int64(len(content)),
		Kind:        DetectKind(content),
		ContentHash: hex.EncodeToString(sum[:]),
	}, true
}
