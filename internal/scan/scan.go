// Package scan walks a workspace root and produces the initial
// candidate list for the corpus.
package scan

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/dshills/quickopen/internal/corpus"
)

// Ignore decides which names are excluded from the corpus. Patterns
// apply to individual path segments (glob syntax per filepath.Match);
// hidden entries are dot-prefixed names.
type Ignore struct {
	patterns     []string
	ignoreHidden bool
}

// NewIgnore builds an ignore matcher.
func NewIgnore(patterns []string, ignoreHidden bool) *Ignore {
	return &Ignore{patterns: patterns, ignoreHidden: ignoreHidden}
}

// Skip reports whether a path segment should be excluded.
func (ig *Ignore) Skip(name string) bool {
	if ig == nil {
		return false
	}
	if ig.ignoreHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, p := range ig.patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// SkipPath reports whether any segment of a slash-separated relative
// path is excluded.
func (ig *Ignore) SkipPath(rel string) bool {
	if ig == nil || rel == "" || rel == "." {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if ig.Skip(seg) {
			return true
		}
	}
	return false
}

// Root walks rootDir and returns a candidate for every regular file
// not excluded by ig. Paths are slash-separated and relative to
// rootDir. Unreadable subtrees are skipped, not fatal.
func Root(rootDir string, id corpus.RootID, ig *Ignore) ([]corpus.Candidate, error) {
	var out []corpus.Candidate

	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == rootDir {
				return err
			}
			return nil
		}
		if p == rootDir {
			return nil
		}

		if ig.Skip(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(rootDir, p)
		if relErr != nil {
			return nil
		}
		out = append(out, corpus.Candidate{
			Root: id,
			Path: filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
