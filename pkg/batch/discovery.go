// Package batch runs the loader over a source tree: it discovers files,
// transforms them concurrently into an output tree and keeps that tree up
// to date while sources change.
package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Selection picks files by doublestar globs relative to the root.
type Selection struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// DefaultSelection selects TypeScript and JavaScript sources outside
// dependency and VCS directories. Declaration files are skipped.
func DefaultSelection() Selection {
	return Selection{
		Include: []string{"**/*.{ts,tsx,js,jsx}"},
		Exclude: []string{"**/node_modules", "**/.git", "**/*.d.ts"},
	}
}

// Validate rejects malformed glob patterns.
func (s Selection) Validate() error {
	for _, pattern := range s.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range s.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return nil
}

// Excluded reports whether a slash-separated relative path, or any of its
// parent directories, matches an exclude pattern.
func (s Selection) Excluded(rel string) bool {
	for {
		for _, pattern := range s.Exclude {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return true
			}
		}
		i := strings.LastIndexByte(rel, '/')
		if i < 0 {
			return false
		}
		rel = rel[:i]
	}
}

// Matches reports whether a slash-separated relative file path is selected.
// An empty include list selects every file.
func (s Selection) Matches(rel string) bool {
	if s.Excluded(rel) {
		return false
	}
	if len(s.Include) == 0 {
		return true
	}
	for _, pattern := range s.Include {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
	}
	return false
}

// Discover walks root and returns the selected files as sorted absolute
// paths. Excluded directories are not descended into.
func Discover(root string, sel Selection) ([]string, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil // Continue walking on errors.
		}
		if path == absRoot {
			return nil
		}

		rel := relSlash(absRoot, path)
		if d.IsDir() {
			if sel.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if sel.Matches(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
