package docgen

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	tsExtensions = []string{".ts", ".tsx", ".d.ts"}
	jsExtensions = []string{".js", ".jsx"}
)

// moduleResolver maps import specifiers to files on disk the way the
// TypeScript compiler does for relative, `paths` and `baseUrl` imports.
// Bare package specifiers are not resolved.
type moduleResolver struct {
	opts *CompilerOptions
}

// resolve returns the file imported by spec from fromFile.
func (r moduleResolver) resolve(fromFile, spec string) (string, bool) {
	if spec == "" {
		return "", false
	}
	if isRelativeSpecifier(spec) {
		return r.probe(filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(spec)))
	}
	if filepath.IsAbs(spec) {
		return r.probe(spec)
	}

	if r.opts == nil {
		return "", false
	}
	for _, sub := range r.pathSubstitutions(spec) {
		if found, ok := r.probe(filepath.Join(r.opts.PathsBase, filepath.FromSlash(sub))); ok {
			return found, true
		}
	}
	if r.opts.BaseURL != "" {
		return r.probe(filepath.Join(r.opts.BaseURL, filepath.FromSlash(spec)))
	}
	return "", false
}

func isRelativeSpecifier(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// pathSubstitutions expands `paths` entries matching spec. Exact patterns
// win; wildcard patterns are tried longest prefix first.
func (r moduleResolver) pathSubstitutions(spec string) []string {
	if len(r.opts.Paths) == 0 {
		return nil
	}
	if targets, ok := r.opts.Paths[spec]; ok && !strings.Contains(spec, "*") {
		return targets
	}

	type candidate struct {
		prefix  string
		matched string
		targets []string
	}
	var matches []candidate
	for pattern, targets := range r.opts.Paths {
		prefix, suffix, ok := strings.Cut(pattern, "*")
		if !ok {
			continue
		}
		if len(spec) < len(prefix)+len(suffix) || !strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, suffix) {
			continue
		}
		matches = append(matches, candidate{
			prefix:  prefix,
			matched: spec[len(prefix) : len(spec)-len(suffix)],
			targets: targets,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i].prefix) != len(matches[j].prefix) {
			return len(matches[i].prefix) > len(matches[j].prefix)
		}
		return matches[i].prefix < matches[j].prefix
	})

	var subs []string
	for _, m := range matches {
		for _, target := range m.targets {
			subs = append(subs, strings.Replace(target, "*", m.matched, 1))
		}
	}
	return subs
}

// probe tries base as a file, with each known extension, and as a
// directory with an index file. An explicit .js/.jsx extension also maps to
// the TypeScript sources next to it.
func (r moduleResolver) probe(base string) (string, bool) {
	exts := tsExtensions
	if r.opts != nil && r.opts.AllowJS {
		exts = append(append([]string{}, tsExtensions...), jsExtensions...)
	}

	if isFile(base) && r.allowed(base) {
		return base, true
	}

	stem := base
	switch ext := filepath.Ext(base); ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		stem = strings.TrimSuffix(base, ext)
	}
	for _, ext := range exts {
		if isFile(stem + ext) {
			return stem + ext, true
		}
	}
	for _, ext := range exts {
		index := filepath.Join(base, "index"+ext)
		if isFile(index) {
			return index, true
		}
	}
	return "", false
}

// allowed reports whether an explicitly named file can be analysed.
func (r moduleResolver) allowed(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	case ".js", ".jsx", ".mjs", ".cjs":
		return r.opts != nil && r.opts.AllowJS
	default:
		return false
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
