package loader

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPatternCacheSize bounds the compiled patterns a Matcher keeps.
const DefaultPatternCacheSize = 256

// Matcher decides which resources are transformed. Compiled patterns are
// cached by pattern string; a Matcher is safe for concurrent use.
type Matcher struct {
	patterns *lru.Cache[string, *regexp.Regexp]
}

// NewMatcher creates a Matcher caching up to size compiled patterns.
func NewMatcher(size int) *Matcher {
	if size <= 0 {
		size = DefaultPatternCacheSize
	}
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[string, *regexp.Regexp](size)
	return &Matcher{patterns: cache}
}

var defaultMatcher = NewMatcher(DefaultPatternCacheSize)

// ShouldProcess reports whether path matches some include and, only then,
// no exclude. Patterns are regular expressions tested anywhere in path.
func ShouldProcess(includes, excludes []string, path string) bool {
	return defaultMatcher.Match(includes, excludes, path)
}

// Match reports whether path is selected by includes and not rejected by
// excludes. Excludes are consulted only after an include matched.
func (m *Matcher) Match(includes, excludes []string, path string) bool {
	if !m.any(includes, path) {
		return false
	}
	return !m.any(excludes, path)
}

func (m *Matcher) any(patterns []string, path string) bool {
	for _, p := range patterns {
		re, ok := m.compile(p)
		if ok && re.MatchString(path) {
			return true
		}
	}
	return false
}

// compile returns the cached pattern. Patterns that fail to compile never
// match.
func (m *Matcher) compile(pattern string) (*regexp.Regexp, bool) {
	if re, ok := m.patterns.Get(pattern); ok {
		return re, true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false
	}
	m.patterns.Add(pattern, re)
	return re, true
}
