package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcess(t *testing.T) {
	tests := []struct {
		name     string
		includes []string
		excludes []string
		path     string
		want     bool
	}{
		{"default include", DefaultIncludes, DefaultExcludes, "/app/src/Button.tsx", true},
		{"default exclude", DefaultIncludes, DefaultExcludes, "/app/node_modules/x/Button.tsx", false},
		{"no include match", DefaultIncludes, DefaultExcludes, "/app/src/Button.jsx", false},
		{"exclude only consulted after include", []string{`\.tsx$`}, []string{`Button`}, "/app/src/Button.ts", false},
		{"any include matches", []string{`\.ts$`, `\.tsx$`}, nil, "/app/a.ts", true},
		{"unanchored", []string{`src/`}, nil, "/app/src/deep/Card.tsx", true},
		{"empty includes", nil, nil, "/app/src/Button.tsx", false},
		{"invalid pattern never matches", []string{`(`}, nil, "/app/(.tsx", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldProcess(tt.includes, tt.excludes, tt.path))
		})
	}
}

func TestMatcher_CachesPatterns(t *testing.T) {
	m := NewMatcher(2)
	assert.True(t, m.Match([]string{`a`}, nil, "a"))
	assert.Equal(t, 1, m.patterns.Len())

	assert.True(t, m.Match([]string{`a`}, []string{`b`}, "a"))
	assert.Equal(t, 2, m.patterns.Len())

	assert.False(t, m.Match([]string{`c`}, nil, "a"))
	assert.Equal(t, 2, m.patterns.Len(), "cache stays bounded")

	assert.False(t, m.Match([]string{`(`}, nil, "("))
	assert.False(t, m.patterns.Contains(`(`))
}
