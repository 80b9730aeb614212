package batch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_DefaultSelection(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "Button.tsx", "export const Button = () => null;")
	writeFile(t, tmp, "utils.ts", "export {}")
	writeFile(t, tmp, "legacy/Card.jsx", "export const Card = () => null;")
	writeFile(t, tmp, "types.d.ts", "export {}")
	writeFile(t, tmp, "README.md", "# docs")
	writeFile(t, tmp, "node_modules/react/index.js", "module.exports = {}")
	writeFile(t, tmp, "packages/ui/node_modules/lib/index.ts", "export {}")

	files, err := Discover(tmp, DefaultSelection())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Button.tsx", "utils.ts", "Card.jsx"}, fileNames(files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "expected absolute path, got %s", f)
	}
}

func TestDiscover_SortedOutput(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "b/Zed.tsx", "")
	writeFile(t, tmp, "a/Alpha.tsx", "")
	writeFile(t, tmp, "Middle.tsx", "")

	files, err := Discover(tmp, DefaultSelection())
	require.NoError(t, err)
	require.Len(t, files, 3)

	for i := 1; i < len(files); i++ {
		assert.LessOrEqual(t, files[i-1], files[i], "files should be sorted")
	}
}

func TestDiscover_CustomSelection(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "src/Button.tsx", "")
	writeFile(t, tmp, "src/Button.stories.tsx", "")
	writeFile(t, tmp, "scripts/build.ts", "")

	files, err := Discover(tmp, Selection{
		Include: []string{"src/**/*.tsx"},
		Exclude: []string{"**/*.stories.tsx"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Button.tsx"}, fileNames(files))
}

func TestDiscover_EmptyIncludeSelectsAll(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "a.txt", "")
	writeFile(t, tmp, "B.tsx", "")

	files, err := Discover(tmp, Selection{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "B.tsx"}, fileNames(files))
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	files, err := Discover(t.TempDir(), DefaultSelection())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_InvalidGlob(t *testing.T) {
	sel := DefaultSelection()
	sel.Exclude = append(sel.Exclude, "[invalid")
	_, err := Discover(t.TempDir(), sel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")

	_, err = Discover(t.TempDir(), Selection{Include: []string{"{unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), DefaultSelection())
	assert.Error(t, err)
}

func TestSelection_Matches(t *testing.T) {
	sel := DefaultSelection()
	tests := []struct {
		rel  string
		want bool
	}{
		{"Button.tsx", true},
		{"src/components/Card.jsx", true},
		{"src/index.ts", true},
		{"src/global.d.ts", false},
		{"node_modules/react/index.js", false},
		{"styles.css", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, sel.Matches(tt.rel))
		})
	}
}
