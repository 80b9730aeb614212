package docgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTSConfig_CommentsAndTrailingCommas(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tsconfig.json", `{
	// project settings
	"compilerOptions": {
		"baseUrl": "src",
		"allowJs": true,
		"paths": { "@ui/*": ["components/*"] },
	},
}`)

	opts, err := LoadTSConfig(path)
	require.NoError(t, err)
	assert.True(t, opts.AllowJS)
	assert.Equal(t, filepath.Join(dir, "src"), opts.BaseURL)
	assert.Equal(t, filepath.Join(dir, "src"), opts.PathsBase)
	assert.Equal(t, []string{"components/*"}, opts.Paths["@ui/*"])
}

func TestLoadTSConfig_Extends(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "configs/base.json", `{
		"compilerOptions": { "baseUrl": "..", "allowJs": true }
	}`)
	path := writeFile(t, dir, "tsconfig.json", `{
		"extends": "./configs/base",
		"compilerOptions": { "allowJs": false }
	}`)

	opts, err := LoadTSConfig(path)
	require.NoError(t, err)
	assert.False(t, opts.AllowJS, "child overrides parent")
	assert.Equal(t, dir, opts.BaseURL, "baseUrl resolves against the declaring file")
}

func TestLoadTSConfig_ExtendsPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "node_modules/@acme/tsconfig/tsconfig.json", `{
		"compilerOptions": { "allowJs": true }
	}`)
	path := writeFile(t, dir, "app/tsconfig.json", `{ "extends": "@acme/tsconfig" }`)

	opts, err := LoadTSConfig(path)
	require.NoError(t, err)
	assert.True(t, opts.AllowJS)
	assert.Equal(t, filepath.Join(dir, "app"), opts.PathsBase)
}

func TestLoadTSConfig_Cycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{ "extends": "./b.json" }`)
	path := writeFile(t, dir, "b.json", `{ "extends": "./a.json" }`)

	_, err := LoadTSConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestLoadTSConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTSConfig(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, dir, "bad.json", `{ "compilerOptions": `)
	_, err = LoadTSConfig(bad)
	assert.Error(t, err)

	unresolved := writeFile(t, dir, "ext.json", `{ "extends": "./nope.json" }`)
	_, err = LoadTSConfig(unresolved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDecodeCompilerOptions(t *testing.T) {
	opts, err := DecodeCompilerOptions(map[string]any{
		"baseUrl": "src",
		"jsx":     "react",
		"allowJs": true,
	}, "/work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "src"), opts.BaseURL)
	assert.Equal(t, opts.BaseURL, opts.PathsBase)
	assert.True(t, opts.AllowJS)

	_, err = DecodeCompilerOptions(map[string]any{"allowJs": []string{"x"}}, "/work")
	assert.Error(t, err)
}
