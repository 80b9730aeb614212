package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdocgen/pkg/batch"
)

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsdocgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
loader:
  docgenCollectionName: DOCS
  propFilter:
    skipPropsWithoutDoc: true
build:
  out: dist
  include: ["src/**/*.tsx"]
  workers: 3
`), 0o644))

	cfg, err := loadProjectConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "DOCS", cfg.Loader["docgenCollectionName"])
	assert.Equal(t, map[string]any{"skipPropsWithoutDoc": true}, cfg.Loader["propFilter"])
	assert.Equal(t, "dist", cfg.Build.Out)
	assert.Equal(t, 3, cfg.Build.Workers)

	sel := cfg.Build.Selection()
	assert.Equal(t, []string{"src/**/*.tsx"}, sel.Include)
	assert.Equal(t, batch.DefaultSelection().Exclude, sel.Exclude)
}

func TestLoadProjectConfig_Missing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadProjectConfig("")
	require.NoError(t, err, "a missing default file is not an error")
	assert.Empty(t, cfg.Loader)

	_, err = loadProjectConfig("nope.yaml")
	assert.Error(t, err)
}

func TestLoadProjectConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loader: [unclosed"), 0o644))

	_, err := loadProjectConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoaderFlags_Merge(t *testing.T) {
	base := map[string]any{"docgenCollectionName": "BASE", "tsconfigPath": "tsconfig.json"}
	f := loaderFlags{collection: "FLAG", noDisplayName: true, includes: []string{`\.tsx$`}}

	got := f.merge(base)
	assert.Equal(t, map[string]any{
		"docgenCollectionName": "FLAG",
		"tsconfigPath":         "tsconfig.json",
		"setDisplayName":       false,
		"includes":             []string{`\.tsx$`},
	}, got)
	assert.Equal(t, "BASE", base["docgenCollectionName"], "base is not modified")

	assert.Empty(t, loaderFlags{}.merge(nil))
}
