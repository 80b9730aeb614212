package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buttonSource = `interface ButtonProps {
	/** Visible text */
	label: string;
	size?: "sm" | "lg";
}

/** Clickable button */
export function Button({ label, size = "sm" }: ButtonProps) {
	return <button className={size}>{label}</button>;
}
`

// --- helpers ---

// project creates a temp project, makes it the working directory and
// returns its path.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&app{logOutput: io.Discard})
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// --- commands ---

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "tsdocgen "+version+"\n", out)
}

func TestTransform_Stdout(t *testing.T) {
	project(t, map[string]string{"src/Button.tsx": buttonSource})

	out, err := run(t, "transform", "src/Button.tsx")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, buttonSource))
	assert.Contains(t, out, `STORYBOOK_REACT_CLASSES["src/Button.tsx#Button"]`)
	assert.Contains(t, out, `if (!Button.displayName) { Button.displayName = "Button"; }`)
}

func TestTransform_FlagsAndOutput(t *testing.T) {
	dir := project(t, map[string]string{"src/Button.tsx": buttonSource})

	out, err := run(t, "transform", "src/Button.tsx",
		"--collection", "DOCS", "--no-display-name", "-o", "out/Button.tsx")
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(filepath.Join(dir, "out", "Button.tsx"))
	require.NoError(t, err)
	assert.Contains(t, string(written), `DOCS["src/Button.tsx#Button"]`)
	assert.NotContains(t, string(written), "displayName = ")
}

func TestTransform_PatternsWithCommas(t *testing.T) {
	project(t, map[string]string{"src/Button.tsx": buttonSource})

	out, err := run(t, "transform", "src/Button.tsx", "--include", `\.t{1,2}sx$`)
	require.NoError(t, err)
	assert.Contains(t, out, "Button.__docgenInfo")

	out, err = run(t, "transform", "src/Button.tsx",
		"--include", `\.t{1,2}sx$`, "--exclude", `Bu(t){1,2}on`)
	require.NoError(t, err)
	assert.Equal(t, buttonSource, out)
}

func TestTransform_ConfigFile(t *testing.T) {
	project(t, map[string]string{
		"src/Button.tsx": buttonSource,
		".tsdocgen.yaml": "loader:\n  docgenCollectionName: FROM_CONFIG\n",
	})

	out, err := run(t, "transform", "src/Button.tsx")
	require.NoError(t, err)
	assert.Contains(t, out, `FROM_CONFIG["src/Button.tsx#Button"]`)

	// Flags override the config file.
	out, err = run(t, "transform", "src/Button.tsx", "--collection", "FROM_FLAG")
	require.NoError(t, err)
	assert.Contains(t, out, `FROM_FLAG["src/Button.tsx#Button"]`)
}

func TestTransform_Errors(t *testing.T) {
	project(t, map[string]string{
		"src/Button.tsx": buttonSource,
		"bad.yaml":       "loader:\n  setDisplayName: sometimes\n",
	})

	_, err := run(t, "transform", "src/Missing.tsx")
	assert.Error(t, err)

	_, err = run(t, "transform", "--config", "bad.yaml", "src/Button.tsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `option "setDisplayName" should be boolean`)

	_, err = run(t, "transform", "--config", "missing.yaml", "src/Button.tsx")
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "transform", "src/Button.tsx")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	project(t, map[string]string{"src/Button.tsx": buttonSource})

	out, err := run(t, "parse", "src/Button.tsx", "--enum-values")
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "Button", docs[0]["displayName"])

	size := docs[0]["props"].(map[string]any)["size"].(map[string]any)
	assert.Equal(t, "enum", size["type"].(map[string]any)["name"])
	assert.Equal(t, map[string]any{"value": "sm"}, size["defaultValue"])
}

func TestBuild(t *testing.T) {
	dir := project(t, map[string]string{
		"src/Button.tsx":       buttonSource,
		"src/util.ts":          "export const noop = () => {};\n",
		"src/Button.test.tsx":  "test('renders', () => {});\n",
		"node_modules/x/a.tsx": buttonSource,
	})

	out, err := run(t, "build", "src", "--out", "dist", "--ignore", "**/*.test.tsx")
	require.NoError(t, err)
	assert.Equal(t, "1 amended, 1 unchanged, 0 failed\n", out)

	built, err := os.ReadFile(filepath.Join(dir, "dist", "Button.tsx"))
	require.NoError(t, err)
	assert.Contains(t, string(built), `STORYBOOK_REACT_CLASSES["src/Button.tsx#Button"]`)
	assert.FileExists(t, filepath.Join(dir, "dist", "util.ts"))
	assert.NoFileExists(t, filepath.Join(dir, "dist", "Button.test.tsx"))
}

func TestBuild_BraceGlob(t *testing.T) {
	dir := project(t, map[string]string{
		"src/Button.tsx": buttonSource,
		"src/util.ts":    "export const noop = () => {};\n",
	})

	out, err := run(t, "build", "src", "--out", "dist", "--glob", "**/*.{tsx,jsx}")
	require.NoError(t, err)
	assert.Equal(t, "1 amended, 0 unchanged, 0 failed\n", out)
	assert.FileExists(t, filepath.Join(dir, "dist", "Button.tsx"))
	assert.NoFileExists(t, filepath.Join(dir, "dist", "util.ts"))
}

func TestBuild_NestedOutput(t *testing.T) {
	dir := project(t, map[string]string{
		"Button.tsx":     buttonSource,
		".tsdocgen.yaml": "build:\n  out: dist\n",
	})

	_, err := run(t, "build", ".")
	require.NoError(t, err)

	// A second build must not pick up the previous output.
	out, err := run(t, "build", ".")
	require.NoError(t, err)
	assert.Equal(t, "1 amended, 0 unchanged, 0 failed\n", out)
	assert.NoDirExists(t, filepath.Join(dir, "dist", "dist"))
}

func TestBuild_RequiresOut(t *testing.T) {
	project(t, map[string]string{"Button.tsx": buttonSource})
	_, err := run(t, "build", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory is required")
}

func TestSchema(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema["properties"], "includes")
}
