package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdocgen/pkg/docgen"
	"github.com/gnana997/tsdocgen/pkg/loader"
	"github.com/gnana997/tsdocgen/pkg/util"
)

var errBroken = errors.New("broken component")

// namedParser documents one component per file, named after the file.
// Files named Broken.tsx fail.
type namedParser struct{}

func (namedParser) Parse(path string) ([]docgen.ComponentDoc, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "Broken" {
		return nil, errBroken
	}
	if name == "" || strings.ToLower(name[:1]) == name[:1] {
		return nil, nil
	}
	return []docgen.ComponentDoc{docgen.NewComponentDoc(name, name, path)}, nil
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	root := t.TempDir()
	l := loader.New(
		loader.WithFactory(func(docgen.Config, docgen.ParserOptions) (docgen.FileParser, error) {
			return namedParser{}, nil
		}),
		loader.WithWorkDir(root),
		loader.WithLogger(util.Discard()),
	)
	return &Builder{
		Loader:  l,
		Root:    root,
		OutDir:  filepath.Join(t.TempDir(), "out"),
		Workers: 2,
		Logger:  util.Discard(),
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func fileNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}
