package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/tsdocgen/pkg/batch"
)

// defaultConfigPath is read when --config is not given. Its absence is not
// an error.
const defaultConfigPath = ".tsdocgen.yaml"

// ProjectConfig holds the contents of .tsdocgen.yaml.
//
//	loader:
//	  docgenCollectionName: DOCS
//	  tsconfigPath: tsconfig.json
//	build:
//	  out: dist/docgen
//	  include: ["src/**/*.tsx"]
//	  exclude: ["**/*.stories.tsx"]
type ProjectConfig struct {
	// Loader holds raw loader options, validated when a transform runs.
	Loader map[string]any `yaml:"loader"`
	Build  BuildConfig    `yaml:"build"`
}

// BuildConfig configures the build and watch commands.
type BuildConfig struct {
	Out     string   `yaml:"out"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Workers int      `yaml:"workers"`
}

// Selection returns the file selection, falling back to the defaults for
// unset lists.
func (b BuildConfig) Selection() batch.Selection {
	sel := batch.DefaultSelection()
	if len(b.Include) > 0 {
		sel.Include = b.Include
	}
	if len(b.Exclude) > 0 {
		sel.Exclude = b.Exclude
	}
	return sel
}

// loadProjectConfig reads the project config. An explicit path must exist;
// a missing default file yields an empty config.
func loadProjectConfig(path string) (*ProjectConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return &ProjectConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// loaderFlags are the loader options settable on the command line. They
// override the config file.
type loaderFlags struct {
	collection    string
	noDisplayName bool
	tsconfig      string
	includes      []string
	excludes      []string
}

// merge returns base overlaid with the flags that were set. base is not
// modified.
func (f loaderFlags) merge(base map[string]any) map[string]any {
	out := make(map[string]any, len(base)+5)
	for k, v := range base {
		out[k] = v
	}
	if f.collection != "" {
		out["docgenCollectionName"] = f.collection
	}
	if f.noDisplayName {
		out["setDisplayName"] = false
	}
	if f.tsconfig != "" {
		out["tsconfigPath"] = f.tsconfig
	}
	if len(f.includes) > 0 {
		out["includes"] = f.includes
	}
	if len(f.excludes) > 0 {
		out["excludes"] = f.excludes
	}
	return out
}
