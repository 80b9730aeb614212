package docgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/tailscale/hujson"
)

// maxExtendsDepth bounds tsconfig `extends` chains.
const maxExtendsDepth = 16

// CompilerOptions is the subset of TypeScript compiler options that affect
// how props types are located.
type CompilerOptions struct {
	BaseURL string              `mapstructure:"baseUrl" json:"baseUrl,omitempty"`
	Paths   map[string][]string `mapstructure:"paths" json:"paths,omitempty"`
	AllowJS bool                `mapstructure:"allowJs" json:"allowJs,omitempty"`

	// PathsBase is the absolute directory `paths` substitutions are
	// relative to: BaseURL when set, otherwise the declaring config's dir.
	PathsBase string `mapstructure:"-" json:"-"`
}

// DecodeCompilerOptions decodes an inline compiler options object. Relative
// baseUrl values are resolved against dir. Unknown options are ignored.
func DecodeCompilerOptions(raw map[string]any, dir string) (*CompilerOptions, error) {
	opts := &CompilerOptions{}
	if err := decodeCompilerOptions(raw, opts); err != nil {
		return nil, fmt.Errorf("docgen: invalid compilerOptions: %w", err)
	}
	if opts.BaseURL != "" && !filepath.IsAbs(opts.BaseURL) {
		opts.BaseURL = filepath.Join(dir, opts.BaseURL)
	}
	opts.PathsBase = dir
	if opts.BaseURL != "" {
		opts.PathsBase = opts.BaseURL
	}
	return opts, nil
}

func decodeCompilerOptions(raw map[string]any, out *CompilerOptions) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// tsconfigFile is the on-disk shape of a tsconfig file.
type tsconfigFile struct {
	Extends         json.RawMessage `json:"extends"`
	CompilerOptions map[string]any  `json:"compilerOptions"`
}

// LoadTSConfig reads a tsconfig file, following `extends` chains. Files may
// contain comments and trailing commas.
func LoadTSConfig(path string) (*CompilerOptions, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("docgen: resolve tsconfig path %q: %w", path, err)
	}

	merged := make(map[string]any)
	var baseURL, pathsBase string
	if err := loadTSConfigChain(abs, merged, &baseURL, &pathsBase, map[string]bool{}, 0); err != nil {
		return nil, err
	}

	opts := &CompilerOptions{}
	if err := decodeCompilerOptions(merged, opts); err != nil {
		return nil, fmt.Errorf("docgen: invalid compilerOptions in %s: %w", path, err)
	}
	opts.BaseURL = baseURL
	opts.PathsBase = pathsBase
	if baseURL != "" {
		opts.PathsBase = baseURL
	}
	if opts.PathsBase == "" {
		opts.PathsBase = filepath.Dir(abs)
	}
	return opts, nil
}

// loadTSConfigChain merges the config at path (parents first) into merged.
// baseUrl and the paths base are resolved against the file declaring them.
func loadTSConfigChain(path string, merged map[string]any, baseURL, pathsBase *string, seen map[string]bool, depth int) error {
	if depth > maxExtendsDepth {
		return fmt.Errorf("docgen: tsconfig extends chain too deep at %s", path)
	}
	if seen[path] {
		return fmt.Errorf("docgen: tsconfig extends cycle at %s", path)
	}
	seen[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("docgen: read tsconfig: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("docgen: parse tsconfig %s: %w", path, err)
	}

	var file tsconfigFile
	if err := json.Unmarshal(std, &file); err != nil {
		return fmt.Errorf("docgen: parse tsconfig %s: %w", path, err)
	}

	parents, err := extendsList(file.Extends)
	if err != nil {
		return fmt.Errorf("docgen: parse tsconfig %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, parent := range parents {
		parentPath, err := resolveExtends(dir, parent)
		if err != nil {
			return err
		}
		if err := loadTSConfigChain(parentPath, merged, baseURL, pathsBase, seen, depth+1); err != nil {
			return err
		}
	}

	for k, v := range file.CompilerOptions {
		merged[k] = v
	}
	if v, ok := file.CompilerOptions["baseUrl"].(string); ok {
		*baseURL = filepath.Join(dir, v)
		if filepath.IsAbs(v) {
			*baseURL = v
		}
	}
	if _, ok := file.CompilerOptions["paths"]; ok {
		*pathsBase = dir
	}
	return nil
}

// extendsList accepts both the string and the array form of `extends`.
func extendsList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, errors.New(`"extends" must be a string or an array of strings`)
	}
	return many, nil
}

// resolveExtends locates a parent config. Relative and absolute specifiers
// resolve against dir; bare specifiers are looked up in node_modules
// directories from dir upwards.
func resolveExtends(dir, spec string) (string, error) {
	var candidates []string
	if strings.HasPrefix(spec, ".") || filepath.IsAbs(spec) {
		base := spec
		if !filepath.IsAbs(base) {
			base = filepath.Join(dir, spec)
		}
		candidates = append(candidates, base, base+".json")
	} else {
		for d := dir; ; d = filepath.Dir(d) {
			base := filepath.Join(d, "node_modules", filepath.FromSlash(spec))
			candidates = append(candidates, base, base+".json", filepath.Join(base, "tsconfig.json"))
			if parent := filepath.Dir(d); parent == d {
				break
			}
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("docgen: tsconfig extends %q not found from %s", spec, dir)
}
