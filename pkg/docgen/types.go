// Package docgen extracts documentation records for React components from
// TypeScript and JavaScript modules.
//
// A record describes one exported component: its display name, the
// description from its leading JSDoc block, and its props in declaration
// order with type text, optionality, defaults and JSDoc descriptions.
// Analysis is syntactic: props types are followed through local
// declarations, interface inheritance, intersections and relative or
// tsconfig-mapped imports, but types that resolve into installed packages
// contribute no props.
package docgen

import (
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrUnsupportedFile is returned by Parse for files that are neither
// TypeScript nor JavaScript.
var ErrUnsupportedFile = errors.New("docgen: unsupported file type")

// ComponentDoc is the documentation record for one component.
type ComponentDoc struct {
	// DisplayName is the component name shown by documentation tooling.
	// An explicit `X.displayName = "..."` assignment wins over the binding name.
	DisplayName string `json:"displayName"`

	// Identifier is the module-scope binding the component is reachable
	// through. Empty for anonymous default exports.
	Identifier string `json:"identifier,omitempty"`

	FilePath    string                                   `json:"filePath"`
	Description string                                   `json:"description"`
	Props       *orderedmap.OrderedMap[string, PropItem] `json:"props"`
	Tags        map[string]string                        `json:"tags,omitempty"`
}

// NewComponentDoc returns a record with an empty, ordered props map.
func NewComponentDoc(displayName, identifier, filePath string) ComponentDoc {
	return ComponentDoc{
		DisplayName: displayName,
		Identifier:  identifier,
		FilePath:    filePath,
		Props:       orderedmap.New[string, PropItem](),
	}
}

// PropItem describes a single prop.
type PropItem struct {
	Name         string            `json:"name"`
	Required     bool              `json:"required"`
	Type         PropItemType      `json:"type"`
	Description  string            `json:"description"`
	DefaultValue *DefaultValue     `json:"defaultValue"`
	Parent       *ParentType       `json:"parent,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
}

// PropItemType is the declared type of a prop. For string-literal unions
// extracted as enums, Name is "enum", Raw holds the declared text and Value
// lists the members.
type PropItemType struct {
	Name  string      `json:"name"`
	Raw   string      `json:"raw,omitempty"`
	Value []EnumValue `json:"value,omitempty"`
}

// EnumValue is one member of an extracted literal union, quotes included.
type EnumValue struct {
	Value string `json:"value"`
}

// DefaultValue holds a prop's default as source text. String literals are
// unquoted.
type DefaultValue struct {
	Value string `json:"value"`
}

// ParentType names the interface or type alias that declares a prop.
type ParentType struct {
	FileName string `json:"fileName"`
	Name     string `json:"name"`
}

// PropFilter removes props from extracted records.
type PropFilter struct {
	SkipPropsWithName   []string `json:"skipPropsWithName,omitempty"`
	SkipPropsWithoutDoc bool     `json:"skipPropsWithoutDoc,omitempty"`
}

// Keep reports whether the prop survives the filter. A nil filter keeps
// everything.
func (f *PropFilter) Keep(prop PropItem) bool {
	if f == nil {
		return true
	}
	if f.SkipPropsWithoutDoc && prop.Description == "" {
		return false
	}
	for _, name := range f.SkipPropsWithName {
		if name == prop.Name {
			return false
		}
	}
	return true
}

// ParserOptions tune extraction.
type ParserOptions struct {
	PropFilter *PropFilter

	// ShouldExtractLiteralValuesFromEnum reports string-literal unions as
	// enum types with their members listed.
	ShouldExtractLiteralValuesFromEnum bool
}

// Mode selects where compiler options come from.
type Mode int

const (
	// ModeDefault uses built-in compiler options.
	ModeDefault Mode = iota
	// ModeCustomConfig reads a tsconfig file.
	ModeCustomConfig
	// ModeCompilerOptions uses an inline compiler options object.
	ModeCompilerOptions
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeCustomConfig:
		return "tsconfig"
	case ModeCompilerOptions:
		return "compilerOptions"
	default:
		return "unknown"
	}
}

// Config selects exactly one compiler-options source.
type Config struct {
	Mode            Mode
	TSConfigPath    string
	CompilerOptions map[string]any
}

// DefaultConfig selects the built-in compiler options.
func DefaultConfig() Config {
	return Config{Mode: ModeDefault}
}

// CustomConfig selects the tsconfig file at path.
func CustomConfig(path string) Config {
	return Config{Mode: ModeCustomConfig, TSConfigPath: path}
}

// CompilerOptionsConfig selects inline compiler options.
func CompilerOptionsConfig(opts map[string]any) Config {
	return Config{Mode: ModeCompilerOptions, CompilerOptions: opts}
}

// FileParser extracts documentation records from one file.
type FileParser interface {
	Parse(filePath string) ([]ComponentDoc, error)
}

// Factory constructs a FileParser for a configuration. Construction fails
// when the configuration cannot be loaded (missing or malformed tsconfig).
type Factory func(cfg Config, opts ParserOptions) (FileParser, error)
