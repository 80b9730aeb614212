// Package loader is the per-file transform a build pipeline runs over
// component sources. It validates loader options, filters resources by
// path, extracts component documentation and appends registration blocks.
package loader

// DefaultCollectionName is the runtime collection generated code registers
// into when docgenCollectionName is unset or empty.
const DefaultCollectionName = "STORYBOOK_REACT_CLASSES"

var (
	// DefaultIncludes selects .tsx files.
	DefaultIncludes = []string{`\.tsx$`}
	// DefaultExcludes skips installed dependencies.
	DefaultExcludes = []string{"node_modules"}
)

// Options configures a transform. The zero value is valid; WithDefaults
// fills the documented defaults.
//
// A nil Includes or Excludes selects the default list, while an empty list
// is kept as given (an empty include list matches nothing).
type Options struct {
	Includes []string `json:"includes,omitempty" validate:"omitempty,dive,regexp" jsonschema:"description=Regular expressions; files matching none are passed through unchanged"`
	Excludes []string `json:"excludes,omitempty" validate:"omitempty,dive,regexp" jsonschema:"description=Regular expressions; files matching any after matching an include are passed through unchanged"`

	DocgenCollectionName string `json:"docgenCollectionName,omitempty" validate:"omitempty,jsmember" jsonschema:"description=Name of the global collection generated code registers into"`
	SetDisplayName       *bool  `json:"setDisplayName,omitempty" jsonschema:"description=Assign displayName to components that do not declare one"`

	SkipPropsWithName   []string           `json:"skipPropsWithName,omitempty" jsonschema:"description=Props omitted from the documentation"`
	SkipPropsWithoutDoc *bool              `json:"skipPropsWithoutDoc,omitempty" jsonschema:"description=Omit props without a description"`
	PropFilter          *PropFilterOptions `json:"propFilter,omitempty" jsonschema:"description=Prop filter used when neither flat filter option is set"`

	TSConfigPath    string         `json:"tsconfigPath,omitempty" jsonschema:"description=tsconfig file used for type analysis"`
	CompilerOptions map[string]any `json:"compilerOptions,omitempty" jsonschema:"description=Inline compiler options; ignored when tsconfigPath is set"`
}

// PropFilterOptions is the nested form of the prop filter.
type PropFilterOptions struct {
	SkipPropsWithName   []string `json:"skipPropsWithName,omitempty"`
	SkipPropsWithoutDoc bool     `json:"skipPropsWithoutDoc,omitempty"`
}

// WithDefaults returns a copy of o with defaults applied.
func (o Options) WithDefaults() Options {
	if o.DocgenCollectionName == "" {
		o.DocgenCollectionName = DefaultCollectionName
	}
	if o.SetDisplayName == nil {
		enabled := true
		o.SetDisplayName = &enabled
	}
	if o.Includes == nil {
		o.Includes = append([]string(nil), DefaultIncludes...)
	}
	if o.Excludes == nil {
		o.Excludes = append([]string(nil), DefaultExcludes...)
	}
	return o
}

// DisplayNameEnabled reports whether display-name assignments are emitted.
func (o Options) DisplayNameEnabled() bool {
	return o.SetDisplayName == nil || *o.SetDisplayName
}
