package loader

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsEmpty(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(map[string]any{}))
}

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{
		"includes":             []any{`\.tsx$`, `\.ts$`},
		"docgenCollectionName": "DOCS",
		"setDisplayName":       false,
		"skipPropsWithName":    []string{"className"},
		"propFilter":           map[string]any{"skipPropsWithoutDoc": true},
		"tsconfigPath":         "tsconfig.json",
		"compilerOptions":      map[string]any{"baseUrl": "src", "paths": map[string]any{"@/*": []any{"*"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{`\.tsx$`, `\.ts$`}, opts.Includes)
	assert.Nil(t, opts.Excludes)
	assert.Equal(t, "DOCS", opts.DocgenCollectionName)
	require.NotNil(t, opts.SetDisplayName)
	assert.False(t, *opts.SetDisplayName)
	assert.Equal(t, []string{"className"}, opts.SkipPropsWithName)
	require.NotNil(t, opts.PropFilter)
	assert.True(t, opts.PropFilter.SkipPropsWithoutDoc)
	assert.Equal(t, "tsconfig.json", opts.TSConfigPath)
	assert.Equal(t, "src", opts.CompilerOptions["baseUrl"])
}

func TestWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	assert.Equal(t, DefaultCollectionName, opts.DocgenCollectionName)
	assert.True(t, opts.DisplayNameEnabled())
	assert.Equal(t, DefaultIncludes, opts.Includes)
	assert.Equal(t, DefaultExcludes, opts.Excludes)

	opts.Includes[0] = "mutated"
	assert.Equal(t, `\.tsx$`, DefaultIncludes[0])

	off := false
	kept := Options{SetDisplayName: &off, Excludes: []string{}}.WithDefaults()
	assert.False(t, kept.DisplayNameEnabled())
	assert.Empty(t, kept.Excludes)
	assert.NotNil(t, kept.Excludes)
}

func TestConfigurationError_Message(t *testing.T) {
	err := Validate(map[string]any{"setDisplayName": "yes"})
	require.Error(t, err)
	assert.Equal(t, `loader: invalid configuration: option "setDisplayName" should be boolean: got string`, err.Error())

	err = Validate(map[string]any{"bogus": 1})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Expected, "docgenCollectionName")
	assert.Contains(t, cfgErr.Expected, "compilerOptions")
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{
		"includes", "excludes", "docgenCollectionName", "setDisplayName",
		"skipPropsWithName", "skipPropsWithoutDoc", "propFilter", "tsconfigPath", "compilerOptions",
	} {
		assert.Contains(t, props, key)
	}
}
