package codegen

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdocgen/pkg/docgen"
)

const buttonSource = "export const Button = () => <button />;\n"

func buttonDoc(workDir string) docgen.ComponentDoc {
	doc := docgen.NewComponentDoc("Button", "Button", filepath.Join(workDir, "src", "Button.tsx"))
	doc.Description = "Primary <b>action</b>"
	doc.Props.Set("size", docgen.PropItem{
		Name:         "size",
		Type:         docgen.PropItemType{Name: `"sm" | "md"`},
		Description:  "Size variant",
		DefaultValue: &docgen.DefaultValue{Value: "md"},
		Parent:       &docgen.ParentType{FileName: filepath.Join(workDir, "src", "Button.tsx"), Name: "ButtonProps"},
	})
	doc.Props.Set("label", docgen.PropItem{
		Name:     "label",
		Required: true,
		Type:     docgen.PropItemType{Name: "string"},
	})
	return doc
}

func TestGenerate_Block(t *testing.T) {
	workDir := t.TempDir()
	doc := buttonDoc(workDir)

	out, err := Generate(Input{
		Source:         buttonSource,
		FilePath:       doc.FilePath,
		WorkDir:        workDir,
		ComponentDocs:  []docgen.ComponentDoc{doc},
		CollectionName: "STORYBOOK_REACT_CLASSES",
		SetDisplayName: true,
	})
	require.NoError(t, err)

	expected := buttonSource + `
try {
    // @ts-ignore
    if (!Button.displayName) { Button.displayName = "Button"; }
    // @ts-ignore
    Button.__docgenInfo = {"description":"Primary <b>action</b>","displayName":"Button","props":{` +
		`"size":{"defaultValue":{"value":"md"},"description":"Size variant","name":"size","parent":{"fileName":"src/Button.tsx","name":"ButtonProps"},"required":false,"type":{"name":"\"sm\" | \"md\""}},` +
		`"label":{"defaultValue":null,"description":"","name":"label","required":true,"type":{"name":"string"}}}};
    // @ts-ignore
    if (typeof STORYBOOK_REACT_CLASSES !== "undefined")
        // @ts-ignore
        STORYBOOK_REACT_CLASSES["src/Button.tsx#Button"] = { docgenInfo: Button.__docgenInfo, name: "Button", path: "src/Button.tsx#Button" };
}
catch (__react_docgen_typescript_loader_error) { }
`
	assert.Equal(t, expected, out)
}

func TestGenerate_WithoutDisplayName(t *testing.T) {
	doc := docgen.NewComponentDoc("Button", "Button", "Button.tsx")

	out, err := Generate(Input{
		Source:         buttonSource,
		FilePath:       "Button.tsx",
		ComponentDocs:  []docgen.ComponentDoc{doc},
		CollectionName: "DOCS",
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "displayName =")
	assert.Contains(t, out, `DOCS["Button.tsx#Button"] = { docgenInfo: Button.__docgenInfo`)
	assert.True(t, strings.HasPrefix(out, buttonSource))
}

func TestGenerate_ReferencesIdentifier(t *testing.T) {
	doc := docgen.NewComponentDoc("Fancy Button", "Button", "Button.tsx")

	out, err := Generate(Input{
		Source:         buttonSource,
		FilePath:       "Button.tsx",
		ComponentDocs:  []docgen.ComponentDoc{doc},
		CollectionName: "STORYBOOK_REACT_CLASSES",
		SetDisplayName: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, `if (!Button.displayName) { Button.displayName = "Fancy Button"; }`)
	assert.Contains(t, out, `STORYBOOK_REACT_CLASSES["Button.tsx#Fancy Button"]`)
}

func TestGenerate_SkipsUnreferenceableRecords(t *testing.T) {
	docs := []docgen.ComponentDoc{
		docgen.NewComponentDoc("my-widget", "", "my-widget.tsx"),
		docgen.NewComponentDoc("Anon", "", "Anon.tsx"),
		docgen.NewComponentDoc("Broken", "not-an-identifier", "Broken.tsx"),
	}

	out, err := Generate(Input{
		Source:         buttonSource,
		FilePath:       "my-widget.tsx",
		ComponentDocs:  docs,
		CollectionName: "STORYBOOK_REACT_CLASSES",
		SetDisplayName: true,
	})
	require.NoError(t, err)
	assert.Equal(t, buttonSource, out)
}

func TestGenerate_MultipleRecordsInOrder(t *testing.T) {
	docs := []docgen.ComponentDoc{
		docgen.NewComponentDoc("Tabs", "Tabs", "Tabs.tsx"),
		docgen.NewComponentDoc("Tab", "Tab", "Tabs.tsx"),
	}

	out, err := Generate(Input{
		Source:         "src",
		FilePath:       "Tabs.tsx",
		ComponentDocs:  docs,
		CollectionName: "STORYBOOK_REACT_CLASSES",
		SetDisplayName: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "catch ("+ErrorBinding+")"))
	assert.Less(t, strings.Index(out, "Tabs.__docgenInfo"), strings.Index(out, "Tab.__docgenInfo"))
}

func TestGenerate_Reprocessing(t *testing.T) {
	in := Input{
		Source:         buttonSource,
		FilePath:       "Button.tsx",
		ComponentDocs:  []docgen.ComponentDoc{docgen.NewComponentDoc("Button", "Button", "Button.tsx")},
		CollectionName: "STORYBOOK_REACT_CLASSES",
		SetDisplayName: true,
	}
	once, err := Generate(in)
	require.NoError(t, err)

	in.Source = once
	twice, err := Generate(in)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRegistrationKey(t *testing.T) {
	workDir := filepath.Join(string(filepath.Separator), "repo")
	assert.Equal(t, "src/ui/Button.tsx#Button",
		RegistrationKey(workDir, filepath.Join(workDir, "src", "ui", "Button.tsx"), "Button"))
	assert.Equal(t, "Button.tsx#Button", RegistrationKey("", "Button.tsx", "Button"))
	assert.Equal(t, "lib/Card.tsx#Card", RegistrationKey(workDir, "lib/Card.tsx", "Card"))
}

func TestIsIdentifier(t *testing.T) {
	for _, s := range []string{"Button", "_private", "$el", "Ü", "Ünïcødé2", "Компонент", "a\u200cb"} {
		assert.True(t, IsIdentifier(s), s)
	}
	for _, s := range []string{"", "2fast", "my-widget", "a b", "window.DOCS"} {
		assert.False(t, IsIdentifier(s), s)
	}
}

func TestIsMemberPath(t *testing.T) {
	for _, s := range []string{"DOCS", "window.DOCS", "globalThis.storybook.Docs", "Ü.Ö"} {
		assert.True(t, IsMemberPath(s), s)
	}
	for _, s := range []string{"", ".DOCS", "window.", "window..DOCS", "window.2", "my docs"} {
		assert.False(t, IsMemberPath(s), s)
	}
}
