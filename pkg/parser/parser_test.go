package parser

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const sampleTSX = `import React from "react";

interface ButtonProps {
  /** Button label */
  label: string;
}

export const Button = ({ label }: ButtonProps) => <button>{label}</button>;
`

func TestParseTypeScript(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("export interface Props { size?: number }"), GrammarTypeScript)
	require.NoError(t, err, "Parse should succeed")
	require.NotNil(t, tree, "Tree should not be nil")
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind(), "Root should be a program node")
	assert.False(t, root.HasError())
}

func TestParseTSX(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte(sampleTSX), GrammarTSX)
	require.NoError(t, err, "Parse should succeed")
	require.NotNil(t, tree, "Tree should not be nil")
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError(), "TSX grammar should accept JSX")
	assert.Contains(t, root.ToSexp(), "jsx_element", "Should contain JSX elements")
}

func TestParseJSXWithTypeScriptGrammarHasErrors(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte(sampleTSX), GrammarTypeScript)
	require.NoError(t, err)
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError(), "plain TypeScript grammar should reject JSX")
}

func TestParseJavaScript(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("export const Box = () => <div />;"), GrammarJavaScript)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, "program", tree.RootNode().Kind())
	assert.False(t, tree.RootNode().HasError())
}

func TestLazyInitialization(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	stats := manager.GetStats()
	assert.Equal(t, 0, stats.ParsersCreated, "Should start with 0 parsers")

	source := []byte("const x: number = 1;")
	tree, err := manager.Parse(source, GrammarTypeScript)
	require.NoError(t, err)
	tree.Close()

	stats = manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated)
	assert.Equal(t, 1, stats.ParsesCalled)

	// Same grammar reuses the pooled parser
	tree, err = manager.Parse(source, GrammarTypeScript)
	require.NoError(t, err)
	tree.Close()

	stats = manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated, "Should still have 1 parser (reused)")
	assert.Equal(t, 2, stats.ParsesCalled)

	// TSX is a separate grammar with its own pool
	tree, err = manager.Parse(source, GrammarTSX)
	require.NoError(t, err)
	tree.Close()

	stats = manager.GetStats()
	assert.Equal(t, 2, stats.ParsersCreated)
	assert.Equal(t, 3, stats.ParsesCalled)
}

func TestPoolSizeOverride(t *testing.T) {
	manager := NewParserManagerWithPoolSize(testLogger(), 2)
	defer manager.Close()

	assert.Equal(t, 2, manager.GetStats().PoolSize)
}

func TestGrammarDetection(t *testing.T) {
	testCases := []struct {
		filePath string
		grammar  Grammar
		lang     Language
	}{
		{"file.ts", GrammarTypeScript, LanguageTypeScript},
		{"file.mts", GrammarTypeScript, LanguageTypeScript},
		{"file.tsx", GrammarTSX, LanguageTypeScript},
		{"file.TSX", GrammarTSX, LanguageTypeScript},
		{"file.js", GrammarJavaScript, LanguageJavaScript},
		{"file.jsx", GrammarJavaScript, LanguageJavaScript},
		{"file.cjs", GrammarJavaScript, LanguageJavaScript},
		{"file.md", GrammarUnknown, LanguageUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.filePath, func(t *testing.T) {
			assert.Equal(t, tc.grammar, DetectGrammar(tc.filePath))
			assert.Equal(t, tc.lang, DetectLanguage(tc.filePath))
		})
	}

	assert.True(t, IsTSXFile("a/B.tsx"))
	assert.False(t, IsTSXFile("a/B.ts"))
}

func TestIsDeclarationFile(t *testing.T) {
	assert.True(t, IsDeclarationFile("types/react.d.ts"))
	assert.True(t, IsDeclarationFile("index.D.TS"))
	assert.True(t, IsDeclarationFile("mod.d.mts"))
	assert.False(t, IsDeclarationFile("dts.ts"))
	assert.False(t, IsDeclarationFile("Button.tsx"))
}

func TestParseUnknownGrammar(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("some random text"), GrammarUnknown)
	assert.Error(t, err)
	assert.Nil(t, tree)
}

func TestParseInvalidSyntax(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("const x: = ;"), GrammarTypeScript)
	require.NoError(t, err, "Parse should not return error even for invalid syntax")
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
}

func TestMemoryCleanup(t *testing.T) {
	manager := NewParserManager(testLogger())

	for _, g := range []Grammar{GrammarTypeScript, GrammarTSX, GrammarJavaScript} {
		tree, err := manager.Parse([]byte("const x = 1;"), g)
		require.NoError(t, err)
		tree.Close()
	}

	assert.NoError(t, manager.Close())
	assert.Empty(t, manager.pools, "Pools map should be empty after Close")
}

func TestGrammarString(t *testing.T) {
	assert.Equal(t, "typescript", GrammarTypeScript.String())
	assert.Equal(t, "tsx", GrammarTSX.String())
	assert.Equal(t, "javascript", GrammarJavaScript.String())
	assert.Equal(t, "unknown", GrammarUnknown.String())
	assert.Equal(t, "typescript", LanguageTypeScript.String())
}
