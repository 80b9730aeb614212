package parser

import (
	"path/filepath"
	"strings"
)

// Language represents a supported source language.
type Language int

const (
	// LanguageTypeScript represents TypeScript (.ts, .tsx, .mts, .cts files)
	LanguageTypeScript Language = iota
	// LanguageJavaScript represents JavaScript (.js, .jsx, .mjs, .cjs files)
	LanguageJavaScript
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// Grammar identifies one tree-sitter grammar. TypeScript ships two grammars
// (with and without JSX); JavaScript's grammar always accepts JSX.
type Grammar int

const (
	GrammarTypeScript Grammar = iota
	GrammarTSX
	GrammarJavaScript
	GrammarUnknown
)

// String returns the grammar name used in logs.
func (g Grammar) String() string {
	switch g {
	case GrammarTypeScript:
		return "typescript"
	case GrammarTSX:
		return "tsx"
	case GrammarJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// Language returns the language the grammar belongs to.
func (g Grammar) Language() Language {
	switch g {
	case GrammarTypeScript, GrammarTSX:
		return LanguageTypeScript
	case GrammarJavaScript:
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// DetectLanguage detects the language from a file path.
// Returns LanguageUnknown if the file extension is not recognized.
func DetectLanguage(filePath string) Language {
	return DetectGrammar(filePath).Language()
}

// DetectGrammar picks the grammar for a file path.
func DetectGrammar(filePath string) Grammar {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return GrammarTypeScript
	case ".tsx":
		return GrammarTSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return GrammarJavaScript
	default:
		return GrammarUnknown
	}
}

// IsTSXFile checks if a file path represents a TSX file.
func IsTSXFile(filePath string) bool {
	return DetectGrammar(filePath) == GrammarTSX
}

// IsDeclarationFile reports whether the path is a TypeScript declaration
// file (foo.d.ts, foo.d.mts, foo.d.cts).
func IsDeclarationFile(filePath string) bool {
	base := strings.ToLower(filepath.Base(filePath))
	for _, suffix := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
