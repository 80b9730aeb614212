package loader

import (
	"io"

	"github.com/gnana997/tsdocgen/pkg/docgen"
)

// ParserOptions converts loader options into extractor options. The flat
// skipPropsWithName/skipPropsWithoutDoc fields win over propFilter; any
// skipPropsWithName list selects them, even an empty one.
func ParserOptions(opts Options) docgen.ParserOptions {
	skipUndocumented := opts.SkipPropsWithoutDoc != nil && *opts.SkipPropsWithoutDoc
	if opts.SkipPropsWithName != nil || skipUndocumented {
		return docgen.ParserOptions{PropFilter: &docgen.PropFilter{
			SkipPropsWithName:   opts.SkipPropsWithName,
			SkipPropsWithoutDoc: skipUndocumented,
		}}
	}
	if opts.PropFilter != nil {
		return docgen.ParserOptions{PropFilter: &docgen.PropFilter{
			SkipPropsWithName:   opts.PropFilter.SkipPropsWithName,
			SkipPropsWithoutDoc: opts.PropFilter.SkipPropsWithoutDoc,
		}}
	}
	return docgen.ParserOptions{}
}

// ParserConfig picks exactly one compiler-options source: tsconfigPath,
// then compilerOptions, then the defaults.
func ParserConfig(opts Options) docgen.Config {
	switch {
	case opts.TSConfigPath != "":
		return docgen.CustomConfig(opts.TSConfigPath)
	case opts.CompilerOptions != nil:
		return docgen.CompilerOptionsConfig(opts.CompilerOptions)
	default:
		return docgen.DefaultConfig()
	}
}

// Extract builds a parser for opts and documents path. Errors from the
// factory and the parser are returned unchanged.
func Extract(factory docgen.Factory, opts Options, path string) ([]docgen.ComponentDoc, error) {
	return extract(factory, ParserConfig(opts), ParserOptions(opts), path)
}

func extract(factory docgen.Factory, cfg docgen.Config, po docgen.ParserOptions, path string) ([]docgen.ComponentDoc, error) {
	fp, err := factory(cfg, po)
	if err != nil {
		return nil, err
	}
	if closer, ok := fp.(io.Closer); ok {
		defer closer.Close()
	}
	return fp.Parse(path)
}
