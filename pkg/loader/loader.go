package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gnana997/tsdocgen/pkg/codegen"
	"github.com/gnana997/tsdocgen/pkg/docgen"
	"github.com/gnana997/tsdocgen/pkg/parser"
	"github.com/gnana997/tsdocgen/pkg/parser/queries"
)

// Callback receives a deferred transform's result. Exactly one of the
// arguments is meaningful: the text when err is nil.
type Callback func(result string, err error)

// Host is the build pipeline's view of the resource being transformed.
type Host interface {
	ResourcePath() string
	// Cacheable marks the result as deterministic for the same source and
	// options.
	Cacheable(flag bool)
	// Async returns the completion callback when the host wants the result
	// delivered later, or nil for a synchronous call.
	Async() Callback
	Options() map[string]any
}

// Loader runs the transform pipeline. It holds no per-file state, so one
// Loader serves concurrent transforms.
type Loader struct {
	factory docgen.Factory
	matcher *Matcher
	workDir string
	logger  *slog.Logger

	pm *parser.ParserManager
	qm *queries.QueryManager
}

// Option configures a Loader.
type Option func(*Loader)

// WithFactory replaces the docgen engine.
func WithFactory(factory docgen.Factory) Option {
	return func(l *Loader) { l.factory = factory }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithWorkDir sets the directory registration keys are relative to.
// Defaults to the process working directory.
func WithWorkDir(dir string) Option {
	return func(l *Loader) { l.workDir = dir }
}

// WithMatcher shares a pattern cache between loaders.
func WithMatcher(m *Matcher) Option {
	return func(l *Loader) { l.matcher = m }
}

// New creates a Loader. Without WithFactory it documents files with the
// tree-sitter engine, sharing one parser pool across transforms.
func New(options ...Option) *Loader {
	l := &Loader{}
	for _, opt := range options {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.matcher == nil {
		l.matcher = defaultMatcher
	}
	if l.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			l.workDir = wd
		}
	}
	if l.factory == nil {
		l.pm = parser.NewParserManager(l.logger)
		l.qm = queries.NewQueryManager(l.logger)
		l.factory = docgen.NewFactory(
			docgen.WithParserManager(l.pm),
			docgen.WithQueryManager(l.qm),
			docgen.WithLogger(l.logger),
			docgen.WithWorkDir(l.workDir),
		)
	}
	return l
}

// WorkDir returns the directory registration keys are relative to.
func (l *Loader) WorkDir() string {
	return l.workDir
}

// Close releases the shared parser pool, if the Loader created one.
func (l *Loader) Close() error {
	var errs []error
	if l.qm != nil {
		errs = append(errs, l.qm.Close())
	}
	if l.pm != nil {
		errs = append(errs, l.pm.Close())
	}
	return errors.Join(errs...)
}

// Transform runs the pipeline for one resource: validate options, filter
// by path, extract documentation and append registration blocks. Excluded
// files and files without components are returned unchanged. On error the
// returned text is empty.
func (l *Loader) Transform(path, source string, raw map[string]any) (string, error) {
	decoded, err := DecodeOptions(raw)
	if err != nil {
		return "", err
	}
	opts := decoded.WithDefaults()

	if !l.matcher.Match(opts.Includes, opts.Excludes, path) {
		l.logger.Debug("resource not selected", "path", path)
		return source, nil
	}

	docs, err := Extract(l.factory, opts, path)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		l.logger.Debug("no components found", "path", path)
		return source, nil
	}

	out, err := codegen.Generate(codegen.Input{
		Source:         source,
		FilePath:       path,
		WorkDir:        l.workDir,
		ComponentDocs:  docs,
		CollectionName: opts.DocgenCollectionName,
		SetDisplayName: opts.DisplayNameEnabled(),
	})
	if err != nil {
		return "", err
	}

	l.logger.Debug("resource amended",
		"path", path,
		"components", len(docs),
		"collection", opts.DocgenCollectionName)
	return out, nil
}

// Document validates raw and returns the records for path without
// generating code. The include and exclude filters do not apply. enumValues
// expands string-literal unions, which the build pipeline never does.
func (l *Loader) Document(path string, raw map[string]any, enumValues bool) ([]docgen.ComponentDoc, error) {
	decoded, err := DecodeOptions(raw)
	if err != nil {
		return nil, err
	}
	opts := decoded.WithDefaults()
	po := ParserOptions(opts)
	po.ShouldExtractLiteralValuesFromEnum = enumValues
	return extract(l.factory, ParserConfig(opts), po, path)
}

// Sync transforms the host's resource and returns the result directly.
func (l *Loader) Sync(h Host, source string) (string, error) {
	h.Cacheable(true)
	return l.transform(h.ResourcePath(), source, h.Options())
}

// Deferred transforms the host's resource on a new goroutine and reports
// through done exactly once.
func (l *Loader) Deferred(h Host, source string, done Callback) {
	go func() {
		done(l.Sync(h, source))
	}()
}

// Run follows the protocol the host selected. When h.Async returns a
// callback the result is delivered there and Run returns ("", nil).
func (l *Loader) Run(h Host, source string) (string, error) {
	if done := h.Async(); done != nil {
		l.Deferred(h, source, done)
		return "", nil
	}
	return l.Sync(h, source)
}

// transform converts a panic in the pipeline into an error.
func (l *Loader) transform(path, source string, raw map[string]any) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("transform panicked", "path", path, "panic", r)
			result, err = "", fmt.Errorf("loader: transform %s: panic: %v", path, r)
		}
	}()
	return l.Transform(path, source, raw)
}

// Resource is a Host backed by plain values, for CLIs, batch runs and
// tests.
type Resource struct {
	Path     string
	Opts     map[string]any
	Callback Callback

	cacheable atomic.Bool
}

func (r *Resource) ResourcePath() string { return r.Path }

func (r *Resource) Cacheable(flag bool) { r.cacheable.Store(flag) }

// IsCacheable reports the last value passed to Cacheable.
func (r *Resource) IsCacheable() bool { return r.cacheable.Load() }

func (r *Resource) Async() Callback { return r.Callback }

func (r *Resource) Options() map[string]any { return r.Opts }
