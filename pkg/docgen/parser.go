package docgen

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/tsdocgen/pkg/parser"
	"github.com/gnana997/tsdocgen/pkg/parser/queries"
	"github.com/gnana997/tsdocgen/pkg/util"
)

// DefaultMaxImportDepth bounds how many imports deep a props type is
// followed.
const DefaultMaxImportDepth = 8

// Parser extracts component documentation from files on disk. A Parser is
// safe for concurrent use; each Parse call reads its files afresh.
type Parser struct {
	cfg             Config
	opts            ParserOptions
	compilerOptions *CompilerOptions

	pm     *parser.ParserManager
	ownsPM bool
	qm     *queries.QueryManager
	ownsQM bool

	logger         *slog.Logger
	maxImportDepth int
	workDir        string
}

// Option configures a Parser.
type Option func(*Parser)

// WithParserManager shares a parser pool instead of creating one.
func WithParserManager(pm *parser.ParserManager) Option {
	return func(p *Parser) { p.pm = pm }
}

// WithQueryManager shares compiled queries instead of creating them.
func WithQueryManager(qm *queries.QueryManager) Option {
	return func(p *Parser) { p.qm = qm }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// WithMaxImportDepth overrides DefaultMaxImportDepth.
func WithMaxImportDepth(depth int) Option {
	return func(p *Parser) { p.maxImportDepth = depth }
}

// WithWorkDir sets the directory inline compilerOptions resolve against.
// Defaults to the process working directory.
func WithWorkDir(dir string) Option {
	return func(p *Parser) { p.workDir = dir }
}

// New creates a Parser for cfg. It fails when a tsconfig file cannot be
// read or compiler options cannot be decoded.
func New(cfg Config, opts ParserOptions, options ...Option) (*Parser, error) {
	p := &Parser{
		cfg:            cfg,
		opts:           opts,
		maxImportDepth: DefaultMaxImportDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("docgen: working directory: %w", err)
		}
		p.workDir = wd
	}

	var err error
	switch cfg.Mode {
	case ModeCustomConfig:
		p.compilerOptions, err = LoadTSConfig(cfg.TSConfigPath)
	case ModeCompilerOptions:
		p.compilerOptions, err = DecodeCompilerOptions(cfg.CompilerOptions, p.workDir)
	default:
		p.compilerOptions = &CompilerOptions{PathsBase: p.workDir}
	}
	if err != nil {
		return nil, err
	}

	if p.pm == nil {
		p.pm = parser.NewParserManager(p.logger)
		p.ownsPM = true
	}
	if p.qm == nil {
		p.qm = queries.NewQueryManager(p.logger)
		p.ownsQM = true
	}

	p.logger.Debug("docgen parser created",
		"mode", cfg.Mode.String(),
		"allowJs", p.compilerOptions.AllowJS,
		"baseUrl", p.compilerOptions.BaseURL)
	return p, nil
}

// NewFactory returns a Factory that builds Parsers with the given options.
func NewFactory(options ...Option) Factory {
	return func(cfg Config, opts ParserOptions) (FileParser, error) {
		return New(cfg, opts, options...)
	}
}

// CompilerOptions returns the effective compiler options.
func (p *Parser) CompilerOptions() CompilerOptions {
	return *p.compilerOptions
}

// Parse returns the documentation records of the components exported by
// filePath, in source order. JavaScript files yield no records unless
// allowJs is set.
func (p *Parser) Parse(filePath string) ([]ComponentDoc, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("docgen: resolve %q: %w", filePath, err)
	}

	grammar := parser.DetectGrammar(abs)
	if grammar == parser.GrammarUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filePath)
	}
	if grammar == parser.GrammarJavaScript && !p.compilerOptions.AllowJS {
		p.logger.Debug("skipping javascript file without allowJs", "file", abs)
		return nil, nil
	}

	s := p.newSession()
	defer s.close()

	m, err := s.load(abs)
	if err != nil {
		return nil, err
	}

	components := detectComponents(m)
	docs := make([]ComponentDoc, 0, len(components))
	for _, c := range components {
		docs = append(docs, s.document(m, c))
	}

	p.logger.Debug("parsed components",
		"file", abs,
		"components", len(docs),
		"modules", len(s.modules))
	return docs, nil
}

// Close releases the parser and query pools the Parser created.
func (p *Parser) Close() error {
	var errs []error
	if p.ownsQM {
		errs = append(errs, p.qm.Close())
	}
	if p.ownsPM {
		errs = append(errs, p.pm.Close())
	}
	return errors.Join(errs...)
}

// session holds the modules loaded while documenting one file.
type session struct {
	p        *Parser
	cache    *util.SourceCache
	modules  map[string]*module
	failed   map[string]bool
	resolver moduleResolver
}

func (p *Parser) newSession() *session {
	cacheConfig := util.DefaultSourceCacheConfig()
	cacheConfig.Logger = p.logger
	return &session{
		p:        p,
		cache:    util.NewSourceCache(cacheConfig),
		modules:  make(map[string]*module),
		failed:   make(map[string]bool),
		resolver: moduleResolver{opts: p.compilerOptions},
	}
}

func (s *session) close() {
	for _, m := range s.modules {
		m.close()
	}
	stats := s.cache.Stats()
	s.p.logger.Debug("parse session finished",
		"modules", len(s.modules),
		"files_cached", stats.FilesCached,
		"cache_hits", stats.CacheHits,
		"cache_misses", stats.CacheMisses,
		"mmap_failures", stats.MmapFailures)
	if err := s.cache.Close(); err != nil {
		s.p.logger.Warn("failed to release source cache", "error", err)
	}
}

// load returns the module at path, parsing it on first use.
func (s *session) load(path string) (*module, error) {
	if m, ok := s.modules[path]; ok {
		return m, nil
	}
	source, err := s.cache.Read(path)
	if err != nil {
		return nil, fmt.Errorf("docgen: read %s: %w", path, err)
	}
	m, err := loadModule(s.p.pm, s.p.qm, path, source)
	if err != nil {
		return nil, err
	}
	s.modules[path] = m
	return m, nil
}

// dependency loads a module imported from m. Failures are logged once and
// make the import contribute nothing.
func (s *session) dependency(from *module, spec string) (*module, bool) {
	path, ok := s.resolver.resolve(from.path, spec)
	if !ok {
		return nil, false
	}
	if s.failed[path] {
		return nil, false
	}
	m, err := s.load(path)
	if err != nil {
		s.failed[path] = true
		s.p.logger.Debug("failed to load imported module",
			"from", from.path,
			"import", spec,
			"error", err)
		return nil, false
	}
	return m, true
}

// resolveExport follows `name` exported from the module spec imported by
// from, through re-exports and star exports, to its declaration.
func (s *session) resolveExport(from *module, spec, name string, depth int) (*module, *declaration, bool) {
	if depth > s.p.maxImportDepth {
		return nil, nil, false
	}
	target, ok := s.dependency(from, spec)
	if !ok {
		return nil, nil, false
	}

	if local, ok := target.exports[name]; ok {
		if d, ok := target.decls[local]; ok {
			return target, d, true
		}
		// export { Props } where Props is itself imported
		if imp, ok := target.imports[local]; ok {
			return s.resolveExport(target, imp.source, imp.imported, depth+1)
		}
		return nil, nil, false
	}
	if re, ok := target.reexports[name]; ok {
		return s.resolveExport(target, re.source, re.name, depth+1)
	}
	if name == "default" {
		return nil, nil, false
	}
	for _, star := range target.starExports {
		if m, d, ok := s.resolveExport(target, star, name, depth+1); ok {
			return m, d, true
		}
	}
	return nil, nil, false
}
