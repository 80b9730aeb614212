// SourceCache provides read access to source files through memory maps.
//
// A docgen parse touches the component file plus every module its props
// types are imported from. Files are mapped on first access and stay mapped
// until Close, so a file shared by several components is read once.
//
// **Safety Features:**
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Graceful fallback to os.ReadFile if mmap fails
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive loads)
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// ErrCacheClosed is returned by Read after Close.
var ErrCacheClosed = errors.New("source cache closed")

// SourceCacheConfig controls SourceCache behavior.
type SourceCacheConfig struct {
	// MaxFiles is the maximum number of files to keep cached.
	// Set to 0 for unlimited.
	MaxFiles int

	// Logger for warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultSourceCacheConfig returns the limits used by docgen parsers.
func DefaultSourceCacheConfig() *SourceCacheConfig {
	return &SourceCacheConfig{
		MaxFiles: 1024,
	}
}

// SourceCacheStats tracks cache metrics.
type SourceCacheStats struct {
	FilesCached  int
	CacheHits    int64
	CacheMisses  int64
	MmapFailures int64
}

type mappedFile struct {
	data mmap.MMap
	file *os.File
}

// SourceCache is a lazily populated, read-only file cache.
type SourceCache struct {
	config *SourceCacheConfig
	logger *slog.Logger

	mu       sync.RWMutex
	mapped   map[string]*mappedFile
	fallback map[string][]byte
	closed   bool

	statsMu sync.Mutex
	stats   SourceCacheStats
}

// NewSourceCache creates a SourceCache. A nil config uses the defaults.
func NewSourceCache(config *SourceCacheConfig) *SourceCache {
	if config == nil {
		config = DefaultSourceCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceCache{
		config:   config,
		logger:   logger,
		mapped:   make(map[string]*mappedFile),
		fallback: make(map[string][]byte),
	}
}

// Read returns the content of filePath. The returned slice is only valid
// until Close and must not be modified.
func (c *SourceCache) Read(filePath string) ([]byte, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrCacheClosed
	}
	if data, ok := c.lookupLocked(filePath); ok {
		c.mu.RUnlock()
		c.record(func(s *SourceCacheStats) { s.CacheHits++ })
		return data, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}
	// Double-check after acquiring the write lock.
	if data, ok := c.lookupLocked(filePath); ok {
		c.record(func(s *SourceCacheStats) { s.CacheHits++ })
		return data, nil
	}
	c.record(func(s *SourceCacheStats) { s.CacheMisses++ })

	if c.config.MaxFiles > 0 && len(c.mapped)+len(c.fallback) >= c.config.MaxFiles {
		return nil, fmt.Errorf("source cache limit reached: %d files", c.config.MaxFiles)
	}

	return c.loadLocked(filePath)
}

func (c *SourceCache) lookupLocked(filePath string) ([]byte, bool) {
	if mf, ok := c.mapped[filePath]; ok {
		return mf.data, true
	}
	if data, ok := c.fallback[filePath]; ok {
		return data, true
	}
	return nil, false
}

// loadLocked maps the file, falling back to os.ReadFile if mmap fails.
// Must be called while holding mu.Lock.
func (c *SourceCache) loadLocked(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, fmt.Errorf("failed to read file %q: is a directory", filePath)
	}

	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		file.Close()
		c.fallback[filePath] = []byte{}
		return c.fallback[filePath], nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		c.record(func(s *SourceCacheStats) { s.MmapFailures++ })
		c.logger.Warn("mmap failed, falling back to os.ReadFile", "file", filePath, "error", err)

		content, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read file %q: %w", filePath, readErr)
		}
		c.fallback[filePath] = content
		return content, nil
	}

	c.mapped[filePath] = &mappedFile{data: data, file: file}
	return data, nil
}

func (c *SourceCache) record(fn func(*SourceCacheStats)) {
	c.statsMu.Lock()
	fn(&c.stats)
	c.statsMu.Unlock()
}

// Stats returns a snapshot of cache metrics.
func (c *SourceCache) Stats() SourceCacheStats {
	c.mu.RLock()
	cached := len(c.mapped) + len(c.fallback)
	c.mu.RUnlock()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	stats := c.stats
	stats.FilesCached = cached
	return stats
}

// Close unmaps all files. It is safe to call more than once.
func (c *SourceCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for path, mf := range c.mapped {
		if err := mf.data.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap %q: %w", path, err))
		}
		if err := mf.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", path, err))
		}
	}
	c.mapped = nil
	c.fallback = nil

	return errors.Join(errs...)
}
