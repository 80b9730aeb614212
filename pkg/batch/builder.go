package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnana997/tsdocgen/pkg/loader"
)

// Builder transforms source files into a mirrored output tree.
type Builder struct {
	Loader *loader.Loader
	// Options are the raw loader options applied to every file.
	Options map[string]any
	// Root is the source tree; output paths mirror paths relative to it.
	Root   string
	OutDir string
	// Workers bounds concurrent transforms; 0 sizes the pool from the CPU count.
	Workers int
	Logger  *slog.Logger
}

// Stats summarizes a build.
type Stats struct {
	Amended   int
	Unchanged int
	Failed    int
	Duration  time.Duration
}

// Total is the number of files that finished, successfully or not.
func (s Stats) Total() int {
	return s.Amended + s.Unchanged + s.Failed
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func (b *Builder) validate() error {
	if b.Loader == nil {
		return errors.New("batch: builder has no loader")
	}
	if b.Root == "" || b.OutDir == "" {
		return errors.New("batch: builder needs a root and an output directory")
	}
	return nil
}

// Run transforms files concurrently. Every file is attempted; failures are
// counted and returned joined. Cancelling ctx stops submitting new files.
func (b *Builder) Run(ctx context.Context, files []string) (Stats, error) {
	if err := b.validate(); err != nil {
		return Stats{}, err
	}
	start := time.Now()
	logger := b.logger()

	pool := NewWorkerPool(ctx, b.Workers, func(_ context.Context, job Job) (Result, error) {
		return b.BuildFile(job.Path)
	}, logger)
	pool.Start()

	submitted := make(chan int, 1)
	go func() {
		n := 0
		for i, file := range files {
			if err := pool.Submit(Job{Path: file, JobID: i}); err != nil {
				break
			}
			n++
		}
		pool.FinishSubmitting()
		submitted <- n
	}()

	var stats Stats
	var errs []error
	expected := -1
	for expected < 0 || stats.Total() < expected {
		select {
		case n := <-submitted:
			expected = n
		case res := <-pool.Results():
			if res.Amended {
				stats.Amended++
			} else {
				stats.Unchanged++
			}
		case jobErr := <-pool.Errors():
			stats.Failed++
			errs = append(errs, jobErr)
			logger.Warn("Failed to transform file", "file", jobErr.Path, "error", jobErr.Err)
		case <-pool.Done():
			if expected < 0 {
				expected = <-submitted
			}
			pool.Stop()
			stats.Duration = time.Since(start)
			return stats, errors.Join(append(errs, ctx.Err())...)
		}
	}
	pool.Stop()

	stats.Duration = time.Since(start)
	logger.Info("Build finished",
		"amended", stats.Amended,
		"unchanged", stats.Unchanged,
		"failed", stats.Failed,
		"duration", stats.Duration)
	return stats, errors.Join(append(errs, ctx.Err())...)
}

// BuildFile transforms one file and writes the result under OutDir.
func (b *Builder) BuildFile(path string) (Result, error) {
	if err := b.validate(); err != nil {
		return Result{}, err
	}
	outPath, err := b.OutputPath(path)
	if err != nil {
		return Result{}, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read file: %w", err)
	}

	out, err := b.Loader.Sync(&loader.Resource{Path: path, Opts: b.Options}, string(source))
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return Result{}, fmt.Errorf("failed to write output: %w", err)
	}

	return Result{Path: path, OutPath: outPath, Amended: out != string(source)}, nil
}

// OutputPath maps a source file to its location under OutDir.
func (b *Builder) OutputPath(path string) (string, error) {
	absRoot, err := filepath.Abs(b.Root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, b.Root)
	}
	return filepath.Join(b.OutDir, rel), nil
}

// IsOutput reports whether path lies inside OutDir, which matters when the
// output tree is nested in the source tree.
func (b *Builder) IsOutput(path string) bool {
	absOut, err := filepath.Abs(b.OutDir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return absPath == absOut || strings.HasPrefix(absPath, absOut+string(filepath.Separator))
}

// Remove deletes the output of a source file that no longer exists.
func (b *Builder) Remove(path string) error {
	outPath, err := b.OutputPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove output: %w", err)
	}
	return nil
}
