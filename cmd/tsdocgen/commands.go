package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/tsdocgen/pkg/batch"
	"github.com/gnana997/tsdocgen/pkg/docgen"
	"github.com/gnana997/tsdocgen/pkg/loader"
	mcpserver "github.com/gnana997/tsdocgen/pkg/mcp"
	"github.com/gnana997/tsdocgen/pkg/mcplog"
)

func (a *app) newLoader() *loader.Loader {
	return loader.New(loader.WithLogger(a.logger))
}

func addLoaderFlags(cmd *cobra.Command, f *loaderFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.collection, "collection", "", "global collection name (default "+loader.DefaultCollectionName+")")
	flags.BoolVar(&f.noDisplayName, "no-display-name", false, "do not assign displayName")
	flags.StringVar(&f.tsconfig, "tsconfig", "", "tsconfig.json used to resolve imports")
	flags.StringArrayVar(&f.includes, "include", nil, "regular expressions selecting files to document")
	flags.StringArrayVar(&f.excludes, "exclude", nil, "regular expressions excluding files")
}

func newTransformCmd(a *app) *cobra.Command {
	var (
		lf     loaderFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "transform FILE",
		Short: "Append docgen registration blocks to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			l := a.newLoader()
			defer l.Close()

			out, err := l.Sync(&loader.Resource{Path: path, Opts: lf.merge(a.config.Loader)}, string(source))
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			return os.WriteFile(output, []byte(out), 0o644)
		},
	}
	addLoaderFlags(cmd, &lf)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of stdout")
	return cmd
}

func newParseCmd(a *app) *cobra.Command {
	var (
		tsconfig   string
		enumValues bool
	)
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the component documentation of a file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			raw := map[string]any{}
			for _, key := range []string{"tsconfigPath", "compilerOptions"} {
				if v, ok := a.config.Loader[key]; ok {
					raw[key] = v
				}
			}
			if tsconfig != "" {
				raw["tsconfigPath"] = tsconfig
			}

			l := a.newLoader()
			defer l.Close()

			docs, err := l.Document(path, raw, enumValues)
			if err != nil {
				return err
			}
			if docs == nil {
				docs = []docgen.ComponentDoc{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(docs)
		},
	}
	cmd.Flags().StringVar(&tsconfig, "tsconfig", "", "tsconfig.json used to resolve imports")
	cmd.Flags().BoolVar(&enumValues, "enum-values", false, "expand string literal unions into enum values")
	return cmd
}

// buildFlags configure build and watch.
type buildFlags struct {
	loader  loaderFlags
	out     string
	globs   []string
	ignore  []string
	workers int
}

func addBuildFlags(cmd *cobra.Command, f *buildFlags) {
	addLoaderFlags(cmd, &f.loader)
	flags := cmd.Flags()
	flags.StringVar(&f.out, "out", "", "output directory (required unless build.out is configured)")
	flags.StringArrayVar(&f.globs, "glob", nil, "doublestar patterns selecting files, relative to DIR")
	flags.StringArrayVar(&f.ignore, "ignore", nil, "doublestar patterns excluding files")
	flags.IntVar(&f.workers, "workers", 0, "concurrent transforms (default from CPU count)")
}

func (a *app) builder(root string, f buildFlags) (*batch.Builder, batch.Selection, error) {
	cfg := a.config.Build
	if f.out != "" {
		cfg.Out = f.out
	}
	if len(f.globs) > 0 {
		cfg.Include = f.globs
	}
	if len(f.ignore) > 0 {
		cfg.Exclude = f.ignore
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if cfg.Out == "" {
		return nil, batch.Selection{}, fmt.Errorf("an output directory is required (--out or build.out)")
	}

	b := &batch.Builder{
		Loader:  a.newLoader(),
		Options: f.loader.merge(a.config.Loader),
		Root:    root,
		OutDir:  cfg.Out,
		Workers: cfg.Workers,
		Logger:  a.logger,
	}
	return b, cfg.Selection(), nil
}

// buildTree discovers and builds every selected file outside the output
// directory.
func buildTree(ctx context.Context, b *batch.Builder, sel batch.Selection) (batch.Stats, error) {
	found, err := batch.Discover(b.Root, sel)
	if err != nil {
		return batch.Stats{}, err
	}
	files := found[:0]
	for _, f := range found {
		if !b.IsOutput(f) {
			files = append(files, f)
		}
	}
	return b.Run(ctx, files)
}

func newBuildCmd(a *app) *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build DIR",
		Short: "Transform every selected file under DIR into an output tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, sel, err := a.builder(args[0], f)
			if err != nil {
				return err
			}
			defer b.Loader.Close()

			stats, err := buildTree(cmd.Context(), b, sel)
			fmt.Fprintf(cmd.OutOrStdout(), "%d amended, %d unchanged, %d failed\n",
				stats.Amended, stats.Unchanged, stats.Failed)
			return err
		},
	}
	addBuildFlags(cmd, &f)
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Build DIR, then rebuild files as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, sel, err := a.builder(args[0], f)
			if err != nil {
				return err
			}
			defer b.Loader.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Failed files are reported and retried when they change.
			if _, err := buildTree(ctx, b, sel); err != nil && ctx.Err() == nil {
				a.logger.Warn("Initial build had failures", "error", err)
			}

			w, err := batch.NewWatcher(b, sel, batch.WatchOptions{}, a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			<-ctx.Done()
			return nil
		},
	}
	addBuildFlags(cmd, &f)
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the loader as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			callLog, err := mcplog.NewLogger(logFile)
			if err != nil {
				return err
			}
			defer callLog.Close()

			l := a.newLoader()
			defer l.Close()

			return mcpserver.NewServer(l, callLog, a.logger).ServeStdio()
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "append a JSON line per tool call to this file")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the loader options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := loader.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return err
		},
	}
}
