// # cmd/blastradius/app.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"blastradius/internal/config"
	"blastradius/internal/diff"
	"blastradius/internal/enrich"
	"blastradius/internal/graph"
	"blastradius/internal/impact"
	"blastradius/internal/parser"
	"blastradius/internal/scanner"
	"blastradius/internal/watcher"
)

// App wires the pipeline: scan the root, build (or reuse) the graph, parse
// the diff, analyze. Watch mode invalidates the cache on filesystem events
// and re-runs the same pipeline.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	scanner  *scanner.Scanner
	cache    *graph.Cache
	analyzer *impact.Analyzer
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	p := parser.NewParser(parser.NewGrammarLoader())

	var enricher enrich.Enricher = enrich.NewNull()
	if cfg.Enrichment.Enabled {
		var err error
		enricher, err = enrich.NewOpenAI(enrich.OpenAIOptions{
			APIKey:  cfg.Enrichment.APIKey,
			BaseURL: cfg.Enrichment.BaseURL,
			Model:   cfg.Enrichment.Model,
		})
		if err != nil {
			return nil, err
		}
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		scanner: scanner.New(p, scanOptions(cfg)),
		cache:   graph.NewCache(),
		analyzer: impact.New(enricher, impact.Options{
			MaxDepth:              cfg.Analysis.MaxDepth,
			EnrichmentDepthCutoff: cfg.Enrichment.DepthCutoff,
			EnrichmentTimeout:     cfg.Enrichment.Timeout,
			EnrichmentConcurrency: cfg.Enrichment.Concurrency,
			EnrichmentRate:        cfg.Enrichment.Rate,
			EnrichmentBurst:       cfg.Enrichment.Burst,
		}, logger),
	}, nil
}

func scanOptions(cfg *config.Config) scanner.Options {
	opts := scanner.DefaultOptions()
	if len(cfg.Scan.IgnoreDirs) > 0 {
		opts.IgnoreDirs = cfg.Scan.IgnoreDirs
	}
	if len(cfg.Scan.IgnoreFiles) > 0 {
		opts.IgnoreFiles = cfg.Scan.IgnoreFiles
	}
	if len(cfg.Scan.Extensions) > 0 {
		opts.AllowedExtensions = cfg.Scan.Extensions
	}
	if cfg.Scan.MaxFileSize > 0 {
		opts.MaxFileSize = cfg.Scan.MaxFileSize
	}
	return opts
}

// Graph scans the root and returns a cached graph when the source
// fingerprint has not moved since the last build.
func (a *App) Graph(ctx context.Context) (*graph.Graph, error) {
	modules, err := a.scanner.Scan(ctx, a.cfg.Root)
	if err != nil {
		return nil, err
	}

	fingerprint := graph.Fingerprint(modules)
	if g, ok := a.cache.Get(a.cfg.Root, fingerprint); ok {
		a.logger.Debug("graph cache hit", "root", a.cfg.Root)
		return g, nil
	}

	g := graph.Build(ctx, a.cfg.Root, modules)
	a.cache.Put(g)
	a.logger.Info("graph built", "modules", g.ModuleCount(), "edges", g.EdgeCount())
	return g, nil
}

// Analyze runs one full pipeline pass over the given diff text.
func (a *App) Analyze(ctx context.Context, diffText string) (*impact.Result, error) {
	changed, err := diff.Parse(diffText)
	if err != nil {
		return nil, err
	}

	g, err := a.Graph(ctx)
	if err != nil {
		return nil, err
	}

	return a.analyzer.Analyze(ctx, g, changed)
}

// WatchAndAnalyze re-runs the analysis whenever source files under the root
// change. The diff is re-read from diffPath each cycle so it can be updated
// between runs. Blocks until the context is done.
func (a *App) WatchAndAnalyze(ctx context.Context, diffPath string, report func(*impact.Result)) error {
	runs := make(chan struct{}, 1)

	w, err := watcher.New(watcher.Options{
		Debounce:    a.cfg.Watch.Debounce,
		IgnoreDirs:  a.cfg.Scan.IgnoreDirs,
		IgnoreFiles: a.cfg.Scan.IgnoreFiles,
		Extensions:  scanOptions(a.cfg).AllowedExtensions,
	}, a.logger, func(paths []string) {
		a.logger.Info("source changed", "files", len(paths))
		a.cache.Invalidate(a.cfg.Root)
		select {
		case runs <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(a.cfg.Root); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// First pass before any event arrives.
	if err := a.runOnce(ctx, diffPath, report); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-runs:
			if err := a.runOnce(ctx, diffPath, report); err != nil {
				a.logger.Error("analysis failed", "error", err)
			}
		}
	}
}

func (a *App) runOnce(ctx context.Context, diffPath string, report func(*impact.Result)) error {
	data, err := os.ReadFile(diffPath)
	if err != nil {
		return fmt.Errorf("read diff: %w", err)
	}
	res, err := a.Analyze(ctx, string(data))
	if err != nil {
		return err
	}
	report(res)
	return nil
}

// Status feeds the health endpoint.
func (a *App) Status() map[string]any {
	return map[string]any{
		"root":          a.cfg.Root,
		"cached_graphs": a.cache.Len(),
	}
}
