// # cmd/blastradius/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"blastradius/internal/config"
	"blastradius/internal/impact"
	"blastradius/internal/shared/observability"
)

var (
	configPath  = flag.String("config", "./blastradius.toml", "Path to config file")
	root        = flag.String("root", "", "Source root to scan (overrides config)")
	diffPath    = flag.String("diff", "", "Unified diff to analyze; '-' reads stdin")
	asJSON      = flag.Bool("json", false, "Emit the result as JSON")
	maxDepth    = flag.Int("max-depth", -1, "Traversal depth limit; 0 exhausts the graph (overrides config)")
	watchMode   = flag.Bool("watch", false, "Re-run the analysis when source files change")
	metricsAddr = flag.String("metrics-addr", "", "Serve /metrics and /health on this address (overrides config)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("blastradius v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *maxDepth >= 0 {
		cfg.Analysis.MaxDepth = *maxDepth
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	if *diffPath == "" {
		fmt.Fprintln(os.Stderr, "a diff is required: blastradius -diff <file> or -diff - for stdin")
		os.Exit(1)
	}
	if *watchMode && *diffPath == "-" {
		fmt.Fprintln(os.Stderr, "-watch re-reads the diff between runs and cannot use stdin")
		os.Exit(1)
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	if cfg.Metrics.Addr != "" {
		srv := observability.NewServer(cfg.Metrics.Addr, app.Status)
		if err := srv.Start(); err != nil {
			logger.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Stop(ctx)
		}()
	}

	ctx := context.Background()

	if *watchMode {
		if err := app.WatchAndAnalyze(ctx, *diffPath, printResult); err != nil {
			logger.Error("watch mode failed", "error", err)
			os.Exit(1)
		}
		return
	}

	diffText, err := readDiff(*diffPath)
	if err != nil {
		logger.Error("failed to read diff", "error", err)
		os.Exit(1)
	}

	res, err := app.Analyze(ctx, diffText)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
	printResult(res)
}

// loadConfig tolerates a missing file only at the default path.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil && *configPath == "./blastradius.toml" && errors.Is(err, fs.ErrNotExist) {
		return config.Load("")
	}
	return cfg, err
}

func readDiff(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func printResult(res *impact.Result) {
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			slog.Error("failed to encode result", "error", err)
		}
		return
	}
	fmt.Print(formatReport(res))
}
