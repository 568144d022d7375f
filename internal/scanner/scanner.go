// # internal/scanner/scanner.go
package scanner

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"blastradius/internal/parser"
	"blastradius/internal/shared/observability"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// Module is one scanned source unit: a single file identified by its
// dotted-path module ID.
type Module struct {
	ID          string
	Path        string // Path relative to the scan root
	Language    string
	Imports     []string // Raw import targets, relative imports resolved
	Symbols     []string // Top-level definition names, best-effort
	ContentHash [32]byte
	ParseFailed bool
}

type Options struct {
	IgnoreDirs        []string
	IgnoreFiles       []string
	AllowedExtensions []string
	MaxFileSize       int64 // bytes, 0 = unlimited
}

func DefaultOptions() Options {
	return Options{
		IgnoreDirs:        []string{".git", "__pycache__", "venv", ".venv", "node_modules", "vendor"},
		AllowedExtensions: []string{".py", ".go"},
	}
}

type Scanner struct {
	parser *parser.Parser
	opts   Options
}

func New(p *parser.Parser, opts Options) *Scanner {
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = DefaultOptions().AllowedExtensions
	}
	return &Scanner{parser: p, opts: opts}
}

// Scan walks root and parses every matching source file. Output is sorted by
// module ID, so the per-file parse order (parallel workers) never shows.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Module, error) {
	ctx, span := observability.Tracer.Start(ctx, "scanner.Scan")
	defer span.End()

	start := time.Now()

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, &ScanError{Root: root, Err: ErrRootNotFound}
	}

	paths, err := s.listFiles(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	if len(paths) == 0 {
		return nil, &ScanError{Root: root, Err: ErrNoSourceFiles}
	}

	goModule := goModulePath(root)

	var mu sync.Mutex
	byID := make(map[string]*Module, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			mod, err := s.scanFile(root, path, goModule)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if prev, ok := byID[mod.ID]; ok {
				mergeModules(prev, mod)
			} else {
				byID[mod.ID] = mod
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	modules := make([]Module, 0, len(byID))
	for _, mod := range byID {
		sort.Strings(mod.Imports)
		mod.Imports = dedupSorted(mod.Imports)
		modules = append(modules, *mod)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })

	observability.ScanDuration.Observe(time.Since(start).Seconds())
	observability.ScannedFiles.Set(float64(len(paths)))

	slog.Debug("scan complete", "root", root, "files", len(paths), "modules", len(modules))

	return modules, nil
}

func (s *Scanner) listFiles(root string) ([]string, error) {
	dirGlobs, err := compileGlobs(s.opts.IgnoreDirs)
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(s.opts.IgnoreFiles)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(s.opts.AllowedExtensions))
	for _, ext := range s.opts.AllowedExtensions {
		allowed[ext] = true
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)

		if d.IsDir() {
			for _, g := range dirGlobs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !allowed[filepath.Ext(path)] || !s.parser.Supports(path) {
			return nil
		}

		for _, g := range fileGlobs {
			if g.Match(base) {
				return nil
			}
		}

		if s.opts.MaxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > s.opts.MaxFileSize {
				slog.Debug("skipping oversized file", "path", path, "size", info.Size())
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// scanFile parses one file into a Module. A read or parse failure does not
// fail the scan: the module is kept with no imports and ParseFailed set.
func (s *Scanner) scanFile(root, path, goModule string) (*Module, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}

	mod := &Module{
		ID:   ModuleID(rel),
		Path: filepath.ToSlash(rel),
	}

	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read file", "path", path, "error", err)
		mod.ParseFailed = true
		return mod, nil
	}
	mod.ContentHash = sha256.Sum256(content)

	file, err := s.parser.ParseFile(path, content)
	if err != nil {
		slog.Warn("failed to parse file", "path", path, "error", err)
		mod.ParseFailed = true
		return mod, nil
	}

	mod.Language = file.Language
	for _, imp := range file.Imports {
		target := imp.Target
		switch {
		case file.Language == "go":
			target = normalizeGoImport(target, goModule)
		case imp.Relative > 0:
			target = resolveRelative(mod.ID, target, imp.Relative)
		}
		if target != "" {
			mod.Imports = append(mod.Imports, target)
		}
	}
	for _, sym := range file.Symbols {
		mod.Symbols = append(mod.Symbols, sym.Name)
	}

	return mod, nil
}

// ModuleID converts a root-relative file path to a dotted module identifier:
// pkg/util/helpers.py -> pkg.util.helpers, pkg/__init__.py -> pkg.
func ModuleID(relPath string) string {
	p := filepath.ToSlash(relPath)
	p = strings.TrimSuffix(p, filepath.Ext(p))
	parts := strings.Split(p, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

// resolveRelative maps a Python relative import onto the importing module's
// package path: from ..common import x inside pkg.sub.mod -> pkg.common.
func resolveRelative(fromModule, target string, level int) string {
	parts := strings.Split(fromModule, ".")
	if level >= len(parts) {
		return target
	}
	base := strings.Join(parts[:len(parts)-level], ".")
	if target == "" {
		return base
	}
	return base + "." + target
}

// goModulePath reads the module directive from root/go.mod, if present.
func goModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "module "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// normalizeGoImport maps an in-module Go import path onto the dotted module
// namespace: example.com/demo/util -> util. Paths outside the module (stdlib,
// third-party) stay as written and resolve to nothing downstream.
func normalizeGoImport(imp, modulePath string) string {
	if modulePath == "" {
		return imp
	}
	if rest, ok := strings.CutPrefix(imp, modulePath+"/"); ok {
		return strings.ReplaceAll(rest, "/", ".")
	}
	return imp
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func mergeModules(dst, src *Module) {
	dst.Imports = append(dst.Imports, src.Imports...)
	dst.Symbols = append(dst.Symbols, src.Symbols...)
	dst.ParseFailed = dst.ParseFailed || src.ParseFailed
	// Combined hash is order-independent so parallel scan order cannot leak
	// into the graph fingerprint.
	for i := range dst.ContentHash {
		dst.ContentHash[i] ^= src.ContentHash[i]
	}
	if src.Path < dst.Path {
		dst.Path = src.Path
		dst.Language = src.Language
	}
}

func dedupSorted(values []string) []string {
	out := values[:0]
	for i, v := range values {
		if i == 0 || values[i-1] != v {
			out = append(out, v)
		}
	}
	return out
}
