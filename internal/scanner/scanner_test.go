// # internal/scanner/scanner_test.go
package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"blastradius/internal/parser"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newScanner(opts Options) *Scanner {
	return New(parser.NewParser(parser.NewGrammarLoader()), opts)
}

func TestScan_ModuleIDsAndImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"module_a.py":       "def util():\n    pass\n",
		"module_b.py":       "import module_a\n\ndef caller():\n    module_a.util()\n",
		"pkg/__init__.py":   "",
		"pkg/worker.py":     "from ..module_b import caller\n",
		"config.yaml":       "ignored: true",
		"__pycache__/x.py":  "import module_a\n",
		"module_a_test.txt": "not source",
	})

	s := newScanner(DefaultOptions())
	modules, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	ids := make([]string, 0, len(modules))
	byID := make(map[string]Module)
	for _, m := range modules {
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}

	require.Equal(t, []string{"module_a", "module_b", "pkg", "pkg.worker"}, ids)
	require.Equal(t, []string{"module_a"}, byID["module_b"].Imports)
	// pkg.worker's "from ..module_b" climbs out of pkg, landing on module_b.
	require.Equal(t, []string{"module_b"}, byID["pkg.worker"].Imports)
	require.Contains(t, byID["module_a"].Symbols, "util")
}

func TestScan_GoModuleImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod": "module example.com/demo\n\ngo 1.24\n",
		"util/util.go": `package util

func Helper() int { return 1 }
`,
		"api/api.go": `package api

import (
	"fmt"

	"example.com/demo/util"
)

func Handle() { fmt.Println(util.Helper()) }
`,
	})

	s := newScanner(DefaultOptions())
	modules, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	byID := make(map[string]Module)
	for _, m := range modules {
		byID[m.ID] = m
	}

	// In-module import paths normalize onto the dotted namespace; stdlib
	// paths stay as written (external downstream).
	require.Equal(t, []string{"fmt", "util"}, byID["api.api"].Imports)
	require.Equal(t, "go", byID["util.util"].Language)
}

func TestScan_UnreadableFileIsolated(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.py": "import os\n",
	})
	// A dangling symlink fails the read, which must fail that file only.
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.py"), filepath.Join(root, "broken.py")))

	s := newScanner(DefaultOptions())
	modules, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	byID := make(map[string]Module)
	for _, m := range modules {
		byID[m.ID] = m
	}

	require.Contains(t, byID, "good")
	require.True(t, byID["broken"].ParseFailed)
	require.Empty(t, byID["broken"].Imports)
}

func TestScan_Deterministic(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files[name+".py"] = "import z\n"
	}
	files["z.py"] = ""
	root := writeTree(t, files)

	s := newScanner(DefaultOptions())

	first, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	for range 5 {
		again, err := s.Scan(context.Background(), root)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestScan_RootErrors(t *testing.T) {
	s := newScanner(DefaultOptions())

	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	require.ErrorIs(t, err, ErrRootNotFound)

	empty := writeTree(t, map[string]string{"README.md": "no code here"})
	_, err = s.Scan(context.Background(), empty)
	require.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestScan_IgnorePatternsAndSize(t *testing.T) {
	big := make([]byte, 2048)
	for i := range big {
		big[i] = ' '
	}

	root := writeTree(t, map[string]string{
		"keep.py":         "import skipped\n",
		"skipped.py":      "",
		"gen_schema.py":   "import keep\n",
		"build/out.py":    "import keep\n",
		"huge.py":         string(big),
		"sub/nested.py":   "import keep\n",
		"sub/conftest.py": "import keep\n",
	})

	opts := DefaultOptions()
	opts.IgnoreDirs = append(opts.IgnoreDirs, "build")
	opts.IgnoreFiles = []string{"gen_*", "conftest.py"}
	opts.MaxFileSize = 1024

	s := newScanner(opts)
	modules, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []string{"keep", "skipped", "sub.nested"}, ids)
}

func TestScan_InvalidIgnorePattern(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": ""})

	opts := DefaultOptions()
	opts.IgnoreDirs = []string{"[unterminated"}

	_, err := newScanner(opts).Scan(context.Background(), root)
	require.Error(t, err)
	var scanErr *ScanError
	require.True(t, errors.As(err, &scanErr))
}

func TestModuleID(t *testing.T) {
	cases := map[string]string{
		"module_a.py":          "module_a",
		"pkg/util/helpers.py":  "pkg.util.helpers",
		"pkg/__init__.py":      "pkg",
		"cmd/tool/main.go":     "cmd.tool.main",
		"deep/a/b/__init__.py": "deep.a.b",
	}
	for in, want := range cases {
		if got := ModuleID(in); got != want {
			t.Errorf("ModuleID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	cases := []struct {
		from   string
		target string
		level  int
		want   string
	}{
		{"pkg.sub.mod", "common", 1, "pkg.sub.common"},
		{"pkg.sub.mod", "common", 2, "pkg.common"},
		{"pkg.sub.mod", "", 1, "pkg.sub"},
		{"mod", "other", 5, "other"},
	}
	for _, c := range cases {
		if got := resolveRelative(c.from, c.target, c.level); got != c.want {
			t.Errorf("resolveRelative(%q, %q, %d) = %q, want %q", c.from, c.target, c.level, got, c.want)
		}
	}
}
