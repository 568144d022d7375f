// # cmd/blastradius/app_test.go
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blastradius/internal/config"
	"blastradius/internal/impact"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestApp(t *testing.T, root string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	app, err := NewApp(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	return app
}

const authDiff = `diff --git a/auth.py b/auth.py
--- a/auth.py
+++ b/auth.py
@@ -1,2 +1,3 @@ def login
 def login(user):
-    return check(user)
+    audit(user)
+    return check(user)
`

func TestApp_EndToEnd(t *testing.T) {
	root := writeTree(t, map[string]string{
		"auth.py":    "def login(user):\n    return user\n",
		"api.py":     "import auth\n\ndef handle():\n    return auth.login(None)\n",
		"billing.py": "import api\n\ndef charge():\n    return api.handle()\n",
	})
	app := newTestApp(t, root)

	res, err := app.Analyze(context.Background(), authDiff)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.ChangedModules) != 1 || res.ChangedModules[0] != "auth" {
		t.Fatalf("changed = %v", res.ChangedModules)
	}
	if len(res.AffectedModules) != 2 {
		t.Fatalf("affected = %+v", res.AffectedModules)
	}

	api := res.AffectedModules[0]
	if api.ID != "api" || api.Depth != 1 || api.Risk != impact.RiskHigh {
		t.Errorf("first entry = %+v, want api at depth 1 HIGH", api)
	}
	billing := res.AffectedModules[1]
	if billing.ID != "billing" || billing.Depth != 2 || billing.Risk != impact.RiskMedium {
		t.Errorf("second entry = %+v, want billing at depth 2 MEDIUM", billing)
	}
}

const goUtilDiff = `diff --git a/util/util.go b/util/util.go
--- a/util/util.go
+++ b/util/util.go
@@ -3,1 +3,1 @@ func Helper
-func Helper() int { return 1 }
+func Helper() int { return 2 }
`

func TestApp_EndToEnd_GoModule(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod": "module example.com/demo\n\ngo 1.24\n",
		"util/util.go": `package util

func Helper() int { return 1 }
`,
		"api/api.go": `package api

import "example.com/demo/util"

func Handle() int { return util.Helper() }
`,
	})
	app := newTestApp(t, root)

	g, err := app.Graph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() == 0 {
		t.Fatal("Go module imports should form edges")
	}

	res, err := app.Analyze(context.Background(), goUtilDiff)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ChangedModules) != 1 || res.ChangedModules[0] != "util.util" {
		t.Fatalf("changed = %v", res.ChangedModules)
	}
	if len(res.AffectedModules) != 1 {
		t.Fatalf("affected = %+v", res.AffectedModules)
	}
	api := res.AffectedModules[0]
	if api.ID != "api.api" || api.Depth != 1 || api.Risk != impact.RiskHigh {
		t.Errorf("affected = %+v, want api.api at depth 1 HIGH", api)
	}
}

func TestApp_GraphCacheReuse(t *testing.T) {
	root := writeTree(t, map[string]string{
		"auth.py": "def login(user):\n    return user\n",
		"api.py":  "import auth\n",
	})
	app := newTestApp(t, root)

	first, err := app.Graph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := app.Graph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("unchanged tree should reuse the cached graph")
	}

	// Content change must produce a fresh graph.
	if err := os.WriteFile(filepath.Join(root, "auth.py"), []byte("def login(u):\n    return None\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := app.Graph(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if third == second {
		t.Error("changed tree should rebuild the graph")
	}
}

func TestApp_MalformedDiff(t *testing.T) {
	root := writeTree(t, map[string]string{"auth.py": "x = 1\n"})
	app := newTestApp(t, root)

	if _, err := app.Analyze(context.Background(), "not a diff at all"); err == nil {
		t.Fatal("malformed diff must fail before any scan")
	}
}

func TestFormatReport(t *testing.T) {
	res := &impact.Result{
		RunID:          "run-1",
		ChangedModules: []string{"auth"},
		AffectedModules: []impact.AffectedModule{
			{
				ID:                "api",
				Depth:             1,
				Risk:              impact.RiskHigh,
				StructuralRisk:    impact.RiskHigh,
				ContributingSeeds: []string{"auth"},
				Reasoning:         &impact.Reasoning{Reason: "direct import", PotentialIssue: "broken login flow"},
			},
		},
		UnmatchedChangedFiles: []string{"README.md"},
		Stats:                 impact.Stats{Modules: 3, Edges: 2},
	}

	out := formatReport(res)
	for _, want := range []string{
		"[HIGH] api (depth 1, via auth)",
		"reason: direct import",
		"Unmatched changed files (1)",
		"README.md",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
