// # internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blastradius.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
root = "./service"

[scan]
ignore_dirs = [".git", "vendor"]
extensions = [".py"]
max_file_size = 1048576

[analysis]
max_depth = 5

[enrichment]
model = "gpt-4o"
timeout = "30s"
concurrency = 8
rate = 1.5
depth_cutoff = 3

[watch]
debounce = "1s"

[metrics]
addr = ":9102"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Root != "./service" {
		t.Errorf("root = %q", cfg.Root)
	}
	if len(cfg.Scan.IgnoreDirs) != 2 || cfg.Scan.IgnoreDirs[1] != "vendor" {
		t.Errorf("ignore dirs = %v", cfg.Scan.IgnoreDirs)
	}
	if cfg.Analysis.MaxDepth != 5 {
		t.Errorf("max depth = %d", cfg.Analysis.MaxDepth)
	}
	if cfg.Enrichment.Model != "gpt-4o" || cfg.Enrichment.Timeout != 30*time.Second {
		t.Errorf("enrichment = %+v", cfg.Enrichment)
	}
	if cfg.Enrichment.Rate != 1.5 || cfg.Enrichment.DepthCutoff != 3 {
		t.Errorf("enrichment = %+v", cfg.Enrichment)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Root != "." {
		t.Errorf("root = %q", cfg.Root)
	}
	if cfg.Enrichment.Enabled {
		t.Error("enrichment must be off by default")
	}
	if cfg.Enrichment.DepthCutoff != 2 {
		t.Errorf("depth cutoff = %d", cfg.Enrichment.DepthCutoff)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `root = "./svc"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Enrichment.Concurrency != 4 {
		t.Errorf("concurrency = %d, want default 4", cfg.Enrichment.Concurrency)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, want default 500ms", cfg.Watch.Debounce)
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("BLASTRADIUS_API_KEY", "sk-test-key")

	path := writeConfig(t, `
[enrichment]
enabled = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Enrichment.APIKey != "sk-test-key" {
		t.Errorf("api key = %q", cfg.Enrichment.APIKey)
	}
}

func TestLoad_EnabledWithoutKey(t *testing.T) {
	t.Setenv("BLASTRADIUS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	path := writeConfig(t, `
[enrichment]
enabled = true
`)
	if _, err := Load(path); err == nil {
		t.Error("enabled enrichment without an API key should be rejected")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("expected error for nonexistent file")
	}

	bad := writeConfig(t, "bad = toml = format")
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed TOML")
	}

	negative := writeConfig(t, `
[analysis]
max_depth = -1
`)
	if _, err := Load(negative); err == nil {
		t.Error("expected error for negative max depth")
	}
}
