// # internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables consulted for the enrichment API key, in order. The
// key never lives in the config file.
var apiKeyEnvVars = []string{"BLASTRADIUS_API_KEY", "OPENAI_API_KEY"}

type Config struct {
	Root       string     `toml:"root"`
	Scan       Scan       `toml:"scan"`
	Analysis   Analysis   `toml:"analysis"`
	Enrichment Enrichment `toml:"enrichment"`
	Watch      Watch      `toml:"watch"`
	Metrics    Metrics    `toml:"metrics"`
}

type Scan struct {
	IgnoreDirs  []string `toml:"ignore_dirs"`
	IgnoreFiles []string `toml:"ignore_files"`
	Extensions  []string `toml:"extensions"`
	MaxFileSize int64    `toml:"max_file_size"`
}

type Analysis struct {
	// MaxDepth bounds the reverse traversal; 0 exhausts the graph.
	MaxDepth int `toml:"max_depth"`
}

type Enrichment struct {
	Enabled     bool          `toml:"enabled"`
	Model       string        `toml:"model"`
	BaseURL     string        `toml:"base_url"`
	Timeout     time.Duration `toml:"timeout"`
	Concurrency int           `toml:"concurrency"`
	// Rate is requests per second against the completion endpoint.
	Rate        float64 `toml:"rate"`
	Burst       int     `toml:"burst"`
	DepthCutoff int     `toml:"depth_cutoff"`

	// APIKey comes from the environment, never from the file.
	APIKey string `toml:"-"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Metrics struct {
	Addr string `toml:"addr"`
}

func Default() *Config {
	return &Config{
		Root: ".",
		Analysis: Analysis{
			MaxDepth: 0,
		},
		Enrichment: Enrichment{
			Model:       "gpt-4o-mini",
			Timeout:     10 * time.Second,
			Concurrency: 4,
			Rate:        2,
			Burst:       2,
			DepthCutoff: 2,
		},
		Watch: Watch{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Load reads a TOML config file and fills in defaults. An empty path returns
// the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	for _, env := range apiKeyEnvVars {
		if v := os.Getenv(env); v != "" {
			cfg.Enrichment.APIKey = v
			break
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Root == "" {
		return errors.New("config: root must not be empty")
	}
	if c.Analysis.MaxDepth < 0 {
		return errors.New("config: analysis.max_depth must not be negative")
	}
	if c.Enrichment.Concurrency < 1 {
		return errors.New("config: enrichment.concurrency must be at least 1")
	}
	if c.Enrichment.Rate <= 0 {
		return errors.New("config: enrichment.rate must be positive")
	}
	if c.Enrichment.Enabled && c.Enrichment.APIKey == "" {
		return fmt.Errorf("config: enrichment enabled but no API key in %v", apiKeyEnvVars)
	}
	return nil
}
