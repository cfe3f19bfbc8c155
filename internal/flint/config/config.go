// Package config resolves the harness run configuration. Environment state
// is read exactly once at startup into an immutable Config; nothing re-reads
// the environment mid-run.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"flint.dev/internal/flint/filter"
)

type Config struct {
	// Selection.
	Test    string   `env:"FLINT_TEST"`
	Pattern string   `env:"FLINT_PATTERN"`
	Tags    []string `env:"FLINT_TAGS" envSeparator:","`

	// Paths.
	TestDir   string `env:"FLINT_TEST_DIR" envDefault:"./test"`
	IndexPath string `env:"FLINT_INDEX" envDefault:".cache/index_new.json"`

	DefaultTag string `env:"FLINT_DEFAULT_TAG" envDefault:"default"`
	Parallel   int    `env:"FLINT_PARALLEL" envDefault:"1"`

	// Optional artifacts.
	HistoryDB string `env:"FLINT_HISTORY_DB"`
	RunLog    string `env:"FLINT_RUN_LOG"`
}

// Load reads `.env` (best-effort, a missing file is fine) and then the
// environment. The returned config is validated; validation failures are
// fatal to the caller since no test can run under a broken policy.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	info, err := os.Stat(c.TestDir)
	if err != nil {
		return fmt.Errorf("spec directory %s: %w", c.TestDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("spec directory %s: not a directory", c.TestDir)
	}
	if err := c.Filter().Validate(); err != nil {
		return err
	}
	if c.Parallel < 1 {
		return fmt.Errorf("FLINT_PARALLEL must be >= 1, got %d", c.Parallel)
	}
	return nil
}

// Filter returns the selection policy this config describes.
func (c *Config) Filter() filter.Filter {
	return filter.Filter{Exact: c.Test, Pattern: c.Pattern, Tags: c.Tags}
}
