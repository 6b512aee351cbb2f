package testsupport

import (
	"path/filepath"
	"testing"

	"custody/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StoreDir = filepath.Join(base, "store")
	cfg.Paths.ExportDir = filepath.Join(base, "exports")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Ingest.Actor = "tester"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithGroupingWindow overrides the sequence grouping window in minutes.
func WithGroupingWindow(minutes int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.GroupingWindowMinutes = minutes
	}
}

// WithMaxOriginalGiB overrides the ingest size ceiling.
func WithMaxOriginalGiB(gib int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.MaxOriginalGiB = gib
	}
}
