package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("Load reported a file that does not exist")
	}
	if resolved != path {
		t.Fatalf("resolved path = %s, want %s", resolved, path)
	}

	defaults := Default()
	if cfg.Ingest.MaxOriginalGiB != defaults.Ingest.MaxOriginalGiB {
		t.Fatalf("max_original_gib = %d", cfg.Ingest.MaxOriginalGiB)
	}
	if cfg.Ingest.GroupingWindowMinutes != defaults.Ingest.GroupingWindowMinutes {
		t.Fatalf("grouping window = %d", cfg.Ingest.GroupingWindowMinutes)
	}
	if cfg.Export.Prefix != defaults.Export.Prefix {
		t.Fatalf("export prefix = %s", cfg.Export.Prefix)
	}
}

func TestLoadAppliesFileOverrides(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	contents := `
[paths]
store_dir = "` + filepath.Join(base, "store") + `"
export_dir = "` + filepath.Join(base, "exports") + `"
log_dir = "` + filepath.Join(base, "logs") + `"

[ingest]
actor = "unit42"
grouping_window_minutes = 15
extra_extensions = ["3GP", ".webm"]

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("Load did not find the config file")
	}
	if cfg.Ingest.Actor != "unit42" {
		t.Fatalf("actor = %s", cfg.Ingest.Actor)
	}
	if cfg.Ingest.GroupingWindowMinutes != 15 {
		t.Fatalf("grouping window = %d", cfg.Ingest.GroupingWindowMinutes)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	// Extensions normalize to lowercase dotted form.
	if len(cfg.Ingest.ExtraExtensions) != 2 || cfg.Ingest.ExtraExtensions[0] != ".3gp" || cfg.Ingest.ExtraExtensions[1] != ".webm" {
		t.Fatalf("extra extensions = %v", cfg.Ingest.ExtraExtensions)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"store equals export", func(c *Config) { c.Paths.ExportDir = c.Paths.StoreDir }, "must differ"},
		{"oversize ceiling", func(c *Config) { c.Ingest.MaxOriginalGiB = 65 }, "max_original_gib"},
		{"grouping beyond a day", func(c *Config) { c.Ingest.GroupingWindowMinutes = 24*60 + 1 }, "at most one day"},
		{"heartbeat timeout", func(c *Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval }, "heartbeat_timeout"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted a bad config")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("Load sample: exists=%v err=%v", exists, err)
	}
}

func TestMaxOriginalBytes(t *testing.T) {
	cfg := Default()
	cfg.Ingest.MaxOriginalGiB = 3
	if got := cfg.MaxOriginalBytes(); got != 3<<30 {
		t.Fatalf("MaxOriginalBytes = %d", got)
	}
}
