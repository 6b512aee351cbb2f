package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StoreDir  string `toml:"store_dir"`
	ExportDir string `toml:"export_dir"`
	LogDir    string `toml:"log_dir"`
}

// Ingest contains batch folder ingest settings.
type Ingest struct {
	Actor                 string   `toml:"actor"`
	MaxOriginalGiB        int      `toml:"max_original_gib"`
	GroupingWindowMinutes int      `toml:"grouping_window_minutes"`
	ExtraExtensions       []string `toml:"extra_extensions"`
	DevicePrefix          string   `toml:"device_prefix"`
}

// Tools contains external tool binaries and invocation limits.
type Tools struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	PDFToText      string `toml:"pdftotext"`
	Tesseract      string `toml:"tesseract"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Normalize contains derivative generation settings.
type Normalize struct {
	ProxyEnabled bool `toml:"proxy_enabled"`
	ProxyHeight  int  `toml:"proxy_height"`
}

// Export contains export packaging settings.
type Export struct {
	Prefix     string `toml:"prefix"`
	ExportedBy string `toml:"exported_by"`
}

// Workflow contains worker timing and intervals.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// DeviceMonitor contains configuration for udev dock detection.
type DeviceMonitor struct {
	Enabled   bool   `toml:"enabled"`
	MountRoot string `toml:"mount_root"`
}

// Config encapsulates all configuration values for the pipeline.
//
// Configuration sections by subsystem:
//   - Paths: evidence store root, export output, and log directories
//   - Ingest: batch ingest actor, size ceiling, grouping window
//   - Tools: external binaries (ffmpeg/ffprobe/pdftotext/tesseract)
//   - Normalize: derivative generation toggles
//   - Export: package naming
//   - Workflow: worker polling intervals and heartbeats
//   - Logging: log format and level
//   - DeviceMonitor: evidence drive dock detection
type Config struct {
	Paths         Paths         `toml:"paths"`
	Ingest        Ingest        `toml:"ingest"`
	Tools         Tools         `toml:"tools"`
	Normalize     Normalize     `toml:"normalize"`
	Export        Export        `toml:"export"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	DeviceMonitor DeviceMonitor `toml:"device_monitor"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/custody/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("custody.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StoreDir, c.Paths.ExportDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the integrity ledger location inside the store root.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StoreDir, "integrity_ledger.jsonl")
}

// SearchIndexPath returns the external indexer's snapshot location inside
// the store root. The pipeline only ever reads this file.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.Paths.StoreDir, "search_index.json")
}

// JobDatabasePath returns the processing queue database location.
func (c *Config) JobDatabasePath() string {
	return filepath.Join(c.Paths.LogDir, "jobs.db")
}

// MaxOriginalBytes converts the configured GiB ceiling to bytes.
func (c *Config) MaxOriginalBytes() int64 {
	return int64(c.Ingest.MaxOriginalGiB) << 30
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
