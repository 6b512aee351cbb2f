package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeTools()
	c.normalizeExport()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StoreDir, err = expandPath(c.Paths.StoreDir); err != nil {
		return fmt.Errorf("paths.store_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.DeviceMonitor.Enabled {
		if c.DeviceMonitor.MountRoot, err = expandPath(c.DeviceMonitor.MountRoot); err != nil {
			return fmt.Errorf("device_monitor.mount_root: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeIngest() {
	if strings.TrimSpace(c.Ingest.Actor) == "" {
		c.Ingest.Actor = defaultIngestActor
	}
	if c.Ingest.MaxOriginalGiB <= 0 {
		c.Ingest.MaxOriginalGiB = defaultMaxOriginalGiB
	}
	if c.Ingest.GroupingWindowMinutes <= 0 {
		c.Ingest.GroupingWindowMinutes = defaultGroupingWindowMinutes
	}
	if strings.TrimSpace(c.Ingest.DevicePrefix) == "" {
		c.Ingest.DevicePrefix = defaultDevicePrefix
	}
	for i, ext := range c.Ingest.ExtraExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Ingest.ExtraExtensions[i] = ext
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if strings.TrimSpace(c.Tools.PDFToText) == "" {
		c.Tools.PDFToText = "pdftotext"
	}
	if strings.TrimSpace(c.Tools.Tesseract) == "" {
		c.Tools.Tesseract = "tesseract"
	}
	if c.Tools.TimeoutSeconds <= 0 {
		c.Tools.TimeoutSeconds = defaultToolTimeoutSeconds
	}
}

func (c *Config) normalizeExport() {
	if strings.TrimSpace(c.Export.Prefix) == "" {
		c.Export.Prefix = defaultExportPrefix
	}
	if strings.TrimSpace(c.Export.ExportedBy) == "" {
		c.Export.ExportedBy = c.Ingest.Actor
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
