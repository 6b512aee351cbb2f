package config

const (
	defaultStoreDir              = "~/.local/share/custody/evidence_store"
	defaultExportDir             = "~/.local/share/custody/exports"
	defaultLogDir                = "~/.local/share/custody/logs"
	defaultIngestActor           = "system"
	defaultMaxOriginalGiB        = 3
	defaultGroupingWindowMinutes = 30
	defaultDevicePrefix          = "BWL"
	defaultToolTimeoutSeconds    = 300
	defaultProxyHeight           = 720
	defaultExportPrefix          = "BWC_EXPORT"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultQueuePollInterval     = 5
	defaultHeartbeatInterval     = 15
	defaultHeartbeatTimeout      = 120
	defaultMountRoot             = "/media/evidence"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StoreDir:  defaultStoreDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
		},
		Ingest: Ingest{
			Actor:                 defaultIngestActor,
			MaxOriginalGiB:        defaultMaxOriginalGiB,
			GroupingWindowMinutes: defaultGroupingWindowMinutes,
			DevicePrefix:          defaultDevicePrefix,
		},
		Tools: Tools{
			FFmpeg:         "ffmpeg",
			FFprobe:        "ffprobe",
			PDFToText:      "pdftotext",
			Tesseract:      "tesseract",
			TimeoutSeconds: defaultToolTimeoutSeconds,
		},
		Normalize: Normalize{
			ProxyEnabled: false,
			ProxyHeight:  defaultProxyHeight,
		},
		Export: Export{
			Prefix:     defaultExportPrefix,
			ExportedBy: defaultIngestActor,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		DeviceMonitor: DeviceMonitor{
			Enabled:   false,
			MountRoot: defaultMountRoot,
		},
	}
}
