package ingest

import "time"

// FileStatus is the per-file outcome of a batch ingest.
type FileStatus string

const (
	StatusIngested  FileStatus = "ingested"
	StatusDuplicate FileStatus = "duplicate"
	StatusError     FileStatus = "error"
)

// FileRecord captures the outcome of ingesting one discovered file.
type FileRecord struct {
	SourcePath  string     `json:"source_path"`
	Filename    string     `json:"filename"`
	Status      FileStatus `json:"status"`
	EvidenceID  string     `json:"evidence_id,omitempty"`
	SHA256      string     `json:"sha256,omitempty"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	Officer     string     `json:"officer,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	DeviceLabel string     `json:"device_label,omitempty"`
	ClipIndex   *int       `json:"clip_index,omitempty"`
	ErrorID     string     `json:"error_id,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// SequenceGroup collects ingested files recorded within one time window.
// Device labels contribute to the name only; membership is purely temporal.
type SequenceGroup struct {
	Name         string    `json:"name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DeviceLabels []string  `json:"device_labels"`
	EvidenceIDs  []string  `json:"evidence_ids"`
}

// BatchIngestResult is the aggregate outcome of one batch run, persisted as a
// JSON manifest alongside being returned to the caller.
type BatchIngestResult struct {
	BatchID        string          `json:"batch_id"`
	SourceDir      string          `json:"source_dir"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	FoundCount     int             `json:"found_count"`
	IngestedCount  int             `json:"ingested_count"`
	DuplicateCount int             `json:"duplicate_count"`
	ErrorCount     int             `json:"error_count"`
	Files          []FileRecord    `json:"files"`
	Errors         []FileRecord    `json:"errors"`
	Groups         []SequenceGroup `json:"sequence_groups"`
	ManifestPath   string          `json:"-"`
}
