package evidence

import (
	"strings"
	"time"

	"custody/internal/digest"
)

// DerivativeType enumerates the secondary artifacts the pipeline produces.
type DerivativeType string

const (
	DerivativeThumbnail       DerivativeType = "thumbnail"
	DerivativeProxy           DerivativeType = "proxy"
	DerivativeWaveform        DerivativeType = "waveform"
	DerivativeTranscript      DerivativeType = "transcript"
	DerivativeMetadataExtract DerivativeType = "metadata_extract"
	DerivativeTextExtract     DerivativeType = "text_extract"
)

var derivativeTypes = []DerivativeType{
	DerivativeThumbnail,
	DerivativeProxy,
	DerivativeWaveform,
	DerivativeTranscript,
	DerivativeMetadataExtract,
	DerivativeTextExtract,
}

// DerivativeTypes returns every known derivative type in stable order.
func DerivativeTypes() []DerivativeType {
	cp := make([]DerivativeType, len(derivativeTypes))
	copy(cp, derivativeTypes)
	return cp
}

// ParseDerivativeType converts a string into a known DerivativeType.
func ParseDerivativeType(value string) (DerivativeType, bool) {
	normalized := DerivativeType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range derivativeTypes {
		if t == normalized {
			return t, true
		}
	}
	return "", false
}

// IngestMetadata captures the immutable facts recorded when an original
// enters the store. SourcePath is transient bookkeeping and never persisted.
type IngestMetadata struct {
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	SHA256           string    `json:"sha256"`
	EvidenceID       string    `json:"evidence_id"`
	IngestedAt       time.Time `json:"ingested_at"`
	IngestedBy       string    `json:"ingested_by"`
	DeviceLabel      string    `json:"device_label,omitempty"`
	SourcePath       string    `json:"-"`
}

// DerivativeRecord describes one stored derivative, including the exact
// generation parameters so the artifact can be reproduced.
type DerivativeRecord struct {
	DerivativeType DerivativeType `json:"derivative_type"`
	Filename       string         `json:"filename"`
	SHA256         string         `json:"sha256"`
	SizeBytes      int64          `json:"size_bytes"`
	CreatedAt      time.Time      `json:"created_at"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

// AuditEntry is the manifest-local mirror of a ledger append. The ledger
// remains the authoritative audit source; manifests duplicate entries for
// export convenience.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Details   map[string]any `json:"details,omitempty"`
}

// Manifest is the per-evidence-item aggregate persisted as one JSON file per
// evidence_id. Created at ingest, appended to by normalization and audit
// operations, never deleted.
type Manifest struct {
	EvidenceID   string             `json:"evidence_id"`
	Ingest       IngestMetadata     `json:"ingest"`
	Derivatives  []DerivativeRecord `json:"derivatives"`
	AuditEntries []AuditEntry       `json:"audit_entries"`
}

// IngestRequest carries the caller-supplied facts for one ingest.
type IngestRequest struct {
	SourcePath       string
	OriginalFilename string
	IngestedBy       string
	DeviceLabel      string
}

// IngestResult reports the outcome of a single ingest operation.
type IngestResult struct {
	EvidenceID string
	Digest     digest.FileDigest
	Duplicate  bool
	StoredPath string
	Metadata   IngestMetadata
}
