package export

import "time"

// FileType classifies an entry inside the package manifest.
type FileType string

const (
	FileOriginal      FileType = "original"
	FileDerivative    FileType = "derivative"
	FileEvidenceIndex FileType = "evidence_manifest"
	FileLedgerExtract FileType = "ledger_extract"
	FileSearchIndex   FileType = "search_index"
)

// SizeTier routes a package to a delivery medium by uncompressed size.
type SizeTier string

const (
	TierSmall  SizeTier = "small"  // up to 100 MiB
	TierMedium SizeTier = "medium" // up to 1 GiB
	TierLarge  SizeTier = "large"
)

const (
	smallTierLimit  = 100 << 20
	mediumTierLimit = 1 << 30
)

// TierFor classifies a total uncompressed byte count.
func TierFor(totalBytes int64) SizeTier {
	switch {
	case totalBytes <= smallTierLimit:
		return TierSmall
	case totalBytes <= mediumTierLimit:
		return TierMedium
	default:
		return TierLarge
	}
}

// PackedFile describes one file inside the archive. EvidenceID is empty for
// package-level files such as the ledger extract and the search index.
type PackedFile struct {
	Path       string   `json:"path"`
	SHA256     string   `json:"sha256"`
	SizeBytes  int64    `json:"size_bytes"`
	Type       FileType `json:"type"`
	EvidenceID string   `json:"evidence_id,omitempty"`
}

// Manifest is the machine-readable inventory embedded in the archive. Its
// ManifestSHA256 field holds the hash of the manifest JSON serialized with
// that field empty, so the manifest attests to itself.
type Manifest struct {
	PackageName    string       `json:"package_name"`
	CaseRef        string       `json:"case_ref"`
	ExportedAt     time.Time    `json:"exported_at"`
	ExportedBy     string       `json:"exported_by"`
	EvidenceIDs    []string     `json:"evidence_ids"`
	EvidenceFound  int          `json:"evidence_found"`
	FileCount      int          `json:"file_count"`
	TotalBytes     int64        `json:"total_bytes"`
	SizeTier       SizeTier     `json:"size_tier"`
	Files          []PackedFile `json:"files"`
	ManifestSHA256 string       `json:"manifest_sha256"`
}

// Request describes one export run.
type Request struct {
	CaseRef            string
	EvidenceIDs        []string
	IncludeDerivatives bool
	IncludeIndex       bool
	// Timestamp pins the archive name and manifest creation time; zero
	// means current UTC time.
	Timestamp time.Time
}

// Result reports the outcome of an export run.
type Result struct {
	Succeeded     bool     `json:"succeeded"`
	ArchivePath   string   `json:"archive_path,omitempty"`
	ArchiveSHA256 string   `json:"archive_sha256,omitempty"`
	FileCount     int      `json:"file_count"`
	TotalBytes    int64    `json:"total_bytes"`
	SizeTier      SizeTier `json:"size_tier,omitempty"`
	CompositeHash string   `json:"composite_hash,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Error         string   `json:"error,omitempty"`
}
