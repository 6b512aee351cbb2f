package normalize

import (
	"time"

	"custody/internal/evidence"
)

// DerivativeResult records the outcome of one derivative attempt.
type DerivativeResult struct {
	Type      evidence.DerivativeType `json:"type"`
	Succeeded bool                    `json:"succeeded"`
	Filename  string                  `json:"filename,omitempty"`
	SHA256    string                  `json:"sha256,omitempty"`
	SizeBytes int64                   `json:"size_bytes,omitempty"`
	Elapsed   time.Duration           `json:"elapsed_ns"`
	Error     string                  `json:"error,omitempty"`
}

// NormalizationResult aggregates every derivative attempt for one item.
// Succeeded is true when at least one derivative succeeded or none were
// attempted; only a dispatch-level failure marks the whole run failed.
type NormalizationResult struct {
	EvidenceID  string             `json:"evidence_id"`
	SHA256      string             `json:"sha256"`
	Class       MediaClass         `json:"class"`
	Derivatives []DerivativeResult `json:"derivatives"`
	Succeeded   bool               `json:"succeeded"`
	Error       string             `json:"error,omitempty"`
}

func (r *NormalizationResult) settle() {
	if r.Error != "" {
		r.Succeeded = false
		return
	}
	if len(r.Derivatives) == 0 {
		r.Succeeded = true
		return
	}
	for _, d := range r.Derivatives {
		if d.Succeeded {
			r.Succeeded = true
			return
		}
	}
	r.Succeeded = false
}
