package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"custody/internal/jobs"
	"custody/internal/logging"
	"custody/internal/services"
	"custody/internal/stage"
)

// JobPayload is the queued form of an export request.
type JobPayload struct {
	CaseRef            string   `json:"case_ref"`
	EvidenceIDs        []string `json:"evidence_ids"`
	IncludeDerivatives bool     `json:"include_derivatives"`
	IncludeIndex       bool     `json:"include_index"`
}

// EncodeJobPayload serializes a payload for the job queue.
func EncodeJobPayload(payload JobPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode export payload: %w", err)
	}
	return string(raw), nil
}

// Handler adapts the Packager to the workflow stage contract.
type Handler struct {
	packager *Packager
	logger   *slog.Logger
}

// NewHandler constructs the export stage handler.
func NewHandler(packager *Packager, logger *slog.Logger) *Handler {
	return &Handler{
		packager: packager,
		logger:   logging.NewComponentLogger(logger, "export-stage"),
	}
}

// Prepare validates the queued payload.
func (h *Handler) Prepare(_ context.Context, job *jobs.Job) error {
	payload, err := decodePayload(job)
	if err != nil {
		return err
	}
	if payload.CaseRef == "" || len(payload.EvidenceIDs) == 0 {
		return services.Wrap(services.ErrValidation, "export", "prepare", "payload needs case_ref and evidence_ids", nil)
	}
	job.SetProgress("export", "packaging "+payload.CaseRef, 0)
	return nil
}

// Execute builds the sealed archive for the queued request.
func (h *Handler) Execute(ctx context.Context, job *jobs.Job) error {
	payload, err := decodePayload(job)
	if err != nil {
		return err
	}

	result, err := h.packager.Export(ctx, Request{
		CaseRef:            payload.CaseRef,
		EvidenceIDs:        payload.EvidenceIDs,
		IncludeDerivatives: payload.IncludeDerivatives,
		IncludeIndex:       payload.IncludeIndex,
	})
	if err != nil {
		return err
	}

	job.SetProgress("export",
		fmt.Sprintf("sealed %s (%d files, %s tier)", result.ArchivePath, result.FileCount, result.SizeTier), 100)
	return nil
}

// HealthCheck reports whether the export directory is writable.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	const name = "export"
	info, err := os.Stat(h.packager.exportDir)
	if err != nil || !info.IsDir() {
		return stage.Unhealthy(name, fmt.Sprintf("export directory %q unavailable", h.packager.exportDir))
	}
	return stage.Healthy(name)
}

func decodePayload(job *jobs.Job) (JobPayload, error) {
	var payload JobPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return JobPayload{}, services.Wrap(services.ErrValidation, "export", "decode payload", err.Error(), err)
	}
	return payload, nil
}
