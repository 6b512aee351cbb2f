package normalize

import (
	"context"
	"fmt"
	"log/slog"

	"custody/internal/config"
	"custody/internal/deps"
	"custody/internal/evidence"
	"custody/internal/jobs"
	"custody/internal/logging"
	"custody/internal/services"
	"custody/internal/stage"
)

// Handler adapts the Normalizer to the workflow stage contract.
type Handler struct {
	normalizer *Normalizer
	store      *evidence.Store
	cfg        *config.Config
	logger     *slog.Logger
}

// NewHandler constructs the normalize stage handler.
func NewHandler(normalizer *Normalizer, store *evidence.Store, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		normalizer: normalizer,
		store:      store,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "normalize-stage"),
	}
}

// Prepare confirms the evidence item exists before work starts.
func (h *Handler) Prepare(_ context.Context, job *jobs.Job) error {
	if job.EvidenceID == "" {
		return services.Wrap(services.ErrValidation, "normalize", "prepare", "job has no evidence id", nil)
	}
	if _, err := h.store.LoadManifest(job.EvidenceID); err != nil {
		return err
	}
	job.SetProgress("normalize", "preparing derivatives", 0)
	return nil
}

// Execute derives every applicable artifact for the job's evidence item.
func (h *Handler) Execute(ctx context.Context, job *jobs.Job) error {
	result, err := h.normalizer.Run(ctx, job.EvidenceID)
	if err != nil {
		return err
	}

	succeeded := 0
	for _, d := range result.Derivatives {
		if d.Succeeded {
			succeeded++
		}
	}
	if !result.Succeeded {
		detail := result.Error
		if detail == "" {
			detail = fmt.Sprintf("all %d derivatives failed", len(result.Derivatives))
		}
		return services.Wrap(services.ErrExternalTool, "normalize", "derive", detail, nil)
	}

	job.SetProgress("normalize",
		fmt.Sprintf("%d/%d derivatives stored (%s)", succeeded, len(result.Derivatives), result.Class), 100)
	return nil
}

// HealthCheck reports whether the media tools this stage needs are present.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	const name = "normalize"
	for _, binary := range []string{h.cfg.Tools.FFprobe, h.cfg.Tools.FFmpeg} {
		if !deps.Available(binary) {
			return stage.Unhealthy(name, fmt.Sprintf("binary %q not found", binary))
		}
	}
	return stage.Healthy(name)
}
