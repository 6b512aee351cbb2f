package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"custody/internal/config"
	"custody/internal/evidence"
	"custody/internal/ledger"
	"custody/internal/logging"
	"custody/internal/media"
	"custody/internal/services"
)

// ActionNormalized is the ledger action recorded per stored derivative.
const ActionNormalized = "file.normalized"

// Normalizer derives secondary artifacts from stored originals.
type Normalizer struct {
	store  *evidence.Store
	ledger *ledger.Ledger
	tools  *media.Toolset
	logger *slog.Logger

	actor        string
	proxyEnabled bool
	proxyHeight  int
}

// New constructs a Normalizer from the shared configuration.
func New(store *evidence.Store, led *ledger.Ledger, tools *media.Toolset, cfg *config.Config, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		store:        store,
		ledger:       led,
		tools:        tools,
		logger:       logging.NewComponentLogger(logger, "normalize"),
		actor:        cfg.Ingest.Actor,
		proxyEnabled: cfg.Normalize.ProxyEnabled,
		proxyHeight:  cfg.Normalize.ProxyHeight,
	}
}

// Run derives every applicable artifact for one evidence item. Failures of
// individual derivatives are recorded in the result; Run only returns an
// error when the item itself cannot be resolved.
func (n *Normalizer) Run(ctx context.Context, evidenceID string) (*NormalizationResult, error) {
	ctx = services.WithEvidenceID(ctx, evidenceID)
	logger := logging.WithContext(ctx, n.logger)

	manifest, err := n.store.LoadManifest(evidenceID)
	if err != nil {
		return nil, err
	}
	originalPath, err := n.store.OriginalPath(manifest.Ingest.SHA256)
	if err != nil {
		return nil, err
	}

	result := &NormalizationResult{
		EvidenceID:  evidenceID,
		SHA256:      manifest.Ingest.SHA256,
		Class:       Classify(manifest.Ingest.MimeType),
		Derivatives: []DerivativeResult{},
	}

	workDir, err := os.MkdirTemp("", "custody-normalize-")
	if err != nil {
		result.Error = fmt.Sprintf("create work directory: %v", err)
		result.settle()
		return result, nil
	}
	defer os.RemoveAll(workDir)

	logger.Info("normalizing",
		logging.String("class", string(result.Class)),
		logging.String("mime_type", manifest.Ingest.MimeType),
	)

	switch result.Class {
	case ClassVideo:
		probe := n.probeMetadata(ctx, result, originalPath, workDir)
		n.thumbnail(ctx, result, originalPath, workDir, probe)
		// Without a probe we cannot tell whether audio exists, so attempt
		// the waveform and let the tool decide.
		if probe == nil || probe.HasAudio() {
			n.waveform(ctx, result, originalPath, workDir)
		} else {
			logger.Info("no audio stream, skipping waveform")
		}
		if n.proxyEnabled {
			n.proxy(ctx, result, originalPath, workDir)
		}
	case ClassAudio:
		n.probeMetadata(ctx, result, originalPath, workDir)
		n.waveform(ctx, result, originalPath, workDir)
	case ClassImage:
		n.textExtract(ctx, result, workDir, "tesseract", func() (string, error) {
			return n.tools.OCRText(ctx, originalPath)
		})
	case ClassPDF:
		n.textExtract(ctx, result, workDir, "pdftotext", func() (string, error) {
			return n.tools.PDFText(ctx, originalPath)
		})
	case ClassDocx:
		n.textExtract(ctx, result, workDir, "docx", func() (string, error) {
			return media.DocxText(originalPath)
		})
	case ClassText:
		n.textExtract(ctx, result, workDir, "passthrough", func() (string, error) {
			return media.PlainText(originalPath)
		})
	case ClassUnknown:
		logger.Info("unknown media class, nothing to derive")
	}

	result.settle()
	return result, nil
}

// probeMetadata runs ffprobe and stores the raw JSON as a metadata_extract
// derivative. The probe result is reused for thumbnail placement.
func (n *Normalizer) probeMetadata(ctx context.Context, result *NormalizationResult, originalPath, workDir string) *media.ProbeResult {
	started := time.Now()
	probe, err := n.tools.Probe(ctx, originalPath)
	if err != nil {
		result.Derivatives = append(result.Derivatives, n.failed(ctx, evidence.DerivativeMetadataExtract, started, err))
		return nil
	}

	metadataPath := filepath.Join(workDir, "metadata.json")
	if err := os.WriteFile(metadataPath, probe.RawJSON(), 0o644); err != nil {
		result.Derivatives = append(result.Derivatives, n.failed(ctx, evidence.DerivativeMetadataExtract, started, err))
		return &probe
	}

	params := map[string]any{
		"tool":             "ffprobe",
		"duration_seconds": probe.DurationSeconds(),
		"format_name":      probe.Format.FormatName,
	}
	result.Derivatives = append(result.Derivatives,
		n.storeDerivative(ctx, result, evidence.DerivativeMetadataExtract, metadataPath, "metadata.json", params, started))
	return &probe
}

func (n *Normalizer) thumbnail(ctx context.Context, result *NormalizationResult, originalPath, workDir string, probe *media.ProbeResult) {
	started := time.Now()
	duration := 0.0
	if probe != nil {
		duration = probe.DurationSeconds()
	}
	offset := media.ThumbnailOffsetSeconds(duration)

	thumbPath := filepath.Join(workDir, "thumbnail.jpg")
	if err := n.tools.Thumbnail(ctx, originalPath, thumbPath, offset); err != nil {
		result.Derivatives = append(result.Derivatives, n.failed(ctx, evidence.DerivativeThumbnail, started, err))
		return
	}

	params := map[string]any{
		"tool":           "ffmpeg",
		"offset_seconds": offset,
		"quality":        2,
	}
	result.Derivatives = append(result.Derivatives,
		n.storeDerivative(ctx, result, evidence.DerivativeThumbnail, thumbPath, "thumbnail.jpg", params, started))
}

func (n *Normalizer) waveform(ctx context.Context, result *NormalizationResult, originalPath, workDir string) {
	started := time.Now()
	wavePath := filepath.Join(workDir, "waveform.png")
	if err := n.tools.Waveform(ctx, originalPath, wavePath); err != nil {
		result.Derivatives = append(result.Derivatives, n.failed(ctx, evidence.DerivativeWaveform, started, err))
		return
	}

	params := map[string]any{
		"tool":   "ffmpeg",
		"width":  media.WaveformWidth,
		"height": media.WaveformHeight,
		"color":  media.WaveformColor,
	}
	result.Derivatives = append(result.Derivatives,
		n.storeDerivative(ctx, result, evidence.DerivativeWaveform, wavePath, "waveform.png", params, started))
}

func (n *Normalizer) proxy(ctx context.Context, result *NormalizationResult, originalPath, workDir string) {
	started := time.Now()
	proxyPath := filepath.Join(workDir, "proxy.mp4")
	if err := n.tools.Proxy(ctx, originalPath, proxyPath, n.proxyHeight); err != nil {
		result.Derivatives = append(result.Derivatives, n.failed(ctx, evidence.DerivativeProxy, started, err))
		return
	}

	params := map[string]any{
		"tool":   "ffmpeg",
		"height": n.proxyHeight,
		"codec":  "libx264",
		"preset": "veryfast",
		"crf":    28,
	}
	result.Derivatives = append(result.Derivatives,
		n.storeDerivative(ctx, result, evidence.DerivativeProxy, proxyPath, "proxy.mp4", params, started))
}

func (n *Normalizer) textExtract(ctx context.Context, result *NormalizationResult, workDir, tool string, extract func() (string, error)) {
	started := time.Now()
	text, err := extract()
	if err != nil {
		result.Derivatives = append(result.Derivatives, n.failed(ctx, evidence.DerivativeTextExtract, started, err))
		return
	}

	textPath := filepath.Join(workDir, "text.txt")
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		result.Derivatives = append(result.Derivatives, n.failed(ctx, evidence.DerivativeTextExtract, started, err))
		return
	}

	stats := media.Stats(text)
	params := map[string]any{
		"tool":       tool,
		"words":      stats.Words,
		"characters": stats.Characters,
		"pages":      stats.Pages,
	}
	result.Derivatives = append(result.Derivatives,
		n.storeDerivative(ctx, result, evidence.DerivativeTextExtract, textPath, "text.txt", params, started))
}

// storeDerivative moves a generated artifact into the store, updates the
// manifest, and records the ledger entry with the generation parameters.
func (n *Normalizer) storeDerivative(ctx context.Context, result *NormalizationResult, dtype evidence.DerivativeType, sourcePath, filename string, params map[string]any, started time.Time) DerivativeResult {
	record, err := n.store.StoreDerivative(ctx, result.SHA256, dtype, sourcePath, filename, params)
	if err != nil {
		return n.failed(ctx, dtype, started, err)
	}
	if err := n.store.AddDerivative(result.EvidenceID, record); err != nil {
		return n.failed(ctx, dtype, started, err)
	}

	details := map[string]any{
		"derivative_type": string(dtype),
		"filename":        record.Filename,
		"derivative_sha":  record.SHA256,
		"size_bytes":      record.SizeBytes,
		"parameters":      params,
	}
	if _, err := n.ledger.Append(ActionNormalized, result.EvidenceID, result.SHA256, n.actor, details); err != nil {
		return n.failed(ctx, dtype, started, err)
	}
	// Mirror into the per-item manifest; the ledger stays authoritative.
	if err := n.store.AppendAudit(result.EvidenceID, ActionNormalized, n.actor, details); err != nil {
		logging.WithContext(ctx, n.logger).Warn("audit mirror not updated",
			logging.String("evidence_id", result.EvidenceID),
			logging.Error(err),
		)
	}

	return DerivativeResult{
		Type:      dtype,
		Succeeded: true,
		Filename:  record.Filename,
		SHA256:    record.SHA256,
		SizeBytes: record.SizeBytes,
		Elapsed:   time.Since(started),
	}
}

func (n *Normalizer) failed(ctx context.Context, dtype evidence.DerivativeType, started time.Time, err error) DerivativeResult {
	logging.WithContext(ctx, n.logger).Warn("derivative failed",
		logging.String("derivative_type", string(dtype)),
		logging.Error(err),
	)
	return DerivativeResult{
		Type:    dtype,
		Elapsed: time.Since(started),
		Error:   err.Error(),
	}
}
