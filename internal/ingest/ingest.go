package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"custody/internal/config"
	"custody/internal/evidence"
	"custody/internal/ledger"
	"custody/internal/logging"
	"custody/internal/services"
)

// Ledger actions recorded during a batch run.
const (
	ActionBatchStart      = "batch.ingest_start"
	ActionBatchComplete   = "batch.ingest_complete"
	ActionFileIngested    = "file.ingested"
	ActionFileDuplicate   = "file.ingest_duplicate"
	ActionFileError       = "file.ingest_error"
	ActionFileException   = "file.ingest_exception"
	ActionSequenceGrouped = "sequence.grouped"
)

const batchesDir = "batches"

// Ingester runs batch folder ingests against the evidence store and ledger.
type Ingester struct {
	store  *evidence.Store
	ledger *ledger.Ledger
	logger *slog.Logger

	actor           string
	devicePrefix    string
	window          time.Duration
	extraExtensions []string
}

// New constructs an Ingester from the shared configuration.
func New(store *evidence.Store, led *ledger.Ledger, cfg *config.Config, logger *slog.Logger) *Ingester {
	return &Ingester{
		store:           store,
		ledger:          led,
		logger:          logging.NewComponentLogger(logger, "ingest"),
		actor:           cfg.Ingest.Actor,
		devicePrefix:    cfg.Ingest.DevicePrefix,
		window:          time.Duration(cfg.Ingest.GroupingWindowMinutes) * time.Minute,
		extraExtensions: cfg.Ingest.ExtraExtensions,
	}
}

// RunBatch ingests every supported file under dir. Individual file failures
// are recorded in the result and never abort the batch; RunBatch itself only
// fails when the folder cannot be walked or the ledger cannot be written.
func (i *Ingester) RunBatch(ctx context.Context, dir string) (*BatchIngestResult, error) {
	batchID := uuid.NewString()
	ctx = services.WithBatchID(ctx, batchID)
	logger := logging.WithContext(ctx, i.logger)

	paths, err := discoverFiles(dir, i.extraExtensions)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "batch", "walk folder", dir, err)
	}

	result := &BatchIngestResult{
		BatchID:    batchID,
		SourceDir:  dir,
		StartedAt:  time.Now().UTC(),
		FoundCount: len(paths),
		Files:      []FileRecord{},
		Errors:     []FileRecord{},
	}

	if _, err := i.ledger.Append(ActionBatchStart, batchID, "", i.actor, map[string]any{
		"source_dir":  dir,
		"found_count": len(paths),
	}); err != nil {
		return nil, err
	}

	logger.Info("batch ingest started",
		logging.String("source_dir", dir),
		logging.Int("found", len(paths)),
	)

	for _, path := range paths {
		record := i.ingestOne(ctx, path)
		switch record.Status {
		case StatusIngested:
			result.IngestedCount++
			result.Files = append(result.Files, record)
		case StatusDuplicate:
			result.DuplicateCount++
			result.Files = append(result.Files, record)
		case StatusError:
			result.ErrorCount++
			result.Errors = append(result.Errors, record)
		}
	}

	result.Groups = buildSequenceGroups(result.Files, i.window)
	for _, group := range result.Groups {
		if _, err := i.ledger.Append(ActionSequenceGrouped, compositeID(group.EvidenceIDs), "", i.actor, map[string]any{
			"group_name":    group.Name,
			"start_time":    group.StartTime.Format(time.RFC3339),
			"end_time":      group.EndTime.Format(time.RFC3339),
			"device_labels": group.DeviceLabels,
			"member_count":  len(group.EvidenceIDs),
		}); err != nil {
			return nil, err
		}
	}

	result.CompletedAt = time.Now().UTC()
	if _, err := i.ledger.Append(ActionBatchComplete, batchID, "", i.actor, map[string]any{
		"found_count":     result.FoundCount,
		"ingested_count":  result.IngestedCount,
		"duplicate_count": result.DuplicateCount,
		"error_count":     result.ErrorCount,
		"group_count":     len(result.Groups),
	}); err != nil {
		return nil, err
	}

	manifestPath, err := i.persistBatchManifest(result)
	if err != nil {
		logger.Warn("batch manifest not persisted", logging.Error(err))
	}
	result.ManifestPath = manifestPath

	logger.Info("batch ingest complete",
		logging.Int("ingested", result.IngestedCount),
		logging.Int("duplicates", result.DuplicateCount),
		logging.Int("errors", result.ErrorCount),
		logging.Int("groups", len(result.Groups)),
	)
	return result, nil
}

// ingestOne processes a single file and always returns a record; panics from
// lower layers become StatusError records with a file.ingest_exception ledger
// entry rather than aborting the batch.
func (i *Ingester) ingestOne(ctx context.Context, path string) (record FileRecord) {
	filename := filepath.Base(path)
	parsed := ParseFilename(filename, i.devicePrefix)

	record = FileRecord{
		SourcePath:  path,
		Filename:    filename,
		Officer:     parsed.Officer,
		Timestamp:   parsed.Timestamp,
		DeviceLabel: parsed.DeviceLabel,
	}
	if parsed.HasClip {
		clip := parsed.ClipIndex
		record.ClipIndex = &clip
	}

	defer func() {
		if r := recover(); r != nil {
			record.Status = StatusError
			record.ErrorID = uuid.NewString()
			record.Error = fmt.Sprintf("unexpected failure: %v", r)
			_, _ = i.ledger.Append(ActionFileException, "", "", i.actor, map[string]any{
				"filename": filename,
				"error_id": record.ErrorID,
				"error":    record.Error,
			})
			logging.WithContext(ctx, i.logger).Error("file ingest panicked",
				logging.String("filename", filename),
				logging.String("error_id", record.ErrorID),
			)
		}
	}()

	res, err := i.store.Ingest(ctx, evidence.IngestRequest{
		SourcePath:       path,
		OriginalFilename: filename,
		IngestedBy:       i.actor,
		DeviceLabel:      parsed.DeviceLabel,
	})
	if err != nil {
		record.Status = StatusError
		record.ErrorID = uuid.NewString()
		record.Error = err.Error()
		_, _ = i.ledger.Append(ActionFileError, "", "", i.actor, map[string]any{
			"filename": filename,
			"error_id": record.ErrorID,
			"error":    record.Error,
		})
		return record
	}

	record.EvidenceID = res.EvidenceID
	record.SHA256 = res.Digest.SHA256
	record.SizeBytes = res.Digest.SizeBytes

	action := ActionFileIngested
	record.Status = StatusIngested
	if res.Duplicate {
		action = ActionFileDuplicate
		record.Status = StatusDuplicate
	}

	details := map[string]any{
		"filename":   filename,
		"size_bytes": res.Digest.SizeBytes,
	}
	if parsed.Officer != "" {
		details["officer"] = parsed.Officer
	}
	if parsed.DeviceLabel != "" {
		details["device_label"] = parsed.DeviceLabel
	}
	if parsed.Timestamp != nil {
		details["recorded_at"] = parsed.Timestamp.Format(time.RFC3339)
	}
	if parsed.HasClip {
		details["clip_index"] = parsed.ClipIndex
	}
	if _, err := i.ledger.Append(action, res.EvidenceID, res.Digest.SHA256, i.actor, details); err != nil {
		record.Status = StatusError
		record.ErrorID = uuid.NewString()
		record.Error = fmt.Sprintf("ledger append: %v", err)
		return record
	}
	// Mirror into the per-item manifest; the ledger stays authoritative.
	if err := i.store.AppendAudit(res.EvidenceID, action, i.actor, details); err != nil {
		logging.WithContext(ctx, i.logger).Warn("audit mirror not updated",
			logging.String("evidence_id", res.EvidenceID),
			logging.Error(err),
		)
	}
	return record
}

func (i *Ingester) persistBatchManifest(result *BatchIngestResult) (string, error) {
	dir := filepath.Join(i.store.Root(), batchesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create batches directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("batch_%s.json", result.BatchID))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write batch manifest: %w", err)
	}
	return path, nil
}

// compositeID joins member evidence ids so group ledger entries remain
// discoverable by substring match during export extraction.
func compositeID(ids []string) string {
	return strings.Join(ids, ",")
}
