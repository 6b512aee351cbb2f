package export

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"custody/internal/config"
	"custody/internal/digest"
	"custody/internal/evidence"
	"custody/internal/ledger"
	"custody/internal/logging"
	"custody/internal/services"
)

// ActionExportPackage is the single ledger action recorded per sealed export.
const ActionExportPackage = "EXPORT_PACKAGE"

const (
	manifestArchivePath = "manifest.json"
	reportArchivePath   = "INTEGRITY_REPORT.md"
	extractArchivePath  = "ledger_extract.jsonl"
	indexArchivePath    = "search_index.json"
)

// Packager assembles sealed export archives from already-stored material.
type Packager struct {
	store      *evidence.Store
	ledger     *ledger.Ledger
	ledgerPath string
	indexPath  string
	exportDir  string
	prefix     string
	exportedBy string
	logger     *slog.Logger
}

// New constructs a Packager from the shared configuration.
func New(store *evidence.Store, led *ledger.Ledger, cfg *config.Config, logger *slog.Logger) *Packager {
	return &Packager{
		store:      store,
		ledger:     led,
		ledgerPath: cfg.LedgerPath(),
		indexPath:  cfg.SearchIndexPath(),
		exportDir:  cfg.Paths.ExportDir,
		prefix:     cfg.Export.Prefix,
		exportedBy: cfg.Export.ExportedBy,
		logger:     logging.NewComponentLogger(logger, "export"),
	}
}

// ArchiveName returns the deterministic archive filename for a case and
// timestamp.
func (p *Packager) ArchiveName(caseRef string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s.zip", p.prefix, sanitizeCaseRef(caseRef), ts.UTC().Format("20060102_150405"))
}

// Export builds the sealed archive for req. Missing evidence items produce
// warnings, not failures; any packaging error deletes the partial archive so
// no broken package is ever left behind.
func (p *Packager) Export(ctx context.Context, req Request) (*Result, error) {
	logger := logging.WithContext(ctx, p.logger)

	if strings.TrimSpace(req.CaseRef) == "" {
		return nil, services.Wrap(services.ErrValidation, "export", "check request", "case reference is required", nil)
	}
	if len(req.EvidenceIDs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "check request", "at least one evidence id is required", nil)
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	ts = ts.UTC()

	if err := os.MkdirAll(p.exportDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "create export directory", p.exportDir, err)
	}
	archivePath := filepath.Join(p.exportDir, p.ArchiveName(req.CaseRef, ts))

	result := &Result{}
	err := p.build(ctx, req, ts, archivePath, result)
	if err != nil {
		_ = os.Remove(archivePath)
		result.Succeeded = false
		result.Error = err.Error()
		result.ArchivePath = ""
		result.ArchiveSHA256 = ""
		logger.Error("export failed, partial archive removed",
			logging.String("case_ref", req.CaseRef),
			logging.Error(err),
		)
		return result, err
	}

	logger.Info("export sealed",
		logging.String("case_ref", req.CaseRef),
		logging.String("archive", filepath.Base(archivePath)),
		logging.Int("files", result.FileCount),
		logging.Int64("total_bytes", result.TotalBytes),
		logging.String("tier", string(result.SizeTier)),
	)
	return result, nil
}

func (p *Packager) build(ctx context.Context, req Request, ts time.Time, archivePath string, result *Result) error {
	archive, err := os.Create(archivePath)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "create archive", archivePath, err)
	}
	closed := false
	defer func() {
		if !closed {
			_ = archive.Close()
		}
	}()

	zw := zip.NewWriter(archive)
	var packed []PackedFile

	found := 0
	for _, evidenceID := range req.EvidenceIDs {
		manifest, err := p.store.LoadManifest(evidenceID)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("evidence %s: manifest not found", evidenceID))
			continue
		}
		found++

		originalPath, err := p.store.OriginalPath(manifest.Ingest.SHA256)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("evidence %s: original %s not in store", evidenceID, manifest.Ingest.SHA256))
		} else {
			entry := path.Join("originals", evidenceID, manifest.Ingest.OriginalFilename)
			pf, err := addFile(zw, entry, originalPath, ts, FileOriginal, evidenceID)
			if err != nil {
				return err
			}
			packed = append(packed, pf)
		}

		manifestRaw, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return services.Wrap(services.ErrTransient, "export", "encode evidence manifest", evidenceID, err)
		}
		pf, err := addBytes(zw, path.Join("manifests", evidenceID+".json"), manifestRaw, ts, FileEvidenceIndex, evidenceID)
		if err != nil {
			return err
		}
		packed = append(packed, pf)

		if req.IncludeDerivatives {
			derivatives, err := p.store.ListDerivatives(manifest.Ingest.SHA256)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("evidence %s: derivative listing failed: %v", evidenceID, err))
				continue
			}
			for _, dtype := range evidence.DerivativeTypes() {
				for _, name := range derivatives[dtype] {
					src, err := p.store.DerivativePath(manifest.Ingest.SHA256, dtype, name)
					if err != nil {
						result.Warnings = append(result.Warnings, fmt.Sprintf("evidence %s: derivative %s/%s missing", evidenceID, dtype, name))
						continue
					}
					entry := path.Join("derivatives", evidenceID, string(dtype), name)
					pf, err := addFile(zw, entry, src, ts, FileDerivative, evidenceID)
					if err != nil {
						return err
					}
					packed = append(packed, pf)
				}
			}
		}
	}

	extract, err := p.ledgerExtract(req.EvidenceIDs)
	if err != nil {
		return err
	}
	if len(extract) > 0 {
		pf, err := addBytes(zw, extractArchivePath, extract, ts, FileLedgerExtract, "")
		if err != nil {
			return err
		}
		packed = append(packed, pf)
	}

	if req.IncludeIndex {
		snapshot, ok, err := p.filteredIndex(req.EvidenceIDs)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("search index skipped: %v", err))
		} else if ok {
			pf, err := addBytes(zw, indexArchivePath, snapshot, ts, FileSearchIndex, "")
			if err != nil {
				return err
			}
			packed = append(packed, pf)
		}
	}

	var totalBytes int64
	for _, pf := range packed {
		totalBytes += pf.SizeBytes
	}
	tier := TierFor(totalBytes)

	manifest := Manifest{
		PackageName:   filepath.Base(archivePath),
		CaseRef:       req.CaseRef,
		ExportedAt:    ts,
		ExportedBy:    p.exportedBy,
		EvidenceIDs:   append([]string(nil), req.EvidenceIDs...),
		EvidenceFound: found,
		FileCount:     len(packed),
		TotalBytes:    totalBytes,
		SizeTier:      tier,
		Files:         packed,
	}
	manifestRaw, manifestSHA, err := sealManifest(&manifest)
	if err != nil {
		return err
	}
	if _, err := addBytes(zw, manifestArchivePath, manifestRaw, ts, "", ""); err != nil {
		return err
	}

	composite := compositeHash(packed)
	report := renderReport(&manifest, composite)
	if _, err := addBytes(zw, reportArchivePath, []byte(report), ts, "", ""); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return services.Wrap(services.ErrTransient, "export", "close archive writer", archivePath, err)
	}
	if err := archive.Close(); err != nil {
		return services.Wrap(services.ErrTransient, "export", "close archive", archivePath, err)
	}
	closed = true

	archiveDigest, err := digest.File(archivePath)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "hash archive", archivePath, err)
	}

	if _, err := p.ledger.Append(ActionExportPackage, strings.Join(req.EvidenceIDs, ","), archiveDigest.SHA256, p.exportedBy, map[string]any{
		"case_ref":       req.CaseRef,
		"archive":        filepath.Base(archivePath),
		"file_count":     len(packed),
		"total_bytes":    totalBytes,
		"size_tier":      string(tier),
		"evidence_found": found,
		"manifest_sha":   manifestSHA,
		"composite_hash": composite,
	}); err != nil {
		return err
	}

	result.Succeeded = true
	result.ArchivePath = archivePath
	result.ArchiveSHA256 = archiveDigest.SHA256
	result.FileCount = len(packed)
	result.TotalBytes = totalBytes
	result.SizeTier = tier
	result.CompositeHash = composite
	return nil
}

// ledgerExtract copies the raw source bytes of every ledger line relevant to
// the requested ids, so third parties can re-verify entry hashes against the
// extract. Composite evidence ids (comma joined group entries) match by
// substring. Bookkeeping entries from earlier exports are excluded: the same
// evidence set exported twice must yield the same extract.
func (p *Packager) ledgerExtract(evidenceIDs []string) ([]byte, error) {
	entries, err := ledger.ReadAllRaw(p.ledgerPath)
	if err != nil {
		return nil, err
	}

	var out []byte
	for _, entry := range entries {
		if entry.Entry.Action == ActionExportPackage {
			continue
		}
		if !matchesAny(entry.Entry.EvidenceID, evidenceIDs) {
			continue
		}
		out = append(out, entry.Raw...)
		out = append(out, '\n')
	}
	return out, nil
}

func matchesAny(entryID string, evidenceIDs []string) bool {
	if entryID == "" {
		return false
	}
	for _, id := range evidenceIDs {
		if entryID == id || strings.Contains(entryID, id) {
			return true
		}
	}
	return false
}

// filteredIndex loads the external search index snapshot and keeps only the
// requested evidence ids. The second return is false when no index exists.
func (p *Packager) filteredIndex(evidenceIDs []string) ([]byte, bool, error) {
	raw, err := os.ReadFile(p.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read search index: %w", err)
	}

	var full map[string]json.RawMessage
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, false, fmt.Errorf("parse search index: %w", err)
	}

	wanted := make(map[string]struct{}, len(evidenceIDs))
	for _, id := range evidenceIDs {
		wanted[id] = struct{}{}
	}
	filtered := make(map[string]json.RawMessage)
	for id, entry := range full {
		if _, ok := wanted[id]; ok {
			filtered[id] = entry
		}
	}

	snapshot, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return nil, false, fmt.Errorf("encode filtered index: %w", err)
	}
	return snapshot, true, nil
}

// sealManifest embeds the manifest's own hash: the hash is computed over the
// JSON serialized with ManifestSHA256 empty, then written into the field.
func sealManifest(m *Manifest) ([]byte, string, error) {
	m.ManifestSHA256 = ""
	unsealed, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "export", "encode manifest", m.CaseRef, err)
	}
	sum := sha256.Sum256(unsealed)
	m.ManifestSHA256 = hex.EncodeToString(sum[:])

	sealed, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "export", "encode sealed manifest", m.CaseRef, err)
	}
	return sealed, m.ManifestSHA256, nil
}

// compositeHash hashes the path-sorted concatenation of every packed file's
// hex digest. A third party can recompute it from the manifest alone.
func compositeHash(files []PackedFile) string {
	sorted := make([]PackedFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	hasher := sha256.New()
	for _, pf := range sorted {
		hasher.Write([]byte(pf.SHA256))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func addFile(zw *zip.Writer, archivePath, srcPath string, ts time.Time, ftype FileType, evidenceID string) (PackedFile, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return PackedFile{}, services.Wrap(services.ErrNotFound, "export", "open source", srcPath, err)
	}
	defer src.Close()

	w, err := newArchiveEntry(zw, archivePath, ts)
	if err != nil {
		return PackedFile{}, err
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(w, hasher), src)
	if err != nil {
		return PackedFile{}, services.Wrap(services.ErrTransient, "export", "pack file", archivePath, err)
	}

	return PackedFile{
		Path:       archivePath,
		SHA256:     hex.EncodeToString(hasher.Sum(nil)),
		SizeBytes:  written,
		Type:       ftype,
		EvidenceID: evidenceID,
	}, nil
}

func addBytes(zw *zip.Writer, archivePath string, data []byte, ts time.Time, ftype FileType, evidenceID string) (PackedFile, error) {
	w, err := newArchiveEntry(zw, archivePath, ts)
	if err != nil {
		return PackedFile{}, err
	}
	if _, err := w.Write(data); err != nil {
		return PackedFile{}, services.Wrap(services.ErrTransient, "export", "pack bytes", archivePath, err)
	}
	sum := sha256.Sum256(data)
	return PackedFile{
		Path:       archivePath,
		SHA256:     hex.EncodeToString(sum[:]),
		SizeBytes:  int64(len(data)),
		Type:       ftype,
		EvidenceID: evidenceID,
	}, nil
}

// newArchiveEntry pins the entry's modification time to the export timestamp
// so identical inputs produce byte-identical archives.
func newArchiveEntry(zw *zip.Writer, archivePath string, ts time.Time) (io.Writer, error) {
	header := &zip.FileHeader{
		Name:     archivePath,
		Method:   zip.Deflate,
		Modified: ts,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "create archive entry", archivePath, err)
	}
	return w, nil
}
