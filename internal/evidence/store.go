package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"custody/internal/digest"
	"custody/internal/logging"
	"custody/internal/services"
)

const (
	originalsDir   = "originals"
	derivativesDir = "derivatives"
	manifestsDir   = "manifests"

	// DefaultMaxOriginalBytes is the hard ingest ceiling (3 GiB).
	DefaultMaxOriginalBytes = 3 << 30

	hashPrefixLen = 4
)

// Store provides content-addressed storage rooted at a single directory.
type Store struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
}

// NewStore constructs a Store rooted at root. maxBytes <= 0 selects the
// default ingest ceiling.
func NewStore(root string, maxBytes int64, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("evidence store root is empty")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOriginalBytes
	}
	for _, dir := range []string{root, filepath.Join(root, originalsDir), filepath.Join(root, derivativesDir), filepath.Join(root, manifestsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}
	return &Store{
		root:     root,
		maxBytes: maxBytes,
		logger:   logging.NewComponentLogger(logger, "evidence-store"),
	}, nil
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// Ingest streams the source file, computes its digest, and stores it under
// its content hash. Identical content deduplicates: the second ingest
// returns Duplicate=true without re-copying, though a fresh manifest is
// still created for the new logical reference.
func (s *Store) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	logger := logging.WithContext(ctx, s.logger)

	info, err := os.Stat(req.SourcePath)
	if err != nil {
		return IngestResult{}, services.Wrap(services.ErrNotFound, "ingest", "stat source", req.SourcePath, err)
	}
	if info.Size() > s.maxBytes {
		return IngestResult{}, services.Wrap(
			services.ErrSizeLimit,
			"ingest",
			"check size",
			fmt.Sprintf("%s is %d bytes, ceiling is %d", req.OriginalFilename, info.Size(), s.maxBytes),
			nil,
		)
	}

	d, err := digest.File(req.SourcePath)
	if err != nil {
		return IngestResult{}, services.Wrap(services.ErrTransient, "ingest", "hash source", req.SourcePath, err)
	}

	filename := strings.TrimSpace(req.OriginalFilename)
	if filename == "" {
		filename = filepath.Base(req.SourcePath)
	}

	hashDir := filepath.Join(s.root, originalsDir, d.SHA256[:hashPrefixLen], d.SHA256)
	duplicate := false
	storedPath := ""

	if existing, err := s.firstFileIn(hashDir); err == nil && existing != "" {
		duplicate = true
		storedPath = existing
		logger.Info("duplicate content, skipping copy",
			logging.String(logging.FieldSHA256, d.SHA256),
			logging.String("filename", filename),
		)
	} else {
		if err := os.MkdirAll(hashDir, 0o755); err != nil {
			return IngestResult{}, services.Wrap(services.ErrTransient, "ingest", "create hash directory", hashDir, err)
		}
		storedPath = filepath.Join(hashDir, filename)
		copied, err := digest.CopyVerified(req.SourcePath, storedPath)
		if err != nil {
			// CopyVerified already removed the partial file; drop the
			// now-empty hash directory so a retry starts clean.
			_ = os.Remove(hashDir)
			return IngestResult{}, services.Wrap(services.ErrCopyIntegrity, "ingest", "verified copy", filename, err)
		}
		if copied.SHA256 != d.SHA256 {
			_ = os.Remove(storedPath)
			_ = os.Remove(hashDir)
			return IngestResult{}, services.Wrap(
				services.ErrCopyIntegrity,
				"ingest",
				"post-copy hash check",
				fmt.Sprintf("source hashed %s but copy hashed %s", d.SHA256, copied.SHA256),
				nil,
			)
		}
		logger.Info("stored new original",
			logging.String(logging.FieldSHA256, d.SHA256),
			logging.String("filename", filename),
			logging.Int64("size_bytes", d.SizeBytes),
		)
	}

	meta := IngestMetadata{
		OriginalFilename: filename,
		MimeType:         detectMimeType(filename),
		SizeBytes:        d.SizeBytes,
		SHA256:           d.SHA256,
		EvidenceID:       uuid.NewString(),
		IngestedAt:       time.Now().UTC(),
		IngestedBy:       req.IngestedBy,
		DeviceLabel:      req.DeviceLabel,
		SourcePath:       req.SourcePath,
	}
	manifest := Manifest{
		EvidenceID:   meta.EvidenceID,
		Ingest:       meta,
		Derivatives:  []DerivativeRecord{},
		AuditEntries: []AuditEntry{},
	}
	if err := s.saveManifest(&manifest); err != nil {
		return IngestResult{}, err
	}

	return IngestResult{
		EvidenceID: meta.EvidenceID,
		Digest:     d,
		Duplicate:  duplicate,
		StoredPath: storedPath,
		Metadata:   meta,
	}, nil
}

// StoreDerivative copies a generated artifact into the derivative tree for
// the given original, hashing it independently of the generator.
func (s *Store) StoreDerivative(ctx context.Context, originalSHA string, dtype DerivativeType, sourcePath, filename string, parameters map[string]any) (DerivativeRecord, error) {
	logger := logging.WithContext(ctx, s.logger)

	if len(originalSHA) < hashPrefixLen {
		return DerivativeRecord{}, services.Wrap(services.ErrValidation, "derivative", "check hash", "original sha256 too short", nil)
	}
	if filename = strings.TrimSpace(filename); filename == "" {
		filename = filepath.Base(sourcePath)
	}

	dir := filepath.Join(s.root, derivativesDir, originalSHA[:hashPrefixLen], originalSHA, string(dtype))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DerivativeRecord{}, services.Wrap(services.ErrTransient, "derivative", "create directory", dir, err)
	}

	target := filepath.Join(dir, filename)
	d, err := digest.CopyVerified(sourcePath, target)
	if err != nil {
		return DerivativeRecord{}, services.Wrap(services.ErrCopyIntegrity, "derivative", "verified copy", filename, err)
	}

	logger.Info("stored derivative",
		logging.String(logging.FieldSHA256, originalSHA),
		logging.String("derivative_type", string(dtype)),
		logging.String("filename", filename),
		logging.Int64("size_bytes", d.SizeBytes),
	)

	return DerivativeRecord{
		DerivativeType: dtype,
		Filename:       filename,
		SHA256:         d.SHA256,
		SizeBytes:      d.SizeBytes,
		CreatedAt:      time.Now().UTC(),
		Parameters:     parameters,
	}, nil
}

// OriginalPath returns the stored path of the original with the given hash.
func (s *Store) OriginalPath(sha string) (string, error) {
	if len(sha) < hashPrefixLen {
		return "", services.Wrap(services.ErrValidation, "store", "check hash", "sha256 too short", nil)
	}
	dir := filepath.Join(s.root, originalsDir, sha[:hashPrefixLen], sha)
	path, err := s.firstFileIn(dir)
	if err != nil || path == "" {
		return "", services.Wrap(services.ErrNotFound, "store", "locate original", sha, err)
	}
	return path, nil
}

// DerivativePath returns the stored path of a specific derivative file.
func (s *Store) DerivativePath(sha string, dtype DerivativeType, filename string) (string, error) {
	if len(sha) < hashPrefixLen {
		return "", services.Wrap(services.ErrValidation, "store", "check hash", "sha256 too short", nil)
	}
	path := filepath.Join(s.root, derivativesDir, sha[:hashPrefixLen], sha, string(dtype), filename)
	if _, err := os.Stat(path); err != nil {
		return "", services.Wrap(services.ErrNotFound, "store", "locate derivative", filename, err)
	}
	return path, nil
}

// ListDerivatives enumerates every stored derivative file for an original,
// grouped by type, in sorted order. A missing derivative tree yields an
// empty map.
func (s *Store) ListDerivatives(sha string) (map[DerivativeType][]string, error) {
	result := make(map[DerivativeType][]string)
	if len(sha) < hashPrefixLen {
		return result, services.Wrap(services.ErrValidation, "store", "check hash", "sha256 too short", nil)
	}
	base := filepath.Join(s.root, derivativesDir, sha[:hashPrefixLen], sha)
	for _, dtype := range DerivativeTypes() {
		dir := filepath.Join(base, string(dtype))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return result, fmt.Errorf("list derivatives %s: %w", dir, err)
		}
		var names []string
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		if len(names) > 0 {
			result[dtype] = names
		}
	}
	return result, nil
}

// VerifyOriginal rehashes the stored original and compares it to the hash it
// is filed under. Used for spot-checking integrity outside normal operation.
func (s *Store) VerifyOriginal(sha string) (bool, string) {
	path, err := s.OriginalPath(sha)
	if err != nil {
		return false, fmt.Sprintf("original %s not found in store", sha)
	}
	ok, d, err := digest.Verify(path, sha)
	if err != nil {
		return false, fmt.Sprintf("rehash failed: %v", err)
	}
	if !ok {
		return false, fmt.Sprintf("hash mismatch: stored as %s but content hashes to %s", sha, d.SHA256)
	}
	return true, fmt.Sprintf("verified %d bytes", d.SizeBytes)
}

func (s *Store) firstFileIn(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}

var extraMimeTypes = map[string]string{
	".mkv":  "video/x-matroska",
	".m4a":  "audio/mp4",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".heic": "image/heic",
}

func detectMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extraMimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip parameters such as charset.
		if idx := strings.IndexByte(t, ';'); idx > 0 {
			return strings.TrimSpace(t[:idx])
		}
		return t
	}
	return "application/octet-stream"
}
