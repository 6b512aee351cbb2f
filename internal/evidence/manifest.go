package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"custody/internal/services"
)

// ManifestPath returns the on-disk location for an evidence item's manifest.
func (s *Store) ManifestPath(evidenceID string) string {
	return filepath.Join(s.root, manifestsDir, evidenceID+".json")
}

// LoadManifest reads a manifest by evidence_id.
func (s *Store) LoadManifest(evidenceID string) (*Manifest, error) {
	raw, err := os.ReadFile(s.ManifestPath(evidenceID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "manifest", "load", evidenceID, nil)
		}
		return nil, fmt.Errorf("read manifest %s: %w", evidenceID, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", evidenceID, err)
	}
	return &m, nil
}

// ListManifests returns every evidence_id with a persisted manifest, sorted.
func (s *Store) ListManifests() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, manifestsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AddDerivative appends a derivative record to the manifest and persists it.
func (s *Store) AddDerivative(evidenceID string, record DerivativeRecord) error {
	m, err := s.LoadManifest(evidenceID)
	if err != nil {
		return err
	}
	m.Derivatives = append(m.Derivatives, record)
	return s.saveManifest(m)
}

// AppendAudit appends an audit entry to the per-item manifest. This is a
// convenience mirror of the ledger; the ledger remains authoritative.
func (s *Store) AppendAudit(evidenceID, action, actor string, details map[string]any) error {
	m, err := s.LoadManifest(evidenceID)
	if err != nil {
		return err
	}
	m.AuditEntries = append(m.AuditEntries, AuditEntry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Actor:     actor,
		Details:   details,
	})
	return s.saveManifest(m)
}

// saveManifest writes atomically via a temp file rename so a crash never
// leaves a torn manifest.
func (s *Store) saveManifest(m *Manifest) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest %s: %w", m.EvidenceID, err)
	}
	target := s.ManifestPath(m.EvidenceID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", m.EvidenceID, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit manifest %s: %w", m.EvidenceID, err)
	}
	return nil
}
