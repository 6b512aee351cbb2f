package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"custody/internal/evidence"
	"custody/internal/ledger"
	"custody/internal/logging"
	"custody/internal/testsupport"
)

func newTestIngester(t *testing.T, opts ...testsupport.ConfigOption) (*Ingester, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	led := testsupport.MustOpenLedger(t, cfg)
	return New(store, led, cfg, logging.NewNop()), cfg.LedgerPath()
}

func writeClip(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRunBatchGroupsAdjacentClips(t *testing.T) {
	ing, ledgerPath := newTestIngester(t)
	src := t.TempDir()
	writeClip(t, src, "OfficerA_202511292250_BWL001-0.mp4", "clip zero")
	writeClip(t, src, "OfficerA_202511292255_BWL001-1.mp4", "clip one")

	result, err := ing.RunBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.FoundCount != 2 || result.IngestedCount != 2 || result.ErrorCount != 0 {
		t.Fatalf("counts = found %d ingested %d errors %d", result.FoundCount, result.IngestedCount, result.ErrorCount)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(result.Groups))
	}
	if len(result.Groups[0].EvidenceIDs) != 2 {
		t.Fatalf("group members = %d, want 2", len(result.Groups[0].EvidenceIDs))
	}

	entries, err := ledger.ReadAll(ledgerPath)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if len(entries) == 0 || entries[0].Action != ActionBatchStart {
		t.Fatal("batch not opened with a batch.ingest_start entry")
	}
	var grouped, completed bool
	for _, entry := range entries {
		switch entry.Action {
		case ActionSequenceGrouped:
			grouped = true
		case ActionBatchComplete:
			completed = true
		}
	}
	if !grouped || !completed {
		t.Fatalf("missing ledger actions (grouped=%v completed=%v)", grouped, completed)
	}
}

func TestRunBatchMirrorsAuditIntoManifest(t *testing.T) {
	ing, _ := newTestIngester(t)
	src := t.TempDir()
	writeClip(t, src, "OfficerA_202511292250_BWL001-0.mp4", "clip zero")

	result, err := ing.RunBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(result.Files))
	}

	manifest, err := ing.store.LoadManifest(result.Files[0].EvidenceID)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(manifest.AuditEntries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(manifest.AuditEntries))
	}
	if manifest.AuditEntries[0].Action != ActionFileIngested {
		t.Fatalf("mirrored action = %s, want %s", manifest.AuditEntries[0].Action, ActionFileIngested)
	}
}

func TestRunBatchIsIdempotent(t *testing.T) {
	ing, _ := newTestIngester(t)
	src := t.TempDir()
	writeClip(t, src, "OfficerA_202511292250_BWL001-0.mp4", "clip zero")
	writeClip(t, src, "OfficerA_202511292255_BWL001-1.mp4", "clip one")

	first, err := ing.RunBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("first RunBatch: %v", err)
	}
	second, err := ing.RunBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("second RunBatch: %v", err)
	}

	if second.IngestedCount != 0 || second.DuplicateCount != 2 {
		t.Fatalf("rerun counts = ingested %d duplicates %d", second.IngestedCount, second.DuplicateCount)
	}
	for i, record := range second.Files {
		if record.SHA256 != first.Files[i].SHA256 {
			t.Fatalf("rerun hash for %s changed", record.Filename)
		}
		if record.Status != StatusDuplicate {
			t.Fatalf("rerun status for %s = %s", record.Filename, record.Status)
		}
	}
}

func TestRunBatchSkipsUnsupportedExtensions(t *testing.T) {
	ing, _ := newTestIngester(t)
	src := t.TempDir()
	writeClip(t, src, "OfficerA_202511292250_BWL001-0.mp4", "clip zero")
	writeClip(t, src, "thumbs.db", "not evidence")
	writeClip(t, src, "notes.xyz", "also not evidence")

	result, err := ing.RunBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.FoundCount != 1 {
		t.Fatalf("found = %d, want 1", result.FoundCount)
	}
}

func TestRunBatchIsolatesFileErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := evidence.NewStore(cfg.Paths.StoreDir, 16, logging.NewNop())
	if err != nil {
		t.Fatalf("evidence.NewStore: %v", err)
	}
	led := testsupport.MustOpenLedger(t, cfg)
	ing := New(store, led, cfg, logging.NewNop())

	src := t.TempDir()
	writeClip(t, src, "OfficerA_202511292250_BWL001-0.mp4", "short")
	writeClip(t, src, "OfficerA_202511292255_BWL001-1.mp4", "well past the sixteen byte ceiling")

	result, err := ing.RunBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.IngestedCount != 1 || result.ErrorCount != 1 {
		t.Fatalf("counts = ingested %d errors %d", result.IngestedCount, result.ErrorCount)
	}
	if result.Errors[0].ErrorID == "" {
		t.Fatal("failed file has no error id")
	}

	entries, err := ledger.ReadAll(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	var sawError bool
	for _, entry := range entries {
		if entry.Action == ActionFileError {
			sawError = true
		}
	}
	if !sawError {
		t.Fatal("no file.ingest_error ledger entry for the failed file")
	}
}

func TestRunBatchPersistsManifest(t *testing.T) {
	ing, _ := newTestIngester(t)
	src := t.TempDir()
	writeClip(t, src, "OfficerA_202511292250_BWL001-0.mp4", "clip zero")

	result, err := ing.RunBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.ManifestPath == "" {
		t.Fatal("batch manifest path not set")
	}
	if _, err := os.Stat(result.ManifestPath); err != nil {
		t.Fatalf("batch manifest missing: %v", err)
	}
}
