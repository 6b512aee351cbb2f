package ledger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestLedger(t *testing.T, path string) *Ledger {
	t.Helper()
	led, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = led.Close() })
	return led
}

func TestAppendBuildsChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	led := openTestLedger(t, path)

	first, err := led.Append("file.ingested", "ev-1", "aa11", "tester", map[string]any{"filename": "a.mp4"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.Seq != 0 {
		t.Fatalf("first seq = %d, want 0", first.Seq)
	}
	if first.PrevHash != GenesisHash {
		t.Fatalf("first prev_hash = %s, want genesis", first.PrevHash)
	}

	second, err := led.Append("file.ingested", "ev-2", "bb22", "tester", nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	firstLine, err := first.Line()
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if second.PrevHash != LineHash(firstLine) {
		t.Fatalf("second prev_hash does not chain to first line hash")
	}

	problems, err := Verify(path)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("Verify reported %d problems on a clean chain: %v", len(problems), problems)
	}
}

func TestVerifyDetectsModification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	led := openTestLedger(t, path)
	for i := 0; i < 3; i++ {
		if _, err := led.Append("file.ingested", "ev", "cc33", "tester", nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	tampered := bytes.Replace(raw, []byte(`"actor":"tester"`), []byte(`"actor":"nobody"`), 1)
	if bytes.Equal(raw, tampered) {
		t.Fatal("tamper replacement did not apply")
	}
	if err := os.WriteFile(path, tampered, 0o644); err != nil {
		t.Fatalf("write tampered ledger: %v", err)
	}

	problems, err := Verify(path)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) == 0 {
		t.Fatal("Verify missed a modified line")
	}
}

func TestVerifyDetectsDeletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	led := openTestLedger(t, path)
	for i := 0; i < 3; i++ {
		if _, err := led.Append("file.ingested", "ev", "dd44", "tester", nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	// Drop the middle line.
	shortened := strings.Join([]string{lines[0], lines[2]}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(shortened), 0o644); err != nil {
		t.Fatalf("write shortened ledger: %v", err)
	}

	problems, err := Verify(path)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) == 0 {
		t.Fatal("Verify missed a deleted line")
	}
}

func TestVerifyDetectsInsertion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	led := openTestLedger(t, path)
	for i := 0; i < 3; i++ {
		if _, err := led.Append("file.ingested", "ev", "ee55", "tester", nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	// Splice a copy of the first line between the first and second.
	forged := strings.Join([]string{lines[0], lines[0], lines[1], lines[2]}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(forged), 0o644); err != nil {
		t.Fatalf("write forged ledger: %v", err)
	}

	problems, err := Verify(path)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) == 0 {
		t.Fatal("Verify missed an inserted line")
	}
	var atInsertion bool
	for _, p := range problems {
		if p.Line == 2 {
			atInsertion = true
		}
	}
	if !atInsertion {
		t.Fatalf("no problem reported at the inserted line: %v", problems)
	}
}

func TestRestartContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")

	led, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := led.Append("file.ingested", "ev-1", "ee55", "tester", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := led.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openTestLedger(t, path)
	if got := reopened.NextSeq(); got != 1 {
		t.Fatalf("NextSeq after reopen = %d, want 1", got)
	}
	if _, err := reopened.Append("file.ingested", "ev-2", "ff66", "tester", nil); err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}

	problems, err := Verify(path)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("chain broken across restart: %v", problems)
	}
}

func TestOpenRefusesSecondWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	_ = openTestLedger(t, path)

	if _, err := Open(path); err != ErrLocked {
		t.Fatalf("second Open err = %v, want ErrLocked", err)
	}
}

func TestVerifyMissingFileIsClean(t *testing.T) {
	problems, err := Verify(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("missing file should verify clean, got %v", problems)
	}
}

func TestCanonicalJSONIsASCIIAndStable(t *testing.T) {
	entry := Entry{
		Seq:        7,
		Timestamp:  "2026-01-02T03:04:05Z",
		Action:     "file.ingested",
		EvidenceID: "ev-7",
		SHA256:     "ab12",
		Actor:      "Müller",
		Details:    map[string]any{"note": "café"},
		PrevHash:   GenesisHash,
	}
	hash, err := entry.ComputeEntryHash()
	if err != nil {
		t.Fatalf("ComputeEntryHash: %v", err)
	}
	entry.EntryHash = hash

	line, err := entry.Line()
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	for _, b := range line {
		if b >= 0x80 {
			t.Fatalf("canonical line contains non-ASCII byte %#x", b)
		}
	}
	if !bytes.Contains(line, []byte(`\u`)) {
		t.Fatal("expected unicode escapes for non-ASCII input")
	}

	again, err := entry.Line()
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if !bytes.Equal(line, again) {
		t.Fatal("canonical serialization is not stable")
	}

	parsed, err := parseLine(line)
	if err != nil {
		t.Fatalf("parseLine: %v", err)
	}
	recomputed, err := parsed.ComputeEntryHash()
	if err != nil {
		t.Fatalf("ComputeEntryHash after parse: %v", err)
	}
	if recomputed != hash {
		t.Fatal("entry hash not reproducible after a parse round trip")
	}
}
