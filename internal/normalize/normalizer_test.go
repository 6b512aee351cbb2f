package normalize

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"custody/internal/config"
	"custody/internal/evidence"
	"custody/internal/ledger"
	"custody/internal/logging"
	"custody/internal/media"
	"custody/internal/services"
	"custody/internal/testsupport"
)

type normalizeEnv struct {
	cfg    *config.Config
	store  *evidence.Store
	norm   *Normalizer
	ledger string
}

func newNormalizeEnv(t *testing.T, mutate func(*config.Config)) *normalizeEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	led := testsupport.MustOpenLedger(t, cfg)
	tools := media.NewToolset(cfg, logging.NewNop())
	return &normalizeEnv{
		cfg:    cfg,
		store:  store,
		norm:   New(store, led, tools, cfg, logging.NewNop()),
		ledger: cfg.LedgerPath(),
	}
}

func (e *normalizeEnv) ingest(t *testing.T, filename string, contents []byte) string {
	t.Helper()

	src := filepath.Join(t.TempDir(), filename)
	if err := os.WriteFile(src, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
	res, err := e.store.Ingest(context.Background(), evidence.IngestRequest{
		SourcePath:       src,
		OriginalFilename: filename,
		IngestedBy:       "tester",
	})
	if err != nil {
		t.Fatalf("Ingest %s: %v", filename, err)
	}
	return res.EvidenceID
}

func TestRunTextPassthrough(t *testing.T) {
	env := newNormalizeEnv(t, nil)
	id := env.ingest(t, "statement.txt", []byte("witness statement one two three"))

	result, err := env.norm.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Succeeded {
		t.Fatalf("run failed: %+v", result)
	}
	if result.Class != ClassText {
		t.Fatalf("class = %s", result.Class)
	}
	if len(result.Derivatives) != 1 || !result.Derivatives[0].Succeeded {
		t.Fatalf("derivatives = %+v", result.Derivatives)
	}
	if result.Derivatives[0].Type != evidence.DerivativeTextExtract {
		t.Fatalf("derivative type = %s", result.Derivatives[0].Type)
	}

	manifest, err := env.store.LoadManifest(id)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(manifest.Derivatives) != 1 {
		t.Fatalf("manifest derivatives = %d", len(manifest.Derivatives))
	}
	var mirrored bool
	for _, audit := range manifest.AuditEntries {
		if audit.Action == ActionNormalized {
			mirrored = true
		}
	}
	if !mirrored {
		t.Fatal("manifest audit mirror lacks the normalization entry")
	}

	entries, err := ledger.ReadAll(env.ledger)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	var normalized bool
	for _, entry := range entries {
		if entry.Action == ActionNormalized && entry.EvidenceID == id {
			normalized = true
		}
	}
	if !normalized {
		t.Fatal("no file.normalized ledger entry")
	}
}

func TestRunDocxExtraction(t *testing.T) {
	env := newNormalizeEnv(t, nil)

	docx := buildDocx(t, "interview transcript page one")
	id := env.ingest(t, "transcript.docx", docx)

	result, err := env.norm.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Class != ClassDocx {
		t.Fatalf("class = %s", result.Class)
	}
	if !result.Succeeded || len(result.Derivatives) != 1 || !result.Derivatives[0].Succeeded {
		t.Fatalf("derivatives = %+v", result.Derivatives)
	}
}

func TestRunUnknownClassHasNoDerivatives(t *testing.T) {
	env := newNormalizeEnv(t, nil)
	id := env.ingest(t, "mystery.zzz", []byte{0x00, 0x01, 0x02})

	result, err := env.norm.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Class != ClassUnknown {
		t.Fatalf("class = %s", result.Class)
	}
	if len(result.Derivatives) != 0 {
		t.Fatalf("unknown class produced derivatives: %+v", result.Derivatives)
	}
	if !result.Succeeded {
		t.Fatal("a run with nothing to derive should succeed")
	}
}

func TestRunIsolatesDerivativeFailure(t *testing.T) {
	env := newNormalizeEnv(t, func(cfg *config.Config) {
		cfg.Tools.Tesseract = filepath.Join(t.TempDir(), "no-such-tesseract")
	})
	id := env.ingest(t, "scan.jpg", []byte("not a real jpeg"))

	result, err := env.norm.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("Run must not fail for a broken tool: %v", err)
	}
	if result.Succeeded {
		t.Fatal("run succeeded although its only derivative failed")
	}
	if len(result.Derivatives) != 1 || result.Derivatives[0].Succeeded {
		t.Fatalf("derivatives = %+v", result.Derivatives)
	}
	if result.Derivatives[0].Error == "" {
		t.Fatal("failed derivative carries no error message")
	}
}

func TestRunSkipsWaveformForSilentVideo(t *testing.T) {
	probeScript := writeStubProbe(t, `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"}],"format":{"format_name":"mov,mp4","duration":"4.0"}}`)
	env := newNormalizeEnv(t, func(cfg *config.Config) {
		cfg.Tools.FFprobe = probeScript
		cfg.Tools.FFmpeg = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	})
	id := env.ingest(t, "silent.mp4", []byte("not a real container"))

	result, err := env.norm.Run(context.Background(), id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Class != ClassVideo {
		t.Fatalf("class = %s", result.Class)
	}
	for _, d := range result.Derivatives {
		if d.Type == evidence.DerivativeWaveform {
			t.Fatal("waveform attempted for a video with no audio stream")
		}
	}
	var metadataOK, thumbnailFailed bool
	for _, d := range result.Derivatives {
		switch d.Type {
		case evidence.DerivativeMetadataExtract:
			metadataOK = d.Succeeded
		case evidence.DerivativeThumbnail:
			thumbnailFailed = !d.Succeeded
		}
	}
	if !metadataOK || !thumbnailFailed {
		t.Fatalf("derivatives = %+v", result.Derivatives)
	}
}

// writeStubProbe fakes ffprobe with a script that prints fixed JSON.
func writeStubProbe(t *testing.T, payload string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stub-ffprobe")
	script := "#!/bin/sh\ncat <<'EOF'\n" + payload + "\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub probe: %v", err)
	}
	return path
}

func TestRunUnknownEvidenceID(t *testing.T) {
	env := newNormalizeEnv(t, nil)
	if _, err := env.norm.Run(context.Background(), "no-such-id"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// buildDocx produces the minimal OOXML container DocxText understands.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.zip")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	writer := zip.NewWriter(file)
	entry, err := writer.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	xml := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := entry.Write([]byte(xml)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read docx: %v", err)
	}
	return data
}
