package media

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"custody/internal/services"
)

func TestStats(t *testing.T) {
	cases := []struct {
		name string
		text string
		want TextStats
	}{
		{"empty", "", TextStats{Words: 0, Characters: 0, Pages: 0}},
		{"whitespace only", "  \n\t", TextStats{Words: 0, Characters: 4, Pages: 0}},
		{"single page", "one two three", TextStats{Words: 3, Characters: 13, Pages: 1}},
		{"form feeds", "page one\fpage two\fpage three", TextStats{Words: 6, Characters: 28, Pages: 3}},
		{"multibyte runes", "café", TextStats{Words: 1, Characters: 4, Pages: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Stats(tc.text); got != tc.want {
				t.Fatalf("Stats(%q) = %+v, want %+v", tc.text, got, tc.want)
			}
		})
	}
}

func TestThumbnailOffsetSeconds(t *testing.T) {
	cases := []struct {
		duration float64
		want     float64
	}{
		{0, 0},
		{-3, 0},
		{8, 4},
		{20, 10},
		{3600, 10},
	}
	for _, tc := range cases {
		if got := ThumbnailOffsetSeconds(tc.duration); got != tc.want {
			t.Errorf("ThumbnailOffsetSeconds(%v) = %v, want %v", tc.duration, got, tc.want)
		}
	}
}

func TestDocxText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	zw := zip.NewWriter(file)
	entry, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	xml := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>first paragraph</w:t></w:r></w:p><w:p><w:r><w:t>second paragraph</w:t></w:r></w:p></w:body></w:document>`
	if _, err := entry.Write([]byte(xml)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}

	text, err := DocxText(path)
	if err != nil {
		t.Fatalf("DocxText: %v", err)
	}
	if text != "first paragraph\nsecond paragraph\n" {
		t.Fatalf("text = %q", text)
	}
}

func TestDocxTextRejectsNonContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.docx")
	if err := os.WriteFile(path, []byte("plain bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := DocxText(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDocxTextMissingBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	zw := zip.NewWriter(file)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}

	if _, err := DocxText(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("verbatim body"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	text, err := PlainText(path)
	if err != nil {
		t.Fatalf("PlainText: %v", err)
	}
	if text != "verbatim body" {
		t.Fatalf("text = %q", text)
	}
}
