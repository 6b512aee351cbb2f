package media

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"custody/internal/services"
)

// TextStats summarizes an extracted text body for the derivative record.
type TextStats struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
	Pages      int `json:"pages"`
}

// Stats computes word, character, and page counts for extracted text. Page
// boundaries are form feeds, as emitted by pdftotext.
func Stats(text string) TextStats {
	pages := strings.Count(text, "\f") + 1
	if strings.TrimSpace(text) == "" {
		pages = 0
	}
	return TextStats{
		Words:      len(strings.Fields(text)),
		Characters: len([]rune(text)),
		Pages:      pages,
	}
}

// PDFText extracts the native text layer of a PDF via pdftotext.
func (t *Toolset) PDFText(ctx context.Context, src string) (string, error) {
	output, err := t.run(ctx, t.pdftotext, "-layout", src, "-")
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// OCRText recognizes text in an image via tesseract.
func (t *Toolset) OCRText(ctx context.Context, src string) (string, error) {
	output, err := t.run(ctx, t.tesseract, src, "stdout")
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// DocxText extracts paragraph text from a docx container without external
// tools. The document body lives at word/document.xml inside the zip.
func DocxText(src string) (string, error) {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "media", "docx", "not a docx container", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "media", "docx", "open document body", err)
		}
		defer rc.Close()
		return docxBodyText(rc)
	}
	return "", services.Wrap(services.ErrValidation, "media", "docx", "word/document.xml missing", nil)
}

// docxBodyText streams the document XML, collecting text runs and inserting
// newlines at paragraph ends.
func docxBodyText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var out strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "media", "docx", "malformed document body", err)
		}
		switch element := token.(type) {
		case xml.CharData:
			out.Write(element)
		case xml.EndElement:
			if element.Name.Local == "p" {
				out.WriteByte('\n')
			}
		}
	}
	return out.String(), nil
}

// PlainText reads a text file unchanged.
func PlainText(src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "media", "plaintext", src, err)
	}
	return string(data), nil
}
