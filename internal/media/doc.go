// Package media wraps the external tools (ffprobe, ffmpeg, pdftotext,
// tesseract) used to derive secondary artifacts from stored originals. Every
// invocation runs under a deadline and reports tool failures as typed errors
// so callers can isolate a single failed derivative.
package media
