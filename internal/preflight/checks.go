package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"custody/internal/config"
	"custody/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path can absorb at least one
// maximum-size original.
func CheckFreeSpace(name, path string, requiredBytes int64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := int64(stat.Bavail) * int64(stat.Bsize)
	if free < requiredBytes {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s (%d bytes free, need %d for one maximum-size original)", path, free, requiredBytes),
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes free)", path, free)}
}

// CheckTools evaluates every external binary the pipeline shells out to.
// ffprobe and ffmpeg gate media derivatives; the text tools are optional
// because text extraction degrades per-derivative rather than failing runs.
func CheckTools(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for media metadata extraction",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for thumbnails, waveforms, and proxies",
		},
		{
			Name:        "pdftotext",
			Command:     cfg.Tools.PDFToText,
			Description: "Extracts native text from PDF evidence",
			Optional:    true,
		},
		{
			Name:        "Tesseract",
			Command:     cfg.Tools.Tesseract,
			Description: "OCR for image evidence",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
