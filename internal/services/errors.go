package services

import (
	"errors"
	"fmt"
	"strings"

	"custody/internal/jobs"
)

var (
	// ErrSizeLimit marks an ingest source that exceeds the configured ceiling.
	ErrSizeLimit = errors.New("size limit exceeded")
	// ErrCopyIntegrity marks a post-copy hash mismatch. The partial copy is
	// never retained.
	ErrCopyIntegrity = errors.New("copy integrity failure")
	// ErrExternalTool marks a media tool (ffmpeg, ffprobe, tesseract,
	// pdftotext) exiting non-zero or being absent.
	ErrExternalTool = errors.New("external tool error")
	// ErrTimeout marks an external tool invocation that exceeded its deadline.
	ErrTimeout       = errors.New("timeout")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the job status the workflow manager
// should persist after the stage fails. Configuration and validation problems
// need operator attention; everything else is retryable.
func FailureStatus(err error) jobs.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return jobs.StatusReview
	default:
		return jobs.StatusFailed
	}
}

// IsFatalForFile reports whether an error should abort the current file's
// ingest. Size-limit and copy-integrity failures are fatal for the file but
// never for the batch.
func IsFatalForFile(err error) bool {
	return errors.Is(err, ErrSizeLimit) || errors.Is(err, ErrCopyIntegrity)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
