package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"custody/internal/config"
	"custody/internal/logging"
	"custody/internal/services"
)

// Toolset binds the configured external binaries and their shared deadline.
type Toolset struct {
	ffmpeg    string
	ffprobe   string
	pdftotext string
	tesseract string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewToolset constructs a Toolset from the shared configuration.
func NewToolset(cfg *config.Config, logger *slog.Logger) *Toolset {
	return &Toolset{
		ffmpeg:    cfg.Tools.FFmpeg,
		ffprobe:   cfg.Tools.FFprobe,
		pdftotext: cfg.Tools.PDFToText,
		tesseract: cfg.Tools.Tesseract,
		timeout:   time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
		logger:    logging.NewComponentLogger(logger, "media"),
	}
}

// run executes one external tool invocation under the toolset deadline and
// returns its combined output. Deadline expiry and tool failures come back as
// typed errors for caller classification.
func (t *Toolset) run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "media", "resolve tool", "empty binary name", nil)
	}

	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	started := time.Now()
	cmd := exec.CommandContext(runCtx, binary, args...)
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(started)

	if err != nil {
		if runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(
				services.ErrTimeout,
				"media",
				binary,
				fmt.Sprintf("killed after %s", elapsed.Round(time.Millisecond)),
				err,
			)
		}
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		return nil, services.Wrap(services.ErrExternalTool, "media", binary, detail, err)
	}

	t.logger.Debug("tool finished",
		logging.String("binary", binary),
		logging.Duration("elapsed", elapsed),
	)
	return output, nil
}
