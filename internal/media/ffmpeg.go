package media

import (
	"context"
	"fmt"
	"strconv"
)

// Fixed waveform rendering parameters. Changing these breaks reproducibility
// of previously recorded derivatives, so treat them as frozen.
const (
	WaveformWidth  = 1200
	WaveformHeight = 300
	WaveformColor  = "0x3AA3FF"
)

// ThumbnailOffsetSeconds returns the deterministic capture point for a
// thumbnail: the midpoint of the recording, capped at ten seconds.
func ThumbnailOffsetSeconds(durationSeconds float64) float64 {
	offset := durationSeconds / 2
	if offset > 10 {
		offset = 10
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// Thumbnail captures a single frame from src at offsetSeconds into dst.
func (t *Toolset) Thumbnail(ctx context.Context, src, dst string, offsetSeconds float64) error {
	_, err := t.run(ctx, t.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offsetSeconds, 'f', 3, 64),
		"-i", src,
		"-frames:v", "1",
		"-q:v", "2",
		"-y", dst,
	)
	return err
}

// Waveform renders the audio of src as a waveform image at dst using the
// frozen dimensions and color.
func (t *Toolset) Waveform(ctx context.Context, src, dst string) error {
	filter := fmt.Sprintf("showwavespic=s=%dx%d:colors=%s", WaveformWidth, WaveformHeight, WaveformColor)
	_, err := t.run(ctx, t.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-filter_complex", filter,
		"-frames:v", "1",
		"-y", dst,
	)
	return err
}

// Proxy transcodes src into a review copy at a fixed height, preserving
// aspect ratio.
func (t *Toolset) Proxy(ctx context.Context, src, dst string, height int) error {
	_, err := t.run(ctx, t.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-y", dst,
	)
	return err
}
