package ingest

import (
	"testing"
	"time"
)

func TestParseFilenamePrimaryPattern(t *testing.T) {
	parsed := ParseFilename("OfficerA_202511292250_BWL001-0.mp4", "BWL")

	if parsed.Officer != "OfficerA" {
		t.Fatalf("officer = %q", parsed.Officer)
	}
	if parsed.DeviceLabel != "BWL001" {
		t.Fatalf("device = %q", parsed.DeviceLabel)
	}
	if !parsed.HasClip || parsed.ClipIndex != 0 {
		t.Fatalf("clip = %d (has=%v)", parsed.ClipIndex, parsed.HasClip)
	}
	want := time.Date(2025, 11, 29, 22, 50, 0, 0, time.UTC)
	if parsed.Timestamp == nil || !parsed.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", parsed.Timestamp, want)
	}
}

func TestParseFilenameSecondsPrecision(t *testing.T) {
	parsed := ParseFilename("Smith_20251129225015_BWL002-3.mov", "BWL")
	want := time.Date(2025, 11, 29, 22, 50, 15, 0, time.UTC)
	if parsed.Timestamp == nil || !parsed.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", parsed.Timestamp, want)
	}
	if parsed.ClipIndex != 3 {
		t.Fatalf("clip = %d", parsed.ClipIndex)
	}
}

func TestParseFilenameFallback(t *testing.T) {
	parsed := ParseFilename("export-bwl017-202511292250-final.mp4", "BWL")

	if parsed.Officer != "" {
		t.Fatalf("fallback should not extract officer, got %q", parsed.Officer)
	}
	if parsed.DeviceLabel != "BWL017" {
		t.Fatalf("device = %q", parsed.DeviceLabel)
	}
	want := time.Date(2025, 11, 29, 22, 50, 0, 0, time.UTC)
	if parsed.Timestamp == nil || !parsed.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", parsed.Timestamp, want)
	}
}

func TestParseFilenameNothingExtracted(t *testing.T) {
	parsed := ParseFilename("holiday video.mp4", "BWL")
	if parsed.Officer != "" || parsed.DeviceLabel != "" || parsed.Timestamp != nil || parsed.HasClip {
		t.Fatalf("expected empty parse, got %+v", parsed)
	}
}

func TestParseFilenameInvalidCalendarDate(t *testing.T) {
	// Month 13 is not a date; the digit run must not crash parsing.
	parsed := ParseFilename("OfficerB_202513292250_BWL001-1.mp4", "BWL")
	if parsed.Timestamp != nil {
		t.Fatalf("timestamp = %v, want nil for invalid date", parsed.Timestamp)
	}
	if parsed.DeviceLabel != "BWL001" {
		t.Fatalf("device = %q", parsed.DeviceLabel)
	}
}
