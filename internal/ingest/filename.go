package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParsedName holds whatever structured metadata a filename encoded.
// Fields are zero-valued when the filename did not encode them.
type ParsedName struct {
	Officer     string
	Timestamp   *time.Time
	DeviceLabel string
	ClipIndex   int
	HasClip     bool
}

var (
	// Officer_YYYYMMDDHHMM[SS]_DeviceSerial-ClipIndex.ext
	primaryNamePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)_(\d{12}(?:\d{2})?)_([A-Za-z0-9]+)-(\d+)\.[A-Za-z0-9]+$`)

	timestampPattern = regexp.MustCompile(`\d{12,14}`)
)

// ParseFilename extracts officer, timestamp, device label, and clip index
// from a filename following the body-worn-camera naming convention. When the
// primary convention does not match it falls back to scanning for a bare
// timestamp substring and a device label starting with devicePrefix. Parsing
// never fails; a filename that encodes nothing yields an empty ParsedName.
func ParseFilename(name, devicePrefix string) ParsedName {
	var parsed ParsedName

	if m := primaryNamePattern.FindStringSubmatch(name); m != nil {
		parsed.Officer = m[1]
		parsed.Timestamp = parseCompactTimestamp(m[2])
		parsed.DeviceLabel = strings.ToUpper(m[3])
		if clip, err := strconv.Atoi(m[4]); err == nil {
			parsed.ClipIndex = clip
			parsed.HasClip = true
		}
		return parsed
	}

	if m := timestampPattern.FindString(name); m != "" {
		parsed.Timestamp = parseCompactTimestamp(m)
	}
	if devicePrefix != "" {
		devicePattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(devicePrefix) + `\d+`)
		if err == nil {
			if m := devicePattern.FindString(name); m != "" {
				parsed.DeviceLabel = strings.ToUpper(m)
			}
		}
	}
	return parsed
}

// parseCompactTimestamp accepts YYYYMMDDHHMM or YYYYMMDDHHMMSS digit runs.
// Returns nil for digit runs that are not calendar-valid timestamps.
func parseCompactTimestamp(digits string) *time.Time {
	var layout string
	switch len(digits) {
	case 12:
		layout = "200601021504"
	case 14:
		layout = "20060102150405"
	default:
		return nil
	}
	ts, err := time.ParseInLocation(layout, digits, time.UTC)
	if err != nil {
		return nil
	}
	return &ts
}
