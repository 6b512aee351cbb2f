package normalize

import "strings"

// MediaClass selects which derivative set an original receives.
type MediaClass string

const (
	ClassVideo   MediaClass = "video"
	ClassAudio   MediaClass = "audio"
	ClassImage   MediaClass = "image"
	ClassPDF     MediaClass = "pdf"
	ClassDocx    MediaClass = "docx"
	ClassText    MediaClass = "text"
	ClassUnknown MediaClass = "unknown"
)

// Classify maps a MIME string to a media class. Anything unrecognized is
// ClassUnknown, which receives zero derivatives.
func Classify(mimeType string) MediaClass {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.IndexByte(mimeType, ';'); idx > 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return ClassVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return ClassAudio
	case strings.HasPrefix(mimeType, "image/"):
		return ClassImage
	case mimeType == "application/pdf":
		return ClassPDF
	case mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ClassDocx
	case strings.HasPrefix(mimeType, "text/"):
		return ClassText
	default:
		return ClassUnknown
	}
}
