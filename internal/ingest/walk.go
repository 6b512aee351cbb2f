package ingest

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

var supportedExtensions = map[string]struct{}{
	// video
	".mp4": {}, ".mov": {}, ".mkv": {}, ".avi": {}, ".m4v": {},
	// audio
	".wav": {}, ".mp3": {}, ".m4a": {}, ".flac": {}, ".aac": {},
	// image
	".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {}, ".tif": {}, ".tiff": {}, ".bmp": {},
	// document
	".pdf": {}, ".docx": {}, ".doc": {}, ".txt": {},
}

// discoverFiles walks root recursively and returns the sorted paths of every
// regular file whose extension is supported. Unsupported files are skipped
// without comment.
func discoverFiles(root string, extraExtensions []string) ([]string, error) {
	extra := make(map[string]struct{}, len(extraExtensions))
	for _, ext := range extraExtensions {
		if ext != "" {
			extra[strings.ToLower(ext)] = struct{}{}
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := supportedExtensions[ext]; !ok {
			if _, ok := extra[ext]; !ok {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
