package admission

import (
	"path/filepath"
	"strings"
)

var videoExtensions = map[string]struct{}{
	".3g2": {}, ".3gp": {}, ".avi": {}, ".flv": {}, ".m2v": {}, ".m2ts": {},
	".m4v": {}, ".mkv": {}, ".mov": {}, ".mp4": {}, ".mpeg": {}, ".mpg": {},
	".ogg": {}, ".mts": {}, ".qt": {}, ".ts": {}, ".wmv": {},
}

var audioExtensions = map[string]struct{}{
	".3g2": {}, ".aac": {}, ".aif": {}, ".aifc": {}, ".aiff": {}, ".amr": {},
	".au": {}, ".flac": {}, ".m4a": {}, ".mp3": {}, ".ogg": {}, ".ra": {},
	".wav": {}, ".wma": {},
}

// IsVideo reports whether fileName has a supported video extension.
func IsVideo(fileName string) bool {
	_, ok := videoExtensions[extension(fileName)]
	return ok
}

// IsAudio reports whether fileName has a supported audio extension.
func IsAudio(fileName string) bool {
	_, ok := audioExtensions[extension(fileName)]
	return ok
}

// VideoExtensions returns the supported video extensions.
func VideoExtensions() []string { return keys(videoExtensions) }

// AudioExtensions returns the supported audio extensions.
func AudioExtensions() []string { return keys(audioExtensions) }

func extension(fileName string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
