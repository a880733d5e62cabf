package job

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UniqueName derives the transcription job name for fileName: the base name
// without its extension, sanitized to [0-9A-Za-z._-], plus a six-hex suffix.
func UniqueName(fileName string) string {
	return SanitizeName(fileName) + "_" + shortSuffix()
}

// SanitizeName applies the job-name rewrite rules without the random suffix.
func SanitizeName(fileName string) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.ReplaceAll(base, ",", "")
	base = strings.ReplaceAll(base, "&", "_")
	base = foldASCII(base)

	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		if isNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "recording"
	}
	return name
}

func foldASCII(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}

func isNameRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == '.', r == '_', r == '-':
		return true
	default:
		return false
	}
}

func shortSuffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:6]
}
