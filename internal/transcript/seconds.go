package transcript

import (
	"fmt"
	"strings"
)

// Plain returns the first full transcript rendition.
func (d *Document) Plain() string {
	if d == nil || len(d.Results.Transcripts) == 0 {
		return ""
	}
	return d.Results.Transcripts[0].Transcript
}

// WithSeconds renders the token stream as text grouped by whole second.
// Each group starts with its MM:SS label and groups are separated by a
// newline. Punctuation inherits the preceding word's second and attaches
// without a space.
func WithSeconds(items []Item) string {
	var b strings.Builder
	current := -1
	for _, item := range items {
		content := item.Content()
		if content == "" {
			continue
		}
		if item.Type == ItemPunctuation {
			if current >= 0 {
				b.WriteString(content)
			}
			continue
		}
		start, ok := item.Start()
		if !ok {
			continue
		}
		second := int(start)
		if second != current {
			if current >= 0 {
				b.WriteByte('\n')
			}
			b.WriteString(Label(second))
			current = second
		}
		b.WriteByte(' ')
		b.WriteString(content)
	}
	return b.String()
}

// Label formats a second offset as MM:SS. Minutes are not wrapped.
func Label(second int) string {
	if second < 0 {
		second = 0
	}
	return fmt.Sprintf("%02d:%02d", second/60, second%60)
}
