package transcript

import (
	"fmt"
	"math"
	"strings"
)

// SRT renders segments as SubRip captions. Empty segments are skipped and
// cues are numbered from 1.
func SRT(segments []Segment) string {
	var b strings.Builder
	index := 1
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		end := seg.End
		if end <= seg.Start {
			end = seg.Start + 1
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", index, srtTimestamp(seg.Start), srtTimestamp(end), text)
		index++
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
